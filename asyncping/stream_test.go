// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import (
	"context"
	"errors"
	"time"

	"github.com/siemens/asyncping/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
)

var _ = Describe("response streams", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	seqs := func(resps []types.Response) []int {
		s := make([]int, 0, len(resps))
		for _, resp := range resps {
			s = append(s, resp.Header.Seq)
		}
		return s
	}

	DescribeTable("streams exactly the target count of responses, in order",
		func(ctx context.Context, count int) {
			engine := newFakeEngine()
			session := New(engine)
			Expect(session.Configure(count)).To(Succeed())

			resps, err := session.Ping(ctx).Collect()
			Expect(err).NotTo(HaveOccurred())
			Expect(resps).To(HaveLen(count))
			Expect(resps).To(HaveEach(HaveField("Err", BeNil())))
			want := make([]int, count)
			for i := range want {
				want[i] = i
			}
			Expect(seqs(resps)).To(Equal(want))
			Expect(session.State()).To(Equal(Completed))
			Expect(session.Done()).To(BeClosed())
			Expect(engine.stops.Load()).To(BeZero())
		},
		Entry("ten probes", NodeTimeout(5*time.Second), 10),
		Entry("five probes", NodeTimeout(5*time.Second), 5),
		Entry("a single probe", NodeTimeout(5*time.Second), 1),
	)

	It("streams exactly one response when pinging once", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		session := New(engine, WithCount(10))
		var resps []types.Response
		for resp, err := range session.PingOnce(ctx).All() {
			Expect(err).NotTo(HaveOccurred())
			resps = append(resps, resp)
		}
		Expect(resps).To(HaveLen(1))
		Expect(engine.TargetCount()).To(Equal(1))
		Expect(session.State()).To(Equal(Completed))
	})

	It("surfaces a start failure without any responses", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.startErr = errors.New("socket: operation not permitted")
		session := New(engine, WithCount(10))

		st := session.Ping(ctx)
		Expect(st.Next()).To(BeFalse())
		var serr *types.StartError
		Expect(errors.As(st.Err(), &serr)).To(BeTrue())
		Expect(st.Err()).To(MatchError(engine.startErr))
		Expect(session.State()).To(Equal(Failed))
		Expect(engine.Registered()).To(BeFalse())

		n := 0
		for _, err := range New(engine).Ping(ctx).All() {
			Expect(err).To(MatchError(engine.startErr))
			n++
		}
		Expect(n).To(Equal(1), "only the terminal error pair")
	})

	It("ends with the run error after the last delivered response", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.runErr = errors.New("read: network is down")
		engine.failAfter = 3
		session := New(engine, WithCount(10))

		st := session.Ping(ctx)
		for i := 0; i < 3; i++ {
			Expect(st.Next()).To(BeTrue())
			Expect(st.Response().Header.Seq).To(Equal(i))
		}
		Expect(st.Next()).To(BeFalse())
		var rerr *types.RunError
		Expect(errors.As(st.Err(), &rerr)).To(BeTrue())
		Expect(rerr).To(MatchError(engine.runErr))
		Expect(session.State()).To(Equal(Failed))
	})

	It("keeps streaming past lost probes", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.lost = map[int]bool{2: true}
		session := New(engine, WithCount(5))

		resps, err := session.Ping(ctx).Collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(resps).To(HaveLen(5))
		Expect(resps[2].Err).To(MatchError(types.ErrProbeTimeout))
		Expect(resps[2].OK()).To(BeFalse())
		Expect(session.State()).To(Equal(Completed))
	})

	It("stops the engine exactly once when abandoned early", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.interval = 20 * time.Millisecond
		session := New(engine, WithCount(10))

		n := 0
		for _, err := range session.Ping(ctx).All() {
			Expect(err).NotTo(HaveOccurred())
			n++
			if n == 3 {
				break
			}
		}
		Expect(n).To(Equal(3))
		Expect(session.State()).To(Equal(Cancelled))
		Eventually(engine.done).Should(BeClosed())
		Expect(engine.stops.Load()).To(Equal(int32(1)))
		Expect(engine.Registered()).To(BeFalse())

		session.Stop()
		session.Stop()
		Expect(engine.stops.Load()).To(Equal(int32(1)))
	})

	It("discards pending responses on close", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.interval = 20 * time.Millisecond
		session := New(engine, WithCount(10))

		st := session.Ping(ctx)
		Expect(st.Next()).To(BeTrue())
		Eventually(func() int {
			st.mu.Lock()
			defer st.mu.Unlock()
			return st.queue.Len()
		}).Should(BeNumerically(">=", 2))
		st.Close()
		st.Close()
		Expect(st.Next()).To(BeFalse())
		Expect(st.Err()).NotTo(HaveOccurred())
		Expect(session.State()).To(Equal(Cancelled))
		Eventually(engine.done).Should(BeClosed())
		Expect(engine.stops.Load()).To(Equal(int32(1)))
	})

	It("cancels the run when the context gets cancelled", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.interval = 10 * time.Millisecond
		session := New(engine) // unbounded

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		st := session.Ping(ctx)
		Expect(st.Next()).To(BeTrue())
		cancel()
		Eventually(session.Done()).Should(BeClosed())
		for st.Next() {
		}
		Expect(st.Err()).To(MatchError(context.Canceled))
		Expect(session.State()).To(Equal(Cancelled))
		Eventually(engine.done).Should(BeClosed())
		Expect(engine.stops.Load()).To(Equal(int32(1)))
	})

	It("does not cancel a run that already completed", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		session := New(engine, WithCount(3))

		st := session.Ping(ctx)
		Eventually(session.Done()).Should(BeClosed())
		st.Close()
		Expect(session.State()).To(Equal(Completed))
		Expect(engine.stops.Load()).To(BeZero())
	})

	It("settles only once on duplicate completions", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.finishTwix = true
		session := New(engine, WithCount(4))

		resps, err := session.Ping(ctx).Collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(resps).To(HaveLen(4))
		Eventually(engine.done).Should(BeClosed())
		Expect(session.State()).To(Equal(Completed))
	})

	It("refuses to stream twice from the same session", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		session := New(engine, WithCount(2))
		_, err := session.Ping(ctx).Collect()
		Expect(err).NotTo(HaveOccurred())

		_, err = session.Ping(ctx).Collect()
		var serr *types.StartError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(err).To(MatchError(types.ErrAlreadyStarted))
		Expect(engine.starts.Load()).To(Equal(int32(1)))
		Expect(session.State()).To(Equal(Completed))
	})

})
