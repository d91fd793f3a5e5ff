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

var _ = Describe("sessions", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("has clear-text states", func() {
		Expect(Idle.String()).To(Equal("idle"))
		Expect(Cancelled.String()).To(Equal("cancelled"))
		Expect(State(42).String()).To(Equal("State(42)"))
		Expect([]State{Completed, Failed, Cancelled}).To(HaveEach(
			WithTransform(State.IsTerminal, BeTrue())))
		Expect([]State{Idle, Starting, Running}).To(HaveEach(
			WithTransform(State.IsTerminal, BeFalse())))
	})

	It("finalizes the target count at start", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		session := New(engine, WithCount(7))
		Expect(session.Configure(3)).To(Succeed())
		Expect(session.Configure(2)).To(Succeed())
		Expect(engine.TargetCount()).To(BeZero(), "must not touch the engine before start")

		Expect(session.Start()).To(Succeed())
		Expect(session.Configure(5)).To(MatchError(types.ErrConfigLocked))
		Eventually(session.Done()).Should(BeClosed())
		Expect(engine.TargetCount()).To(Equal(2))
		Expect(session.State()).To(Equal(Completed))
		Expect(session.Configure(5)).To(MatchError(types.ErrConfigLocked))
	})

	It("treats negative target counts as unbounded", func() {
		session := New(newFakeEngine())
		Expect(session.Configure(-1)).To(Succeed())
		Expect(session.count).To(Equal(Unbounded))
		Expect(session.countSet).To(BeTrue())
	})

	It("ignores stopping an idle session", func() {
		engine := newFakeEngine()
		session := New(engine)
		session.Stop()
		Expect(session.State()).To(Equal(Idle))
		Expect(engine.stops.Load()).To(BeZero())
	})

	It("defers stopping while the engine is starting", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		engine.startGate = make(chan struct{})
		session := New(engine) // unbounded

		started := make(chan error)
		go func() {
			started <- session.Start()
		}()
		Eventually(session.State).Should(Equal(Starting))
		session.Stop()
		Expect(engine.stops.Load()).To(BeZero())

		close(engine.startGate)
		Eventually(started).Should(Receive(BeNil()))
		Eventually(session.Done()).Should(BeClosed())
		Expect(engine.stops.Load()).To(Equal(int32(1)))
		Expect(session.State()).To(Equal(Completed))
	})

	It("fails loudly when started twice", NodeTimeout(5*time.Second), func(ctx context.Context) {
		engine := newFakeEngine()
		session := New(engine, WithCount(1))
		Expect(session.Start()).To(Succeed())
		err := session.Start()
		Expect(err).To(MatchError(types.ErrAlreadyStarted))
		var serr *types.StartError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Eventually(session.Done()).Should(BeClosed())

		_, err = session.PingResult(ctx)
		Expect(err).To(MatchError(types.ErrAlreadyStarted))
		Expect(engine.starts.Load()).To(Equal(int32(1)))
	})

	It("does not double-wrap errors", func() {
		serr := &types.StartError{Err: errors.New("foo")}
		Expect(startError(serr)).To(BeIdenticalTo(serr))
		rerr := &types.RunError{Err: errors.New("bar")}
		Expect(runError(rerr)).To(BeIdenticalTo(rerr))
		Expect(runError(nil)).To(BeNil())
	})

})
