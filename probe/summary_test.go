// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"time"

	"github.com/siemens/asyncping/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("run summaries", func() {

	It("summarizes a run without any replies", func() {
		result := summarize("127.0.0.1", 2, []types.Response{
			{Addr: "127.0.0.1", Header: types.Header{Seq: 0}, Err: types.ErrProbeTimeout},
			{Addr: "127.0.0.1", Header: types.Header{Seq: 1}, Err: types.ErrNoReply},
		})
		Expect(result.Addr).To(Equal("127.0.0.1"))
		Expect(result.PacketsTransmitted).To(Equal(2))
		Expect(result.PacketsReceived).To(BeZero())
		Expect(result.PacketLoss).To(Equal(1.0))
		Expect(result.RoundTrip).To(BeNil())
		Expect(result.Responses).To(HaveLen(2))
	})

	It("summarizes an empty run", func() {
		result := summarize("::1", 0, nil)
		Expect(result.PacketLoss).To(BeZero())
		Expect(result.RoundTrip).To(BeNil())
	})

	It("calculates round-trip statistics over the replies only", func() {
		result := summarize("127.0.0.1", 4, []types.Response{
			{Header: types.Header{Seq: 0}, RTT: 2 * time.Millisecond},
			{Header: types.Header{Seq: 1}, Err: types.ErrProbeTimeout, RTT: time.Hour},
			{Header: types.Header{Seq: 2}, RTT: 4 * time.Millisecond},
			{Header: types.Header{Seq: 3}, RTT: 6 * time.Millisecond},
		})
		Expect(result.PacketsReceived).To(Equal(3))
		Expect(result.PacketLoss).To(BeNumerically("~", 0.25, 1e-9))
		Expect(result.RoundTrip).To(HaveValue(And(
			HaveField("Min", 2*time.Millisecond),
			HaveField("Max", 6*time.Millisecond),
			HaveField("Avg", 4*time.Millisecond),
			HaveField("StdDev", BeNumerically("~", 1632993*time.Nanosecond, time.Microsecond)),
		)))
	})

})
