// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"math"
	"time"

	"github.com/siemens/asyncping/types"
)

// summarize the responses of a run into an aggregate result. The round-trip
// statistics cover only the answered probes and are nil if there were none.
func summarize(addr string, transmitted int, responses []types.Response) types.AggregateResult {
	result := types.AggregateResult{
		Addr:               addr,
		PacketsTransmitted: transmitted,
		Responses:          responses,
	}
	rtts := make([]time.Duration, 0, len(responses))
	for _, resp := range responses {
		if resp.OK() {
			rtts = append(rtts, resp.RTT)
		}
	}
	result.PacketsReceived = len(rtts)
	if transmitted > 0 {
		result.PacketLoss = float64(transmitted-result.PacketsReceived) / float64(transmitted)
	}
	if len(rtts) == 0 {
		return result
	}
	rt := &types.RoundTrip{Min: rtts[0], Max: rtts[0]}
	var total time.Duration
	for _, rtt := range rtts {
		rt.Min = min(rt.Min, rtt)
		rt.Max = max(rt.Max, rtt)
		total += rtt
	}
	rt.Avg = total / time.Duration(len(rtts))
	var sqdiffs float64
	for _, rtt := range rtts {
		diff := float64(rtt - rt.Avg)
		sqdiffs += diff * diff
	}
	rt.StdDev = time.Duration(math.Sqrt(sqdiffs / float64(len(rtts))))
	result.RoundTrip = rt
	return result
}
