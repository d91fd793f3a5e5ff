// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"fmt"
	"time"
)

// Header is a snapshot of the relevant protocol header fields of an echo
// reply.
type Header struct {
	TTL int `json:"ttl"` // time-to-live (or hop limit) of the reply.
	Seq int `json:"seq"` // ICMP echo sequence number.
}

// Response is the outcome of a single probe. A Response with a non-nil Err
// describes a failed probe, such as a probe that timed out; Bytes, Header and
// RTT are then only partially set or zero.
type Response struct {
	Bytes  int           `json:"bytes"`  // number of bytes received.
	Addr   string        `json:"addr"`   // address the reply originated from.
	Header Header        `json:"header"` // protocol header snapshot.
	RTT    time.Duration `json:"rtt"`    // round-trip time.
	Err    error         `json:"-"`      // optional per-probe failure.
}

// OK returns true if the probe got answered.
func (r Response) OK() bool { return r.Err == nil }

// String returns a ping(8)-like textual representation of a Response.
func (r Response) String() string {
	if r.Err != nil {
		return fmt.Sprintf("from %s: icmp_seq=%d %s", r.Addr, r.Header.Seq, r.Err)
	}
	return fmt.Sprintf("%d bytes from %s: icmp_seq=%d ttl=%d time=%v",
		r.Bytes, r.Addr, r.Header.Seq, r.Header.TTL, r.RTT)
}

// RoundTrip contains the round-trip time statistics over all successful
// probes of a run.
type RoundTrip struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Avg    time.Duration `json:"avg"`
	StdDev time.Duration `json:"stddev"`
}

// AggregateResult summarizes a completed run. It is produced exactly once per
// run.
type AggregateResult struct {
	Addr               string     `json:"addr"`               // probed address.
	PacketsTransmitted int        `json:"packetsTransmitted"` // number of probes sent.
	PacketsReceived    int        `json:"packetsReceived"`    // number of replies received.
	PacketLoss         float64    `json:"packetLoss"`         // fraction of lost probes, 0..1.
	RoundTrip          *RoundTrip `json:"roundtrip"`          // nil unless at least one probe got answered.
	Responses          []Response `json:"responses"`          // all responses, in order of delivery.
	Err                error      `json:"-"`                  // if non-nil, the run failed.
}

// Failed returns true if the run failed before reaching its target count or
// being stopped.
func (a AggregateResult) Failed() bool { return a.Err != nil }
