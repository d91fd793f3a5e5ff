// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import "github.com/siemens/asyncping/types"

// Unbounded as a target count lets a run continue until it gets stopped.
const Unbounded = 0

// Engine is a callback-driven probing engine, such as the ICMP engine from
// package [github.com/siemens/asyncping/probe].
//
// After a successful Start, an Engine calls the observer zero or more times and
// then the finished handler exactly once, never calling the observer after the
// finished handler. Callbacks may be invoked on goroutines owned by the Engine,
// but never concurrently with each other.
type Engine interface {
	// SetObserver registers the per-response callback; nil deregisters.
	SetObserver(fn func(types.Response))
	// SetFinished registers the end-of-run callback; nil deregisters.
	SetFinished(fn func(types.AggregateResult))
	// SetTargetCount limits the number of probes of the next run; Unbounded
	// for no limit.
	SetTargetCount(count int)
	// Start begins a run, failing synchronously if the run cannot begin.
	Start() error
	// Stop requests the current run to end early. Idempotent and safe to call
	// from any goroutine.
	Stop()
}
