// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import (
	"context"
	"sync"

	"github.com/siemens/asyncping/types"
)

// DefaultResultCount is the number of probes [Session.PingResult] sends if no
// target count has been set explicitly, so that PingResult cannot hang
// forever on an unbounded run.
const DefaultResultCount = 10

// PingResult starts the run and waits for it to finish, returning the
// aggregated result. Individual responses are not made available before the
// run has finished; they are embedded in the result instead.
//
// If no target count has been explicitly set, [DefaultResultCount] probes are
// sent. An explicitly [Unbounded] target count is honored; the run then lasts
// until [Session.Stop] is called or ctx gets cancelled.
//
// Exactly one of the following happens: PingResult returns the result and a
// nil error; it returns the (partial) result together with a
// [*types.RunError] if the run failed midway; or it returns a
// [*types.StartError] if the run could not be started.
//
// Cancelling ctx stops the engine, but PingResult still waits for the engine
// to finish the run and returns the (partial) result the engine reports.
func (s *Session) PingResult(ctx context.Context) (types.AggregateResult, error) {
	var (
		mu   sync.Mutex
		seen []types.Response
	)
	done := make(chan types.AggregateResult, 1)
	err := s.attach(hooks{
		// Only needed for engines not embedding the responses in their
		// results.
		observer: func(resp types.Response) {
			mu.Lock()
			seen = append(seen, resp)
			mu.Unlock()
		},
		finished: func(result types.AggregateResult) { done <- result },
		count: func(count int, explicit bool) int {
			if !explicit {
				return DefaultResultCount
			}
			return count
		},
	})
	if err != nil {
		return types.AggregateResult{}, err
	}
	var result types.AggregateResult
	select {
	case result = <-done:
	case <-ctx.Done():
		s.Stop()
		result = <-done
	}
	if result.Responses == nil {
		mu.Lock()
		result.Responses = seen
		mu.Unlock()
	}
	return result, result.Err
}
