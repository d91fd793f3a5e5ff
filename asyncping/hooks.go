// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/siemens/asyncping/types"

	"github.com/thediveo/lxkns/log"
)

// hooks are the callbacks a bridge attaches to the engine of a Session for the
// duration of a single run.
type hooks struct {
	observer func(types.Response)
	finished func(types.AggregateResult)
	// count optionally finalizes the target count, given the count configured
	// on the Session and whether it was explicitly set.
	count func(count int, explicit bool) int
}

// attach registers the hooks with the engine and then starts the engine,
// moving the Session out of Idle. Any later attach fails with
// [types.ErrAlreadyStarted] wrapped in a [*types.StartError].
//
// The finished hook is guaranteed to be called at most once, even if a
// misbehaving engine reports completion multiple times.
func (s *Session) attach(h hooks) error {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return &types.StartError{Err: fmt.Errorf("%s session: %w", state, types.ErrAlreadyStarted)}
	}
	s.enter(Starting)
	count := s.count
	if h.count != nil {
		count = h.count(s.count, s.countSet)
	}
	s.mu.Unlock()

	var settled atomic.Bool
	s.engine.SetObserver(h.observer)
	s.engine.SetFinished(func(result types.AggregateResult) {
		if !settled.CompareAndSwap(false, true) {
			log.Warnf("dropping duplicate completion of run to %s", result.Addr)
			return
		}
		result.Err = runError(result.Err)
		s.settle(result)
		if h.finished != nil {
			h.finished(result)
		}
		s.release()
	})
	s.engine.SetTargetCount(count)

	log.Debugf("starting engine, target count %d", count)
	if err := s.engine.Start(); err != nil {
		s.release()
		s.mu.Lock()
		s.enter(Failed)
		s.mu.Unlock()
		return startError(err)
	}

	s.mu.Lock()
	s.engineStarted = true
	if s.state == Starting {
		s.enter(Running)
	}
	stop := s.stopRequested
	s.mu.Unlock()
	if stop {
		s.Stop()
	}
	return nil
}

// settle moves the run into its terminal state according to the result
// reported by the engine. A cancelled run stays cancelled.
func (s *Session) settle(result types.AggregateResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Err != nil {
		s.enter(Failed)
		return
	}
	s.enter(Completed)
}

// release deregisters the run's callbacks from the engine.
func (s *Session) release() {
	s.engine.SetObserver(nil)
	s.engine.SetFinished(nil)
}

// startError maps an engine start failure onto a [*types.StartError].
func startError(err error) error {
	var serr *types.StartError
	if errors.As(err, &serr) {
		return err
	}
	return &types.StartError{Err: err}
}

// runError maps an engine run failure onto a [*types.RunError], passing nil
// through.
func runError(err error) error {
	if err == nil {
		return nil
	}
	var rerr *types.RunError
	if errors.As(err, &rerr) {
		return err
	}
	return &types.RunError{Err: err}
}
