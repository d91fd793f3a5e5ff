// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import (
	"sync"

	"github.com/siemens/asyncping/types"

	"github.com/thediveo/lxkns/log"
)

// Session binds one [Engine] to one run. A Session is single-run: after its
// run has been started it cannot be started again, not even after the run has
// ended; use a fresh engine and Session instead.
//
// The target count is configured builder-style: it can be changed any number
// of times while the Session is still idle, and gets finalized into the engine
// when the run starts.
type Session struct {
	engine Engine

	mu            sync.Mutex
	state         State
	count         int           // target count to apply at start.
	countSet      bool          // true if the target count was explicitly set.
	engineStarted bool          // true after the engine's Start succeeded.
	stopRequested bool          // Stop called while the engine was starting.
	done          chan struct{} // closed upon entering a terminal state.
	stopOnce      sync.Once
}

// Option can be passed to New when creating new Session objects.
type Option func(*Session)

// New returns a new idle [Session] for the specified engine. Unless configured
// otherwise using [WithCount] or [Session.Configure], runs are unbounded;
// [Session.PingResult] applies its own default in this case.
func New(engine Engine, options ...Option) *Session {
	s := &Session{
		engine: engine,
		done:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithCount sets the number of probes to send before the run completes. A
// count of zero means [Unbounded].
func WithCount(count uint) Option {
	return func(s *Session) {
		s.count = int(count)
		s.countSet = true
	}
}

// Configure sets the number of probes for the run; [Unbounded] (or any
// negative count) lets the run continue until stopped. Configure fails with
// [types.ErrConfigLocked] after the run has been started: an in-flight run is
// never affected.
func (s *Session) Configure(count int) error {
	if count < 0 {
		count = Unbounded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		log.Warnf("ignoring target count %d for %s run", count, s.state)
		return types.ErrConfigLocked
	}
	s.count = count
	s.countSet = true
	return nil
}

// State returns the current lifecycle state of the Session's run.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel that gets closed as soon as the run has reached one
// of the terminal states Completed, Failed or Cancelled.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start starts the run without attaching any bridge, so individual responses
// as well as the final result are discarded. Use [Session.Done] and
// [Session.State] to learn about the run's outcome. Start fails with a
// [*types.StartError] if the engine cannot begin, or if this Session has
// already been started before.
func (s *Session) Start() error {
	return s.attach(hooks{})
}

// Stop requests the run to terminate early. Stop is idempotent and can be
// called from any goroutine, also concurrently with the engine finishing on
// its own. The engine gets told to stop at most once; if the engine is still
// starting, stopping is deferred until it has started.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.engineStarted {
		if s.state != Idle {
			s.stopRequested = true
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.stopOnce.Do(func() {
		log.Debugf("stopping engine")
		s.engine.Stop()
	})
}

// enter switches into the specified state, unless the run already is in a
// terminal state. The caller must hold the lock.
func (s *Session) enter(state State) bool {
	if s.state.IsTerminal() {
		return false
	}
	log.Debugf("session %s -> %s", s.state, state)
	s.state = state
	if state.IsTerminal() {
		close(s.done)
	}
	return true
}

// cancel marks the run as abandoned by its consumer, stops the engine and
// finally drops the callback registrations.
func (s *Session) cancel() {
	s.mu.Lock()
	if s.state == Idle || !s.enter(Cancelled) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Stop()
	s.release()
}
