// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import (
	"context"
	"iter"
	"sync"

	"github.com/siemens/asyncping/types"

	"github.com/gammazero/deque"
)

// Stream is a sequence of [types.Response] values produced by a Session's run,
// in the order the engine reported them. Iterate it using Next and Response,
// similar to a [bufio.Scanner], or use All with a range-over-func loop:
//
//	st := session.Ping(ctx)
//	defer st.Close()
//	for st.Next() {
//	    fmt.Println(st.Response())
//	}
//	if err := st.Err(); err != nil {
//	    ...
//	}
//
// A Stream is meant to be consumed from a single goroutine.
type Stream struct {
	session *Session
	ctx     context.Context

	mu        sync.Mutex
	queue     deque.Deque[types.Response] // delivered by the engine, not yet consumed.
	ended     bool                        // no more responses will be queued.
	err       error                       // terminal error, if any.
	stopWatch func() bool                 // stops watching the context.
	notify    chan struct{}               // wakes up a waiting consumer.

	current types.Response
}

// Ping starts the run and returns a [Stream] of the responses as they arrive,
// ending when the engine finishes the run. Ping does not block.
//
// If the run cannot be started, the Stream will be empty and its Err method
// returns the [*types.StartError]. If the run fails midway, the Stream ends
// after the last response delivered and Err returns the [*types.RunError].
//
// Cancelling ctx or calling [Stream.Close] before the run has finished
// abandons the Stream: the engine is told to stop and the Session enters the
// Cancelled state.
func (s *Session) Ping(ctx context.Context) *Stream {
	return s.stream(ctx, nil)
}

// PingOnce works like [Session.Ping], but sends only a single probe
// regardless of any target count configured, so the returned Stream yields
// exactly one response.
func (s *Session) PingOnce(ctx context.Context) *Stream {
	return s.stream(ctx, func(int, bool) int { return 1 })
}

func (s *Session) stream(ctx context.Context, count func(int, bool) int) *Stream {
	st := &Stream{
		session: s,
		ctx:     ctx,
		notify:  make(chan struct{}, 1),
	}
	err := s.attach(hooks{
		observer: st.enqueue,
		finished: func(result types.AggregateResult) { st.end(result.Err) },
		count:    count,
	})
	if err != nil {
		st.end(err)
		return st
	}
	// Watch the context for the whole run, but not any longer.
	stop := context.AfterFunc(ctx, func() { st.abandon(ctx.Err()) })
	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		stop()
		return st
	}
	st.stopWatch = stop
	st.mu.Unlock()
	return st
}

// Next advances to the next response, blocking until the engine delivers one
// or the run ends. It returns false at the end of the run, after which Err
// tells whether the run ended successfully.
func (st *Stream) Next() bool {
	for {
		st.mu.Lock()
		if st.queue.Len() > 0 {
			st.current = st.queue.PopFront()
			st.mu.Unlock()
			return true
		}
		if st.ended {
			st.current = types.Response{}
			st.mu.Unlock()
			return false
		}
		st.mu.Unlock()
		select {
		case <-st.notify:
		case <-st.ctx.Done():
			st.abandon(st.ctx.Err())
		}
	}
}

// Response returns the response most recently made available by Next.
func (st *Stream) Response() types.Response {
	return st.current
}

// Err returns the error that terminated the Stream: a [*types.StartError], a
// [*types.RunError], or the context error if the context got cancelled. Err
// returns nil if the run completed successfully or was abandoned using Close.
func (st *Stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

// Close abandons the Stream: if the run is still in progress the engine is
// told to stop. Responses not yet consumed are discarded. Close is idempotent.
func (st *Stream) Close() {
	st.abandon(nil)
}

// All returns an iterator over the responses for use in range-over-func
// loops. If the Stream ends with an error, the error is yielded as the final
// pair together with a zero Response. Breaking out of the loop early closes
// the Stream.
func (st *Stream) All() iter.Seq2[types.Response, error] {
	return func(yield func(types.Response, error) bool) {
		defer st.Close()
		for st.Next() {
			if !yield(st.Response(), nil) {
				return
			}
		}
		if err := st.Err(); err != nil {
			yield(types.Response{}, err)
		}
	}
}

// Collect consumes all (remaining) responses, returning them together with
// the terminal error, if any.
func (st *Stream) Collect() ([]types.Response, error) {
	var resps []types.Response
	for st.Next() {
		resps = append(resps, st.Response())
	}
	return resps, st.Err()
}

// enqueue is the observer callback; it never blocks the engine.
func (st *Stream) enqueue(resp types.Response) {
	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		return
	}
	st.queue.PushBack(resp)
	st.mu.Unlock()
	st.signal()
}

// end marks the end of the run, with responses already queued still
// available to the consumer.
func (st *Stream) end(err error) {
	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		return
	}
	st.ended = true
	st.err = err
	stop := st.stopWatch
	st.stopWatch = nil
	st.mu.Unlock()
	if stop != nil {
		stop()
	}
	st.signal()
}

// abandon ends the Stream on behalf of its consumer, discarding any responses
// not yet consumed and cancelling the run if it is still in progress.
func (st *Stream) abandon(cause error) {
	st.mu.Lock()
	st.queue.Clear()
	if st.ended {
		st.mu.Unlock()
		return
	}
	st.ended = true
	st.err = cause
	stop := st.stopWatch
	st.stopWatch = nil
	st.mu.Unlock()
	if stop != nil {
		stop()
	}
	st.session.cancel()
	st.signal()
}

func (st *Stream) signal() {
	select {
	case st.notify <- struct{}{}:
	default:
	}
}
