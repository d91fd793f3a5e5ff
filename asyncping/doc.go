/*
Package asyncping bridges a callback-driven probing [Engine] into three
synchronous-looking ways of consuming its results:

  - [Session.Ping] returns a [Stream] of [types.Response] values, ending when
    the engine finishes its run.
  - [Session.PingOnce] returns a Stream of exactly one Response.
  - [Session.PingResult] blocks until the run has finished and then returns
    the [types.AggregateResult].

An Engine reports progress through two independent callback hooks: an observer
called once per probe outcome, and a finish handler called exactly once at the
end of a run, both possibly on engine-owned goroutines.

	          observer  +--------+
	Engine ------------>| Stream +--> Next/Response/Err, All
	       \  finished  +--------+
	        `---------->| Result +--> PingResult
	                    +--------+

# Sessions are single-run

A [Session] binds exactly one Engine for exactly one run. Once a run has been
started, regardless of whether it completed, failed or got cancelled, the
Session cannot be started again; attempts fail with
[types.ErrAlreadyStarted]. Create a fresh engine and Session instead.

# Cancellation

Breaking out of [Stream.All], calling [Stream.Close] or cancelling the context
passed to [Session.Ping] abandons the stream: the engine gets told to stop and
any responses not yet consumed are discarded. [Session.PingResult] instead
keeps waiting after its context got cancelled, reporting whatever (partial)
result the engine finally hands over after having been stopped.

# Acknowledgements

Under its hood, [Stream] leverages [gammazero/deque] as its unbounded hand-off
queue, so engine callbacks never block.

[gammazero/deque]: https://github.com/gammazero/deque
*/
package asyncping
