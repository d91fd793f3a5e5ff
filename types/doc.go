/*
Package types defines asyncping's information model. It mainly revolves around
a single probe outcome, the [Response], and the summary of a complete run, the
[AggregateResult]. Where to send probes to is described by a [Destination].

# Immutability

Responses and aggregate results are handed across goroutines: they are produced
on goroutines owned by a probing engine and then consumed on the caller's
goroutine. They are thus passed around as plain values and never modified after
they have been produced. An [AggregateResult] owns its Responses slice; callers
that want to modify it need to make a copy first.

# Errors

There are three kinds of failures:

  - a [StartError] means that a run could not even begin, for instance because
    the destination name could not be resolved or no socket could be created.
  - a [RunError] means that a run began, but failed later on. It is reported
    after zero or more Responses have been delivered.
  - per-response failures, such as [ErrProbeTimeout] and [ErrNoReply], are not
    terminal at all. They are carried in the Err field of individual Responses
    and never stop a run.
*/
package types
