// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "errors"

// Sentinel errors.
var (
	// ErrAlreadyStarted signals that a session or engine was asked to start a
	// second run. Sessions and engines are single-run.
	ErrAlreadyStarted = errors.New("already started")
	// ErrConfigLocked signals an attempt to change the run configuration after
	// the run has been started.
	ErrConfigLocked = errors.New("configuration locked after start")
	// ErrProbeTimeout marks a probe that didn't get an answer within the
	// per-probe timeout.
	ErrProbeTimeout = errors.New("probe timed out")
	// ErrNoReply marks a probe still unanswered when its run ended.
	ErrNoReply = errors.New("no reply before end of run")
)

// StartError is returned when a run cannot begin, such as when resolving the
// destination or creating the socket fails.
type StartError struct {
	Err error
}

func (e *StartError) Error() string { return "cannot start probing: " + e.Err.Error() }

func (e *StartError) Unwrap() error { return e.Err }

// RunError is reported when a run began but then failed before reaching its
// target count or being stopped.
type RunError struct {
	Err error
}

func (e *RunError) Error() string { return "probing failed: " + e.Err.Error() }

func (e *RunError) Unwrap() error { return e.Err }
