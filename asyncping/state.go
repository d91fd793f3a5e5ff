// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package asyncping

import "fmt"

// State is the lifecycle state of a [Session] and its single run.
type State int

// The lifecycle states of a run. Completed, Failed and Cancelled are terminal.
const (
	Idle      State = iota // not yet started, configuration still possible.
	Starting               // engine start in progress.
	Running                // engine started, callbacks may arrive.
	Completed              // run finished successfully.
	Failed                 // run could not start, or failed later.
	Cancelled              // consumer abandoned the run.
)

// String returns the clear-text representation of a State value.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", s)
}

// IsTerminal returns true for the absorbing states Completed, Failed and
// Cancelled.
func (s State) IsTerminal() bool {
	switch s {
	case Completed, Failed, Cancelled:
		return true
	default:
		return false
	}
}
