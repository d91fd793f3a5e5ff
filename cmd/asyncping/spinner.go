// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"time"
)

// spinner is yet another blindingly simple spinner that derives its phase from
// the time passed since its creation, so it doesn't need any ticking
// background goroutine.
type spinner struct {
	phases   []string
	interval time.Duration
	start    time.Time
}

// newSpinner returns a new spinner stepping to its next phase every specified
// interval.
func newSpinner(interval time.Duration) *spinner {
	phases := []string{}
	for _, r := range "⠉⠘⠰⠤⠆⠃" {
		phases = append(phases, string(r)+" ")
	}
	return &spinner{
		phases:   phases,
		interval: interval,
		start:    time.Now(),
	}
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	return s.phase(time.Now())
}

func (s *spinner) phase(now time.Time) string {
	step := int(now.Sub(s.start) / s.interval)
	return s.phases[step%len(s.phases)]
}
