// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"sync"

	"github.com/siemens/asyncping/types"
)

// hostState describes where a host is in its pinging lifecycle.
type hostState int

const (
	hostPending hostState = iota // waiting for a free worker.
	hostPinging                  // probes in flight.
	hostDone                     // finished, with at least one reply.
	hostFailed                   // finished without any reply, or failed.
)

// hostStatus is the pinging status of a single host.
type hostStatus struct {
	Host        string
	State       hostState
	Addr        string
	Transmitted int
	Received    int
	Last        *types.Response        // most recent probe outcome, if any.
	Result      *types.AggregateResult // final statistics in summary mode.
	Err         error
}

// board is a concurrency-safe tally of the pinging status of multiple hosts,
// in the order the hosts were specified.
type board struct {
	mu     sync.Mutex
	hosts  []string
	status map[string]*hostStatus
}

// newBoard returns a new board for the specified hosts, skipping duplicates.
func newBoard(hosts []string) *board {
	b := &board{
		hosts:  make([]string, 0, len(hosts)),
		status: make(map[string]*hostStatus, len(hosts)),
	}
	for _, host := range hosts {
		if _, ok := b.status[host]; ok {
			continue
		}
		b.hosts = append(b.hosts, host)
		b.status[host] = &hostStatus{Host: host}
	}
	return b
}

// Hosts returns the unique hosts on this board.
func (b *board) Hosts() []string {
	return b.hosts
}

// Start marks the specified host as being pinged.
func (b *board) Start(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[host].State = hostPinging
}

// Update the specified host's status with a new probe outcome.
func (b *board) Update(host string, resp types.Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.status[host]
	st.Transmitted++
	if resp.OK() {
		st.Received++
	}
	if st.Addr == "" {
		st.Addr = resp.Addr
	}
	st.Last = &resp
}

// Finish the specified host, optionally with its aggregate result, and an
// error if pinging it failed.
func (b *board) Finish(host string, result *types.AggregateResult, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.status[host]
	if result != nil {
		st.Result = result
		st.Addr = result.Addr
		st.Transmitted = result.PacketsTransmitted
		st.Received = result.PacketsReceived
		if n := len(result.Responses); n > 0 {
			st.Last = &result.Responses[n-1]
		}
	}
	st.Err = err
	if err != nil || st.Received == 0 {
		st.State = hostFailed
		return
	}
	st.State = hostDone
}

// Get returns a snapshot of all host statuses.
func (b *board) Get() []hostStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := make([]hostStatus, 0, len(b.hosts))
	for _, host := range b.hosts {
		snapshot = append(snapshot, *b.status[host])
	}
	return snapshot
}

// Failed returns the number of failed hosts.
func (b *board) Failed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	failed := 0
	for _, st := range b.status {
		if st.State == hostFailed {
			failed++
		}
	}
	return failed
}
