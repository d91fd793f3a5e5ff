// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/siemens/asyncping/types"
)

// renderer renders the live terminal display of the pinging status of
// multiple hosts, based on the host status information passed to its Render
// method.
type renderer struct {
	Indentation int
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a renderer rendering to the specified io.Writer.
func newRenderer(w io.Writer) *renderer {
	return &renderer{
		Indentation: 2,
		w:           w,
		spinner:     newSpinner(100 * time.Millisecond),
	}
}

// Render the given host statuses, one line per host.
func (r *renderer) Render(statuses []hostStatus) {
	if len(statuses) == 0 {
		fmt.Fprintln(r.w, "looking for hosts to ping...")
		return
	}
	// For neat display, determine the lengths of the longest host name and
	// address, so that the columns don't zig-zag around.
	hostwidth, addrwidth := 0, 0
	for _, st := range statuses {
		hostwidth = max(hostwidth, len(st.Host))
		addrwidth = max(addrwidth, len(st.Addr))
	}
	fmt.Fprintf(r.w, "pinging %d hosts\n", len(statuses))
	for _, st := range statuses {
		r.renderHost(hostwidth, addrwidth, st)
	}
}

// renderHost renders a single host status line.
func (r *renderer) renderHost(hostwidth, addrwidth int, st hostStatus) {
	fmt.Fprintf(r.w, "%-*s%s %-*s",
		r.Indentation, "",
		hostNameStyle.Styled(fmt.Sprintf("%-*s", hostwidth, st.Host)),
		addrwidth, st.Addr)
	switch st.State {
	case hostPending:
		fmt.Fprint(r.w, "   waiting")
	case hostPinging:
		fmt.Fprint(r.w, pingingStyle.Styled(" "+r.spinner.Spinner()))
	case hostDone:
		fmt.Fprint(r.w, repliedStyle.Styled(" ✔ "))
	case hostFailed:
		fmt.Fprint(r.w, lostStyle.Styled(" × "))
	}
	if st.Transmitted > 0 {
		fmt.Fprintf(r.w, " %d/%d", st.Received, st.Transmitted)
	}
	switch {
	case st.Err != nil:
		fmt.Fprint(r.w, " "+lostStyle.Styled(st.Err.Error()))
	case st.Last == nil:
	case st.Last.OK():
		fmt.Fprintf(r.w, " icmp_seq=%d ttl=%d time=%s",
			st.Last.Header.Seq, st.Last.Header.TTL, millis(st.Last.RTT))
	default:
		fmt.Fprintf(r.w, " icmp_seq=%d %s",
			st.Last.Header.Seq, lostStyle.Styled(st.Last.Err.Error()))
	}
	fmt.Fprintln(r.w)
}

// renderSummary renders ping(8)-like final statistics for a host.
func renderSummary(w io.Writer, st hostStatus) {
	fmt.Fprintf(w, "--- %s ping statistics ---\n", st.Host)
	if st.Err != nil && st.Transmitted == 0 {
		fmt.Fprintf(w, "%s\n", st.Err)
		return
	}
	loss := 0.0
	if st.Result != nil {
		loss = st.Result.PacketLoss
	} else if st.Transmitted > 0 {
		loss = float64(st.Transmitted-st.Received) / float64(st.Transmitted)
	}
	fmt.Fprintf(w, "%d packets transmitted, %d received, %.4g%% packet loss\n",
		st.Transmitted, st.Received, loss*100)
	if st.Result != nil && st.Result.RoundTrip != nil {
		fmt.Fprintf(w, "rtt min/avg/max/mdev = %s\n", roundTrip(st.Result.RoundTrip))
	}
	if st.Err != nil {
		fmt.Fprintf(w, "%s\n", st.Err)
	}
}

func roundTrip(rt *types.RoundTrip) string {
	return fmt.Sprintf("%.3f/%.3f/%.3f/%.3f ms",
		ms(rt.Min), ms(rt.Avg), ms(rt.Max), ms(rt.StdDev))
}

// millis returns the specified duration in milliseconds, ping(8)-style.
func millis(d time.Duration) string {
	return fmt.Sprintf("%.3g ms", ms(d))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
