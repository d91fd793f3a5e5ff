/*
Package probe implements a callback-driven ICMP(v4/v6) probing [Engine] to be
driven by an [asyncping.Session].

An Engine sends echo requests to a single destination and reports each probe's
outcome to its observer, followed by a single [types.AggregateResult] to its
finished handler when the run ends. Probes not answered within the per-probe
timeout are reported as responses carrying [types.ErrProbeTimeout]; probes
still outstanding at the end of a run carry [types.ErrNoReply]. This way, every
probe transmitted yields exactly one response.

	pinger := probe.NewHost("localhost", probe.WithInterval(500*time.Millisecond))
	session := asyncping.New(pinger, asyncping.WithCount(5))
	result, err := session.PingResult(ctx)

Engines are single-run: once started, they cannot be started again.

To operate an Engine in a network namespace different to that of the OS-level
thread of the caller specify the [InNetworkNamespace] option and pass it a
filesystem path that must reference a network namespace (such as
"/proc/666/ns/net").

# Acknowledgements

Under its hood, [Engine] leverages [go-ping/ping] for the ICMP work and
[jellydator/ttlcache] for tracking per-probe timeouts.

[asyncping.Session]: https://pkg.go.dev/github.com/siemens/asyncping/asyncping#Session
[go-ping/ping]: https://github.com/go-ping/ping
[jellydator/ttlcache]: https://github.com/jellydator/ttlcache
*/
package probe
