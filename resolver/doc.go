/*
Package resolver implements a small A/AAAA name resolver for probing engines,
talking to a single DNS server through a size-limited pool of DNS client
connections. Queries for a single name are not concurrent: A comes first, then
AAAA.

Usage

	r, err := resolver.New(ctx, "127.0.0.11:53",
	    resolver.WithSize(2),
	    resolver.InNetworkNamespace("/proc/666/ns/net"))
	defer r.Close()
	ipaddr, err := r.Resolve(ctx, "foo.example.org")

As the DNS client connections get dialed when creating a [Resolver], passing
[InNetworkNamespace] makes all queries originate from inside the specified
network namespace, such as the one of a container with its embedded Docker
DNS resolver.

# Acknowledgements

Under its hood, [Resolver] leverages [miekg/dns] for the DNS queries and
[gammazero/workerpool] as the limiting goroutine pool.

[miekg/dns]: https://github.com/miekg/dns
[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package resolver
