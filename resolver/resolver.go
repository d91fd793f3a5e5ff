// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// ErrNoAnswers signals that a name resolved into neither A nor AAAA records.
var ErrNoAnswers = errors.New("no A/AAAA answers")

// Resolver resolves names into IP addresses by querying a single DNS server
// over a (size-limited) pool of DNS client connections.
type Resolver struct {
	size       int
	dnsclnt    *dns.Client
	netns      relations.Relation // network namespace to query from, or nil.
	preferIPv6 bool
	workers    *workerpool.WorkerPool

	mu   sync.Mutex // protects the pool of DNS connections
	free []*dns.Conn
}

// Option can be passed to New when creating new [Resolver] objects.
type Option func(*Resolver)

// New returns a Resolver querying the DNS server at the specified address
// ("host:port"). The passed context is used for dialing the DNS client
// connections only.
func New(ctx context.Context, server string, options ...Option) (*Resolver, error) {
	r := &Resolver{
		size:    1,
		dnsclnt: &dns.Client{Net: "udp"},
	}
	for _, opt := range options {
		opt(r)
	}
	free := make([]*dns.Conn, 0, r.size)
	dial := func() interface{} {
		for i := 0; i < r.size; i++ {
			conn, err := r.dnsclnt.DialContext(ctx, server)
			if err != nil {
				// Immediately release all connections created so far.
				for _, conn := range free {
					conn.Close()
				}
				return err
			}
			free = append(free, conn)
		}
		return nil
	}
	// Dial the connections in the requested network namespace, if necessary.
	var err error
	var dialerr interface{}
	if r.netns != nil {
		dialerr, err = ops.Execute(dial, r.netns)
	} else {
		dialerr = dial()
	}
	if err != nil {
		return nil, err
	}
	if dialerr != nil {
		return nil, fmt.Errorf("cannot dial DNS server %s: %w", server, dialerr.(error))
	}
	r.free = free
	r.workers = workerpool.New(r.size)
	return r, nil
}

// WithClient uses the specified DNS client, instead of a default UDP client.
func WithClient(dnsclnt *dns.Client) Option {
	return func(r *Resolver) {
		if dnsclnt != nil {
			r.dnsclnt = dnsclnt
		}
	}
}

// WithSize sets the number of DNS client connections and thus of concurrent
// name resolutions.
func WithSize(size int) Option {
	return func(r *Resolver) {
		if size > 0 {
			r.size = size
		}
	}
}

// InNetworkNamespace optionally dials the DNS client connections inside the
// network namespace referenced by the specified filesystem path.
func InNetworkNamespace(netnsref string) Option {
	return func(r *Resolver) {
		if netnsref == "" {
			r.netns = nil
			return
		}
		r.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// PreferIPv6 makes Resolve return an IPv6 address whenever a name resolves to
// both IPv4 and IPv6 addresses.
func PreferIPv6() Option {
	return func(r *Resolver) {
		r.preferIPv6 = true
	}
}

// Resolve the specified name into a single IP address, picking the first
// address of the preferred IP family if available.
func (r *Resolver) Resolve(ctx context.Context, name string) (*net.IPAddr, error) {
	ips, err := r.ResolveAll(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if (ip.To4() == nil) == r.preferIPv6 {
			return &net.IPAddr{IP: ip}, nil
		}
	}
	return &net.IPAddr{IP: ips[0]}, nil
}

// ResolveAll resolves the specified name into all its IPv4 and IPv6 addresses,
// with the IPv4 addresses coming first. Cancelling the passed context cancels
// the resolution if it hasn't been finished yet.
func (r *Resolver) ResolveAll(ctx context.Context, name string) ([]net.IP, error) {
	type answer struct {
		ips []net.IP
		err error
	}
	ch := make(chan answer, 1)
	r.workers.Submit(func() {
		conn := r.acquire()
		defer r.release(conn)
		ips, err := r.query(ctx, conn, name)
		ch <- answer{ips: ips, err: err}
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case a := <-ch:
		return a.ips, a.err
	}
}

// query a name for its A and AAAA records using the specified DNS client
// connection.
func (r *Resolver) query(ctx context.Context, conn *dns.Conn, name string) ([]net.IP, error) {
	fqdn := dns.Fqdn(name)
	var ips []net.IP
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		// Don't bother the DNS server when nobody is interested anymore.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := dns.Msg{
			MsgHdr: dns.MsgHdr{Id: dns.Id()},
		}
		msg.SetQuestion(fqdn, qtype)
		reply, _, err := r.dnsclnt.ExchangeWithConn(&msg, conn)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %s: %w", name, err)
		}
		for _, rr := range reply.Answer {
			switch addrRR := rr.(type) {
			case *dns.A:
				ips = append(ips, addrRR.A)
			case *dns.AAAA:
				ips = append(ips, addrRR.AAAA)
			}
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("cannot resolve %s: %w", name, ErrNoAnswers)
	}
	log.Debugf("resolved %s to %v", name, ips)
	return ips, nil
}

// acquire the next free DNS client connection. As there are as many workers
// as connections, there is always a free connection available.
func (r *Resolver) acquire() *dns.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(r.free) - 1
	conn := r.free[last]
	r.free = r.free[:last]
	return conn
}

// release a DNS client connection back into the free list.
func (r *Resolver) release(conn *dns.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.free = append(r.free, conn)
}

// Close waits for all enqueued resolutions to finish, and then closes the DNS
// client connections.
func (r *Resolver) Close() {
	r.workers.StopWait()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.free {
		conn.Close()
	}
	r.free = nil
}
