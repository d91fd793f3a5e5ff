// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/siemens/asyncping/types"

	"github.com/go-ping/ping"
	"github.com/jellydator/ttlcache/v3"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
)

// Engine is a single-run ICMP probing engine, reporting each probe's outcome
// to its observer and the final run summary to its finished handler.
type Engine struct {
	dst            types.Destination
	interval       time.Duration      // distance between probes.
	timeout        time.Duration      // per-probe timeout.
	size           int                // echo payload size, or zero for default.
	unprivileged   bool               // if true, uses UDP-based pings instead of privileged ICMPs.
	netns          relations.Relation // network namespace to ping from, or nil.
	resolver       Resolver           // optional resolver for host names.
	resolveTimeout time.Duration

	mu       sync.Mutex // protects the following fields.
	observer func(types.Response)
	finished func(types.AggregateResult)
	count    int
	started  bool
	stopped  bool
	pinger   *ping.Pinger

	emitMu      sync.Mutex                      // serializes observer calls and protects the following fields.
	addr        string                          // resolved destination address.
	pending     *ttlcache.Cache[int, time.Time] // expires unanswered probes.
	outstanding map[int]time.Time               // probes sent, but neither answered nor expired.
	transmitted int
	responses   []types.Response
	concluded   bool
}

// New returns a new Engine for probing the specified destination. The Engine
// defaults to a probe interval of 1s and a per-probe timeout of 2s, and it
// sends probes until stopped unless a target count is set using
// SetTargetCount, as asyncping sessions do when starting.
func New(dst types.Destination, options ...Option) *Engine {
	e := &Engine{
		dst:            dst,
		interval:       time.Second,
		timeout:        2 * time.Second,
		resolveTimeout: 5 * time.Second,
		outstanding:    map[int]time.Time{},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// NewHost returns a new Engine for probing the specified IP address literal or
// host name.
func NewHost(host string, options ...Option) *Engine {
	return New(types.ParseDestination(host), options...)
}

// SetObserver registers the callback receiving the individual probe outcomes.
func (e *Engine) SetObserver(fn func(types.Response)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

// SetFinished registers the callback receiving the run summary.
func (e *Engine) SetFinished(fn func(types.AggregateResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = fn
}

// SetTargetCount sets the number of probes to send; zero means unbounded. It
// has no effect on a run already started.
func (e *Engine) SetTargetCount(count int) {
	if count < 0 {
		count = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		log.Warnf("ignoring target count %d for started engine", count)
		return
	}
	e.count = count
}

// Start resolves the destination, if necessary, and then starts probing in
// the background. It returns an error if the destination cannot be resolved
// or the socket cannot be set up, as well as when the Engine was already
// started before.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return types.ErrAlreadyStarted
	}
	e.started = true
	count := e.count
	e.mu.Unlock()

	pinger, err := e.newPinger()
	if err != nil {
		return err
	}
	pinger.SetPrivileged(!e.unprivileged)
	pinger.Count = count
	pinger.Interval = e.interval
	if e.size > 0 {
		pinger.Size = e.size
	}
	if count > 0 {
		// Always limit waiting for the last probe to get answered (or not).
		pinger.Timeout = time.Duration(count)*e.interval + e.timeout
	}
	e.addr = pinger.IPAddr().String()

	unsubscribe := e.track()

	setup := make(chan struct{})
	pinger.OnSetup = func() { close(setup) }
	pinger.OnSend = e.sent
	pinger.OnRecv = e.received
	pinger.OnDuplicateRecv = func(pkt *ping.Packet) {
		log.Debugf("duplicate reply from %s, icmp_seq=%d", pkt.Addr, pkt.Seq)
	}

	e.mu.Lock()
	e.pinger = pinger
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		pinger.Stop()
	}

	// Run the pinger in the background, but wait for it to either have set up
	// its socket, or to have failed doing so.
	runerr := make(chan error, 1)
	go func() { runerr <- e.run(pinger) }()
	select {
	case <-setup:
		go func() { e.conclude(<-runerr, unsubscribe) }()
		return nil
	case err := <-runerr:
		select {
		case <-setup:
			// It started, but it failed immediately afterwards.
			go e.conclude(err, unsubscribe)
			return nil
		default:
		}
		e.pending.Stop()
		unsubscribe()
		if err == nil {
			err = errors.New("pinger ended without setting up")
		}
		return fmt.Errorf("cannot ping %s: %w", e.addr, err)
	}
}

// Stop requests the run to end early. Stop is idempotent and can be called
// from any goroutine; stopping an Engine not yet started makes its run end
// immediately after starting.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	pinger := e.pinger
	e.mu.Unlock()
	if pinger != nil {
		pinger.Stop()
	}
}

// track starts expiring unanswered probes after the per-probe timeout. The
// returned function must be called after stopping the pending cache.
func (e *Engine) track() (unsubscribe func()) {
	e.pending = ttlcache.New[int, time.Time](
		ttlcache.WithTTL[int, time.Time](e.timeout),
		ttlcache.WithDisableTouchOnHit[int, time.Time]())
	unsubscribe = e.pending.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[int, time.Time]) {
		if reason == ttlcache.EvictionReasonExpired {
			e.expired(item.Key())
		}
	})
	go e.pending.Start()
	return unsubscribe
}

// newPinger returns a new pinger for the resolved destination.
func (e *Engine) newPinger() (*ping.Pinger, error) {
	if ipaddr := e.dst.IPAddr(); ipaddr != nil {
		pinger := ping.New(ipaddr.String())
		pinger.SetIPAddr(ipaddr)
		return pinger, nil
	}
	if e.dst.Host == "" {
		return nil, errors.New("missing destination")
	}
	if e.resolver == nil {
		pinger, err := ping.NewPinger(e.dst.Host)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %s: %w", e.dst.Host, err)
		}
		return pinger, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.resolveTimeout)
	defer cancel()
	ipaddr, err := e.resolver.Resolve(ctx, e.dst.Host)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", e.dst.Host, err)
	}
	pinger := ping.New(e.dst.Host)
	pinger.SetIPAddr(ipaddr)
	return pinger, nil
}

// run the pinger until it is done, switching into the requested network
// namespace, if necessary.
func (e *Engine) run(pinger *ping.Pinger) error {
	if e.netns == nil {
		return pinger.Run()
	}
	// lxkns' ops.Execute differentiates between a namespace switching error
	// and the under switched namespaces called function result.
	res, err := ops.Execute(func() interface{} { return pinger.Run() }, e.netns)
	if err != nil {
		return err
	}
	if runerr, ok := res.(error); ok {
		return runerr
	}
	return nil
}

func (e *Engine) sent(pkt *ping.Packet) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	e.transmitted++
	e.outstanding[pkt.Seq] = time.Now()
	e.pending.Set(pkt.Seq, time.Now(), ttlcache.DefaultTTL)
}

func (e *Engine) received(pkt *ping.Packet) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if _, ok := e.outstanding[pkt.Seq]; !ok {
		log.Debugf("late reply from %s, icmp_seq=%d", pkt.Addr, pkt.Seq)
		return
	}
	delete(e.outstanding, pkt.Seq)
	e.pending.Delete(pkt.Seq)
	e.emit(types.Response{
		Bytes:  pkt.Nbytes,
		Addr:   pkt.Addr,
		Header: types.Header{TTL: pkt.Ttl, Seq: pkt.Seq},
		RTT:    pkt.Rtt,
	})
}

func (e *Engine) expired(seq int) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	e.lost(seq, types.ErrProbeTimeout)
}

// lost reports an unanswered probe. The caller must hold the emit lock.
func (e *Engine) lost(seq int, reason error) {
	if _, ok := e.outstanding[seq]; !ok {
		return
	}
	delete(e.outstanding, seq)
	e.emit(types.Response{
		Addr:   e.addr,
		Header: types.Header{Seq: seq},
		Err:    reason,
	})
}

// emit a response to the observer. The caller must hold the emit lock.
func (e *Engine) emit(resp types.Response) {
	if e.concluded {
		return
	}
	e.responses = append(e.responses, resp)
	e.mu.Lock()
	observer := e.observer
	e.mu.Unlock()
	if observer != nil {
		observer(resp)
	}
}

// conclude the run after the pinger has finished: probes still unanswered are
// reported as such, and finally the run summary.
func (e *Engine) conclude(err error, unsubscribe func()) {
	e.pending.Stop()
	unsubscribe()

	e.emitMu.Lock()
	seqs := make([]int, 0, len(e.outstanding))
	for seq := range e.outstanding {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)
	for _, seq := range seqs {
		e.lost(seq, types.ErrNoReply)
	}
	e.concluded = true
	result := summarize(e.addr, e.transmitted, e.responses)
	result.Err = err
	e.emitMu.Unlock()

	if err != nil {
		log.Errorf("pinging %s failed: %s", e.addr, err)
	}
	e.mu.Lock()
	finished := e.finished
	e.mu.Unlock()
	if finished != nil {
		finished(result)
	}
}
