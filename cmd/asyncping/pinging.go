// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/siemens/asyncping/asyncping"
	"github.com/siemens/asyncping/mobyns"
	"github.com/siemens/asyncping/probe"
	"github.com/siemens/asyncping/resolver"

	"github.com/docker/docker/client"
	"github.com/gammazero/workerpool"
	"github.com/gosuri/uilive"
	"github.com/jackpal/gateway"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/term"
)

// newDockerClient returns a Docker client for the daemon's default API socket
// on the local host.
func newDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(
		client.WithHost(client.DefaultDockerHost),
		client.WithAPIVersionNegotiation(),
	)
}

// PingAndReport pings the specified hosts, a limited number of hosts at any
// time, while rendering their live status to the terminal. When pinging from
// inside a container, the hosts can be extended by the names of all other
// containers on the networks attached to that container.
func PingAndReport(ctx context.Context, hosts []string) error {
	netnsref := *netnsRef
	dnsserver := *resolverAddr
	if *containerName != "" {
		cln, err := newDockerClient()
		if err != nil {
			return fmt.Errorf("cannot connect to the Docker daemon: %w", err)
		}
		defer cln.Close()
		if *attached {
			networks, ref, err := mobyns.AttachedNames(ctx, cln, *containerName)
			if err != nil {
				return fmt.Errorf("cannot discover attached networks and their containers: %w", err)
			}
			hosts = append(hosts, mobyns.Names(networks)...)
			netnsref = ref
		} else {
			netnsref, err = mobyns.NetnsRef(ctx, cln, *containerName)
			if err != nil {
				return err
			}
		}
		// Container names are only known to Docker's embedded resolver.
		if dnsserver == "" {
			dnsserver = mobyns.EmbeddedDNS
		}
	}
	if *gatewayHost {
		gw, err := gateway.DiscoverGateway()
		if err != nil {
			return fmt.Errorf("cannot discover default gateway: %w", err)
		}
		hosts = append(hosts, gw.String())
	}
	if len(hosts) == 0 {
		return errors.New("no hosts to ping")
	}

	options := []probe.Option{
		probe.WithInterval(*interval),
		probe.WithTimeout(*timeout),
		probe.WithSize(*size),
		probe.InNetworkNamespace(netnsref),
	}
	if *unprivileged {
		options = append(options, probe.AsUnprivileged())
	}
	if dnsserver != "" {
		ropts := []resolver.Option{
			resolver.WithSize(int(*workerNumber)),
			resolver.InNetworkNamespace(netnsref),
		}
		if *preferIPv6 {
			ropts = append(ropts, resolver.PreferIPv6())
		}
		r, err := resolver.New(ctx, dnsserver, ropts...)
		if err != nil {
			return err
		}
		defer r.Close()
		options = append(options, probe.WithResolver(r))
	}

	b := newBoard(hosts)
	// Dunno what uilive's background updating mode using Start() is good for?
	// It may trigger anytime with the rendering into the buffer not yet
	// complete, thus making the terminal output very flickery. So we avoid
	// Start() and instead trigger an explicit flush to the terminal after
	// having completed the rendering. When not writing to a terminal, we
	// render only once at the end.
	pingingDone := make(chan struct{})
	renderingDone := make(chan struct{})
	if term.IsTerminal(int(os.Stdout.Fd())) {
		live := uilive.New()
		go func() {
			defer close(renderingDone)
			renderLive(live, newRenderer(live), b, pingingDone, 50*time.Millisecond)
		}()
	} else {
		go func() {
			defer close(renderingDone)
			<-pingingDone
			newRenderer(os.Stdout).Render(b.Get())
		}()
	}

	pool := workerpool.New(int(*workerNumber))
	for _, host := range b.Hosts() {
		pool.Submit(func() {
			pingHost(ctx, b, host, options)
		})
	}
	pool.StopWait()
	close(pingingDone)
	<-renderingDone

	if *summary {
		reportSummaries(os.Stdout, b)
	}
	if failed := b.Failed(); failed > 0 {
		return fmt.Errorf("pinging failed for %d out of %d hosts", failed, len(b.Hosts()))
	}
	return nil
}

// pingHost pings a single host, updating its status on the specified board.
func pingHost(ctx context.Context, b *board, host string, options []probe.Option) {
	var sopts []asyncping.Option
	if countSet {
		sopts = append(sopts, asyncping.WithCount(*count))
	}
	session := asyncping.New(probe.NewHost(host, options...), sopts...)
	b.Start(host)
	log.Debugf("pinging %s", host)

	if *summary {
		result, err := session.PingResult(ctx)
		b.Finish(host, &result, err)
		return
	}
	var stream *asyncping.Stream
	if *once {
		stream = session.PingOnce(ctx)
	} else {
		stream = session.Ping(ctx)
	}
	for resp, err := range stream.All() {
		if err != nil {
			// Interrupting is just another way of ending.
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			b.Finish(host, nil, err)
			return
		}
		b.Update(host, resp)
	}
	b.Finish(host, nil, nil)
}

// renderLive renders the board at the specified interval until done gets
// closed, followed by a final rendering.
func renderLive(live *uilive.Writer, r *renderer, b *board, done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r.Render(b.Get())
		live.Flush()
		select {
		case <-ticker.C:
		case <-done:
			r.Render(b.Get())
			live.Flush()
			return
		}
	}
}

// reportSummaries renders the final statistics for all hosts.
func reportSummaries(w io.Writer, b *board) {
	for idx, st := range b.Get() {
		if idx > 0 {
			fmt.Fprintln(w)
		}
		renderSummary(w, st)
	}
}
