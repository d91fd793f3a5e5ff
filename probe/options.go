// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"net"
	"time"

	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/species"
)

// Resolver resolves host names into IP addresses, such as
// [github.com/siemens/asyncping/resolver.Resolver] does.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*net.IPAddr, error)
}

// Option can be passed to New when creating new Engine objects.
type Option func(*Engine)

// WithInterval sets the interval between consecutive probes.
func WithInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithTimeout sets the time to wait for the reply to an individual probe
// before reporting the probe as timed out.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithSize sets the size of the echo request payload in bytes.
func WithSize(size uint) Option {
	return func(e *Engine) {
		e.size = int(size)
	}
}

// AsUnprivileged tells the Engine to carry out unprivileged pings using UDP
// instead of ICMP packets.
func AsUnprivileged() Option {
	return func(e *Engine) {
		e.unprivileged = true
	}
}

// InNetworkNamespace optionally runs an Engine inside the network namespace
// referenced by the specified filesystem path. An empty path leaves the Engine
// in the caller's network namespace.
func InNetworkNamespace(netnsref string) Option {
	return func(e *Engine) {
		if netnsref == "" {
			e.netns = nil
			return
		}
		e.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithResolver resolves the destination host name using the specified
// Resolver, instead of the system's resolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}
