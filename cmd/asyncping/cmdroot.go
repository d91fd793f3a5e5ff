// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

var (
	count         *uint
	interval      *time.Duration
	timeout       *time.Duration
	size          *uint
	once          *bool
	summary       *bool
	workerNumber  *uint
	unprivileged  *bool
	resolverAddr  *string
	preferIPv6    *bool
	netnsRef      *string
	containerName *string
	attached      *bool
	gatewayHost   *bool
	debug         *bool
)

// minPayloadSize is the smallest echo payload able to carry the timestamp and
// tracking UUID of each echo request.
const minPayloadSize = 24

// countSet is true if the user explicitly specified a probe count.
var countSet bool

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "asyncping [flags] host...",
		Short:   "asyncping pings multiple hosts concurrently, optionally from inside a container",
		Version: "0.9",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !*attached && !*gatewayHost {
				return errors.New("requires at least one host, unless using --attached or --gateway")
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if *workerNumber < 1 || *workerNumber > 64 {
				return fmt.Errorf("--workers out of range [1..64]")
			}
			if *interval < 10*time.Millisecond {
				return fmt.Errorf("--interval must be at least 10ms")
			}
			if *timeout < 10*time.Millisecond {
				return fmt.Errorf("--timeout must be at least 10ms")
			}
			if *size != 0 && (*size < minPayloadSize || *size > 65500) {
				return fmt.Errorf("--size out of range, must be 0 or [%d..65500]", minPayloadSize)
			}
			if *attached && *containerName == "" {
				return fmt.Errorf("--attached requires --container")
			}
			countSet = cmd.Flags().Changed("count")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if *debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			// From here on, errors are about pinging, not about CLI usage.
			cmd.SilenceUsage = true
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return PingAndReport(ctx, args)
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	count = flags.UintP(
		"count", "c", 0, "stop after sending count probes per host (default unbounded, or 10 with --summary)")
	interval = flags.DurationP(
		"interval", "i", time.Second, "interval between sending probes")
	timeout = flags.DurationP(
		"timeout", "W", 2*time.Second, "time to wait for each reply")
	size = flags.UintP(
		"size", "s", 0, "echo request payload size in bytes, at least 24 (default 24)")
	once = flags.Bool(
		"once", false, "send only a single probe per host")
	summary = flags.Bool(
		"summary", false, "show only the final statistics per host")
	workerNumber = flags.Uint(
		"workers", 4, "number of hosts to ping concurrently")
	unprivileged = flags.Bool(
		"unprivileged", false, "use unprivileged UDP pings instead of raw ICMP")
	resolverAddr = flags.String(
		"resolver", "", "DNS server address (host:port) to resolve host names with")
	preferIPv6 = flags.Bool(
		"prefer-ipv6", false, "prefer IPv6 addresses when resolving with --resolver")
	netnsRef = flags.String(
		"netns", "", "network namespace reference to ping from, such as /proc/666/ns/net")
	containerName = flags.String(
		"container", "", "name or ID of a Docker container to ping from")
	attached = flags.Bool(
		"attached", false, "additionally ping all names on the networks attached to --container")
	gatewayHost = flags.Bool(
		"gateway", false, "additionally ping the default gateway")
	debug = flags.Bool(
		"debug", false, "enable debugging output")

	rootCmd.MarkFlagsMutuallyExclusive("once", "summary")
	rootCmd.MarkFlagsMutuallyExclusive("once", "count")
	rootCmd.MarkFlagsMutuallyExclusive("netns", "container")
	return
}
