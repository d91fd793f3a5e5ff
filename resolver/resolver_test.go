// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/miekg/dns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/namspill"
	. "github.com/thediveo/success"
)

var zone = map[uint16]map[string]string{
	dns.TypeA: {
		"foo.example.org.": "foo.example.org. 60 IN A 192.0.2.42",
	},
	dns.TypeAAAA: {
		"foo.example.org.":    "foo.example.org. 60 IN AAAA 2001:db8::42",
		"v6only.example.org.": "v6only.example.org. 60 IN AAAA 2001:db8::666",
	},
}

// startDNSServer starts a DNS server on a random loopback UDP port, answering
// from our small test zone, and returns its address.
func startDNSServer() string {
	GinkgoHelper()
	pc := Successful(net.ListenPacket("udp", "127.0.0.1:0"))
	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			reply := new(dns.Msg)
			reply.SetReply(req)
			q := req.Question[0]
			if rrtext, ok := zone[q.Qtype][q.Name]; ok {
				reply.Answer = append(reply.Answer, Successful(dns.NewRR(rrtext)))
			}
			_ = w.WriteMsg(reply)
		}),
	}
	go func() { _ = server.ActivateAndServe() }()
	Eventually(started).Should(BeClosed())
	DeferCleanup(func() { _ = server.Shutdown() })
	return pc.LocalAddr().String()
}

var _ = Describe("resolver", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Tasks()).To(BeUniformlyNamespaced())
		})
	})

	It("resolves all addresses", NodeTimeout(10*time.Second), func(ctx context.Context) {
		r := Successful(New(ctx, startDNSServer(), WithSize(2)))
		defer r.Close()
		ips := Successful(r.ResolveAll(ctx, "foo.example.org"))
		Expect(ips).To(HaveExactElements(
			WithTransform(net.IP.String, Equal("192.0.2.42")),
			WithTransform(net.IP.String, Equal("2001:db8::42"))))
	})

	DescribeTable("picks an address of the preferred family",
		func(ctx context.Context, name string, options []Option, expected string) {
			r := Successful(New(ctx, startDNSServer(), options...))
			defer r.Close()
			Expect(Successful(r.Resolve(ctx, name)).String()).To(Equal(expected))
		},
		Entry("IPv4 by default", NodeTimeout(10*time.Second),
			"foo.example.org", []Option(nil), "192.0.2.42"),
		Entry("IPv6 when preferred", NodeTimeout(10*time.Second),
			"foo.example.org", []Option{PreferIPv6()}, "2001:db8::42"),
		Entry("IPv6 when there is nothing else", NodeTimeout(10*time.Second),
			"v6only.example.org.", []Option(nil), "2001:db8::666"),
	)

	It("reports names without answers", NodeTimeout(10*time.Second), func(ctx context.Context) {
		r := Successful(New(ctx, startDNSServer(), WithClient(&dns.Client{Net: "udp"})))
		defer r.Close()
		_, err := r.Resolve(ctx, "tld.rottennet")
		Expect(err).To(MatchError(ErrNoAnswers))
	})

	It("reports resolution failures", NodeTimeout(10*time.Second), func(ctx context.Context) {
		r := Successful(New(ctx, "127.0.0.1:1", WithClient(&dns.Client{
			Net:         "udp",
			ReadTimeout: 500 * time.Millisecond,
		})))
		defer r.Close()
		_, err := r.Resolve(ctx, "foo.example.org")
		Expect(err).To(HaveOccurred())
	})

	It("gives up on cancelled contexts", NodeTimeout(10*time.Second), func(ctx context.Context) {
		r := Successful(New(ctx, startDNSServer()))
		defer r.Close()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.ResolveAll(cctx, "foo.example.org")
		Expect(err).To(MatchError(context.Canceled))
	})

	It("resolves from inside a network namespace", NodeTimeout(10*time.Second), func(ctx context.Context) {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
		r := Successful(New(ctx, startDNSServer(), InNetworkNamespace("/proc/self/ns/net")))
		defer r.Close()
		Expect(Successful(r.Resolve(ctx, "foo.example.org")).String()).To(Equal("192.0.2.42"))
	})

})
