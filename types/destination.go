// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"net"
	"strings"
)

// Destination describes where to send probes to: either an IP address
// (optionally with an IPv6 zone), or a host name still needing resolution.
// If IP is set, Host is ignored.
type Destination struct {
	Host string `json:"host,omitempty"` // DNS name to be resolved, unless IP is set.
	IP   net.IP `json:"ip,omitempty"`   // raw IP address.
	Zone string `json:"zone,omitempty"` // IPv6 scoped addressing zone.
}

// HostDestination returns a Destination referencing a host name.
func HostDestination(host string) Destination {
	return Destination{Host: host}
}

// IPDestination returns a Destination referencing a raw IP address.
func IPDestination(ip net.IP) Destination {
	return Destination{IP: ip}
}

// ParseDestination returns an IP address Destination if s is an IP address
// literal, optionally in "addr%zone" notation, and otherwise a host name
// Destination.
func ParseDestination(s string) Destination {
	addr, zone, _ := strings.Cut(s, "%")
	if ip := net.ParseIP(addr); ip != nil {
		return Destination{IP: ip, Zone: zone}
	}
	return Destination{Host: s}
}

// IsResolved returns true if the Destination already is an IP address.
func (d Destination) IsResolved() bool { return d.IP != nil }

// IPAddr returns the Destination as an IP address, or nil if it still needs
// resolution.
func (d Destination) IPAddr() *net.IPAddr {
	if d.IP == nil {
		return nil
	}
	return &net.IPAddr{IP: d.IP, Zone: d.Zone}
}

// String returns the textual representation of the Destination.
func (d Destination) String() string {
	if d.IP != nil {
		return d.IPAddr().String()
	}
	return d.Host
}
