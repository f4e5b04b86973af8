// Package endpoint extracts network endpoints from container runtime output.
package endpoint

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrPortParse is returned when no address:port token can be found.
var ErrPortParse = errors.New("failed to parse exposed ports")

// Endpoint is a validated host address and port.
type Endpoint struct {
	addrPort netip.AddrPort
}

// FromAddrPort wraps an already validated address and port.
func FromAddrPort(addrPort netip.AddrPort) Endpoint {
	return Endpoint{addrPort: addrPort}
}

// AddrPort returns the structured address and port.
func (e Endpoint) AddrPort() netip.AddrPort {
	return e.addrPort
}

// Addr returns the host address.
func (e Endpoint) Addr() netip.Addr {
	return e.addrPort.Addr()
}

// Port returns the host port.
func (e Endpoint) Port() uint16 {
	return e.addrPort.Port()
}

// IsValid reports whether the endpoint was produced by a successful parse.
func (e Endpoint) IsValid() bool {
	return e.addrPort.IsValid()
}

// String returns "host:port", with IPv6 hosts in brackets.
func (e Endpoint) String() string {
	return e.addrPort.String()
}

// Dialable returns the endpoint with an unspecified bind address (0.0.0.0 or
// ::) replaced by the loopback address of the same family. Other endpoints are
// returned unchanged.
func (e Endpoint) Dialable() Endpoint {
	addr := e.Addr()
	if !addr.IsUnspecified() {
		return e
	}

	loopback := netip.IPv6Loopback()
	if addr.Unmap().Is4() {
		loopback = netip.AddrFrom4([4]byte{127, 0, 0, 1})
	}

	return FromAddrPort(netip.AddrPortFrom(loopback, e.Port()))
}

// ParseFirst returns the first whitespace-separated token in text that is a
// valid IPv4 "a.b.c.d:port" or bracketed IPv6 "[addr]:port" address. Tokens
// that do not parse are skipped; scanning stops at the first one that does, so
// with dual-stack output the earliest binding wins.
//
// If no token parses, ParseFirst returns an error wrapping ErrPortParse. This
// usually means the container runtime could not be reached or the container
// never started.
func ParseFirst(text string) (Endpoint, error) {
	for _, token := range strings.Fields(text) {
		addrPort, err := netip.ParseAddrPort(token)
		if err != nil {
			continue
		}

		return FromAddrPort(addrPort), nil
	}

	return Endpoint{}, fmt.Errorf("%w from %q\nIs your docker daemon running?", ErrPortParse, text)
}
