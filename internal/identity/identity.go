// Package identity derives the anonymous caller identity used by the claim gate.
//
// The forwarding headers read here are client-controlled unless an upstream proxy
// strips and resets them. Deployments must terminate traffic at such a proxy.
package identity

import (
	"net/http"
	"net/netip"
	"strings"
)

// AddressHeaders lists the transport headers consulted, in order of preference.
var AddressHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"X-Client-IP",
}

// ClientAddress returns the first valid IP literal found in AddressHeaders.
// For comma-separated chains only the first hop is considered.
func ClientAddress(h http.Header) (string, bool) {
	for _, name := range AddressHeaders {
		value := h.Get(name)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if addr, ok := ParseAddress(first); ok {
			return addr, true
		}
	}
	return "", false
}

// ParseAddress validates an IPv4 or IPv6 literal and returns its canonical form.
// Zoned addresses, ports and hostnames are rejected.
func ParseAddress(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return "", false
	}
	return addr.String(), true
}

// IsValidAddress reports whether s is a well-formed IPv4 or IPv6 literal.
func IsValidAddress(s string) bool {
	_, ok := ParseAddress(s)
	return ok
}
