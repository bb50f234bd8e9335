// Package clientip derives the caller's address from request metadata.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// ForwardedForHeader is the proxy header carrying the original client address.
const ForwardedForHeader = "X-Forwarded-For"

// FromRequest returns the client address of r: the first X-Forwarded-For entry
// when there is one, the host part of RemoteAddr otherwise.
func FromRequest(r *http.Request) string {
	return Pick(r.Header.Get(ForwardedForHeader), r.RemoteAddr)
}

// Pick applies the same rule to a raw forwarded-for value and a peer address.
// The first comma-separated entry wins; an empty entry falls back to peer.
func Pick(forwardedFor, peer string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return hostOnly(peer)
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
