package clientip

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// Proxies is the set of peers whose X-Forwarded-For header is believed. A nil
// *Proxies trusts nobody.
type Proxies struct {
	set *netipx.IPSet
}

// ParseProxies parses a comma-separated list of addresses and CIDR prefixes.
// An empty list yields nil.
func ParseProxies(list string) (*Proxies, error) {
	var b netipx.IPSetBuilder
	n := 0
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			b.AddPrefix(p.Masked())
		} else {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			b.Add(addr.Unmap())
		}
		n++
	}
	if n == 0 {
		return nil, nil
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	return &Proxies{set: set}, nil
}

// Trusts reports whether peer, a host without port, is a trusted proxy.
func (p *Proxies) Trusts(peer string) bool {
	if p == nil {
		return false
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	return p.set.Contains(addr.Unmap())
}

// Peer returns the host part of r.RemoteAddr.
func Peer(r *http.Request) string {
	return hostOnly(r.RemoteAddr)
}

// Verified returns the client address of r for decisions a client must not
// be able to influence: the first X-Forwarded-For entry when the peer is a
// trusted proxy, the peer otherwise.
func (p *Proxies) Verified(r *http.Request) string {
	peer := Peer(r)
	if !p.Trusts(peer) {
		return peer
	}
	return Pick(r.Header.Get(ForwardedForHeader), r.RemoteAddr)
}
