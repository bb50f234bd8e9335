package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// errNoData is a NOERROR answer without records of the asked type. The name
// exists, so other record types are still worth asking for.
var errNoData = fmt.Errorf("%w: no address records", ErrNotFound)

// Upstream resolves by querying one DNS server directly.
type Upstream struct {
	server string
	client *dns.Client
}

// NewUpstream returns a resolver that sends queries to server. A server
// without a port gets port 53.
func NewUpstream(server string, timeout time.Duration) *Upstream {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &Upstream{
		server: server,
		client: &dns.Client{Timeout: timeout},
	}
}

// Server returns the host:port queries are sent to.
func (u *Upstream) Server() string {
	return u.server
}

// Resolve asks for A records first and falls back to AAAA when the name has
// no IPv4 address.
func (u *Upstream) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	addr, err := u.query(ctx, host, dns.TypeA)
	if !errors.Is(err, errNoData) {
		return addr, err
	}
	return u.query(ctx, host, dns.TypeAAAA)
}

func (u *Upstream) query(ctx context.Context, host string, qtype uint16) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)

	resp, _, err := u.client.ExchangeContext(ctx, msg, u.server)
	if err == nil && resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: u.client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, u.server)
	}
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%s query for %s via %s: %w", dns.TypeToString[qtype], host, u.server, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotFound, host)
	default:
		return netip.Addr{}, fmt.Errorf("%s query for %s via %s: server answered %s",
			dns.TypeToString[qtype], host, u.server, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		var ip net.IP
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A
		case *dns.AAAA:
			ip = rec.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, errNoData
}
