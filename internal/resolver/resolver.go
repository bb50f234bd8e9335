// Package resolver turns host names into IP addresses.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ErrNotFound means the name does not exist or has no address records.
// Any other resolution error is an infrastructure failure.
var ErrNotFound = errors.New("no such host")

// Resolver resolves a host name to a single address.
type Resolver interface {
	// Resolve returns the first address found for host.
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}

// System resolves through a net.Resolver, by default the one the Go runtime
// configures from the host (resolv.conf, hosts file).
type System struct {
	r *net.Resolver
}

// NewSystem returns a System using net.DefaultResolver.
func NewSystem() *System {
	return &System{r: net.DefaultResolver}
}

// NewSystemWith returns a System using r.
func NewSystemWith(r *net.Resolver) *System {
	return &System{r: r}
}

// Resolve looks up both address families and returns the first result.
func (s *System) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	addrs, err := s.r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotFound, host)
		}
		return netip.Addr{}, err
	}
	if len(addrs) == 0 {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotFound, host)
	}
	return addrs[0].Unmap(), nil
}
