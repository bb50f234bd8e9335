package data

import "net/netip"

// Source defines the interface for IP-keyed record lookups.
type Source interface {
	// Get returns the record stored for ip. An address that is not in the
	// database is not an error: found is false and the record is nil.
	Get(ip netip.Addr) (rec Record, found bool, err error)
}
