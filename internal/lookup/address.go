package lookup

import "net/netip"

// IsLiteralIP reports whether s is an IPv4 or IPv6 address in textual form.
// Shorthand IPv4 ("1.2.3") and zoned IPv6 ("fe80::1%eth0") are rejected.
func IsLiteralIP(s string) bool {
	_, ok := parseLiteral(s)
	return ok
}

func parseLiteral(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, false
	}
	return addr, true
}
