// Package mmdbtest writes small GeoLite2-style databases for tests.
package mmdbtest

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
)

// Database types accepted by the geoip2 readers.
const (
	CityType = "GeoLite2-City"
	ASNType  = "GeoLite2-ASN"
)

// Write builds a database of the given type holding records keyed by CIDR and
// writes it to path.
func Write(t testing.TB, path, databaseType string, records map[string]mmdbtype.Map) string {
	t.Helper()

	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType: databaseType,
		RecordSize:   24,
	})
	if err != nil {
		t.Fatalf("failed to create %s tree: %v", databaseType, err)
	}

	for cidr, rec := range records {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			t.Fatalf("bad fixture network %q: %v", cidr, err)
		}
		if err := tree.Insert(network, rec); err != nil {
			t.Fatalf("failed to insert %s: %v", cidr, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := tree.WriteTo(f); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// City writes GeoLite2-City.mmdb into dir.
//
//	81.2.69.142/31    GB, London, England
//	216.160.83.56/29  US, Milton, Washington, 98354
//	2001:218::/32     JP, country only
func City(t testing.TB, dir string) string {
	t.Helper()
	return Write(t, filepath.Join(dir, "GeoLite2-City.mmdb"), CityType, map[string]mmdbtype.Map{
		"81.2.69.142/31": {
			"country": country("GB", "United Kingdom"),
			"city":    named("London"),
			"subdivisions": mmdbtype.Slice{
				mmdbtype.Map{
					"iso_code": mmdbtype.String("ENG"),
					"names":    names("England"),
				},
			},
			"location": location(51.5142, -0.0931),
		},
		"216.160.83.56/29": {
			"country": country("US", "United States"),
			"city":    named("Milton"),
			"subdivisions": mmdbtype.Slice{
				mmdbtype.Map{
					"iso_code": mmdbtype.String("WA"),
					"names":    names("Washington"),
				},
			},
			"postal":   mmdbtype.Map{"code": mmdbtype.String("98354")},
			"location": location(47.2513, -122.3149),
		},
		"2001:218::/32": {
			"country": country("JP", "Japan"),
		},
	})
}

// ASN writes GeoLite2-ASN.mmdb into dir.
//
//	1.128.0.0/11   1221 Telstra Pty Ltd
//	81.2.69.0/24   20712 Andrews & Arnold Ltd
//	2001:218::/32  2914, no organization
func ASN(t testing.TB, dir string) string {
	t.Helper()
	return Write(t, filepath.Join(dir, "GeoLite2-ASN.mmdb"), ASNType, map[string]mmdbtype.Map{
		"1.128.0.0/11": {
			"autonomous_system_number":       mmdbtype.Uint32(1221),
			"autonomous_system_organization": mmdbtype.String("Telstra Pty Ltd"),
		},
		"81.2.69.0/24": {
			"autonomous_system_number":       mmdbtype.Uint32(20712),
			"autonomous_system_organization": mmdbtype.String("Andrews & Arnold Ltd"),
		},
		"2001:218::/32": {
			"autonomous_system_number": mmdbtype.Uint32(2914),
		},
	})
}

func names(en string) mmdbtype.Map {
	return mmdbtype.Map{"en": mmdbtype.String(en)}
}

func named(en string) mmdbtype.Map {
	return mmdbtype.Map{"names": names(en)}
}

func country(iso, en string) mmdbtype.Map {
	return mmdbtype.Map{
		"iso_code": mmdbtype.String(iso),
		"names":    names(en),
	}
}

func location(lat, lon float64) mmdbtype.Map {
	return mmdbtype.Map{
		"latitude":  mmdbtype.Float64(lat),
		"longitude": mmdbtype.Float64(lon),
	}
}
