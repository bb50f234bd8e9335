package lookup

import "github.com/TomasB/geolookup/internal/data"

// Extract pulls the response fields out of a City record and an ASN record.
// Either record may be nil or sparse; every missing or mistyped value becomes
// its placeholder, so Extract never fails.
func Extract(geo, asn data.Record) Fields {
	return Fields{
		CountryName:     data.PathOr(geo, NotFound, "country", "names", "en"),
		ISOCode:         data.PathOr(geo, NotAvailable, "country", "iso_code"),
		CityName:        data.PathOr(geo, NotAvailable, "city", "names", "en"),
		SubdivisionName: data.PathOr(geo, NotAvailable, "subdivisions", 0, "names", "en"),
		PostalCode:      data.PathOr(geo, NotAvailable, "postal", "code"),
		Latitude:        coordinate(geo, "latitude"),
		Longitude:       coordinate(geo, "longitude"),
		ASN:             asNumber(asn),
		ASNOrganization: data.PathOr(asn, NotAvailable, "autonomous_system_organization"),
	}
}

func coordinate(geo data.Record, axis string) any {
	v, ok := data.Path[any](geo, "location", axis)
	if !ok {
		return NotAvailable
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	}
	return NotAvailable
}

func asNumber(asn data.Record) any {
	v, ok := data.Path[any](asn, "autonomous_system_number")
	if !ok {
		return NotAvailable
	}
	switch n := v.(type) {
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case uint:
		return uint64(n)
	}
	return NotAvailable
}
