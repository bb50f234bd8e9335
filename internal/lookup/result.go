package lookup

// Placeholders substituted for absent fields.
const (
	NotAvailable = "N/A"
	NotFound     = "Not Found"
)

// Fields is the data extracted from the geo and ASN records. Latitude,
// Longitude and ASN hold a number when the database has one and the
// NotAvailable placeholder otherwise.
type Fields struct {
	CountryName     string `json:"country_name"`
	ISOCode         string `json:"iso_code"`
	CityName        string `json:"city_name"`
	SubdivisionName string `json:"subdivision_name"`
	PostalCode      string `json:"postal_code"`
	Latitude        any    `json:"latitude"`
	Longitude       any    `json:"longitude"`
	ASN             any    `json:"asn"`
	ASNOrganization string `json:"asn_organization"`
}

// Result is the response for one lookup.
type Result struct {
	QueryInput string `json:"query_input"`
	ResolvedIP string `json:"resolved_ip"`
	Fields
}

// Map returns the result keyed by its JSON field names.
func (r *Result) Map() map[string]any {
	return map[string]any{
		"query_input":      r.QueryInput,
		"resolved_ip":      r.ResolvedIP,
		"country_name":     r.CountryName,
		"iso_code":         r.ISOCode,
		"city_name":        r.CityName,
		"subdivision_name": r.SubdivisionName,
		"postal_code":      r.PostalCode,
		"latitude":         r.Latitude,
		"longitude":        r.Longitude,
		"asn":              r.ASN,
		"asn_organization": r.ASNOrganization,
	}
}
