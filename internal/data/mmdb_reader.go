package data

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

// Edition names the kind of MaxMind database a reader expects.
type Edition string

const (
	EditionCity Edition = "City"
	EditionASN  Edition = "ASN"
)

// ErrWrongEdition is returned when a database cannot answer the lookups of
// the requested edition, e.g. an ASN file configured as the city database.
var ErrWrongEdition = errors.New("wrong database edition")

// probeIP is only used to ask the typed reader whether a method is supported.
var probeIP = net.IPv4(1, 1, 1, 1)

// MmdbReader implements Source using a MaxMind MMDB file.
type MmdbReader struct {
	db *maxminddb.Reader
}

// NewMmdbReader opens the MMDB file at the given path and checks that it is a
// database of the given edition.
func NewMmdbReader(path string, edition Edition) (*MmdbReader, error) {
	if err := checkEdition(path, edition); err != nil {
		return nil, err
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MMDB file: %w", err)
	}
	return &MmdbReader{db: db}, nil
}

// checkEdition lets geoip2 decide whether the file supports the typed lookup
// that matches edition; it knows which database types carry which records.
func checkEdition(path string, edition Edition) error {
	typed, err := geoip2.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open MMDB file: %w", err)
	}
	defer typed.Close()

	switch edition {
	case EditionCity:
		_, err = typed.City(probeIP)
	case EditionASN:
		_, err = typed.ASN(probeIP)
	default:
		return fmt.Errorf("unknown edition %q", edition)
	}

	var invalid geoip2.InvalidMethodError
	if errors.As(err, &invalid) {
		return fmt.Errorf("%w: %s database cannot serve %s lookups", ErrWrongEdition, typed.Metadata().DatabaseType, edition)
	}
	if err != nil {
		return fmt.Errorf("probe lookup failed: %w", err)
	}
	return nil
}

// Get returns the decoded record for ip.
func (r *MmdbReader) Get(ip netip.Addr) (Record, bool, error) {
	var rec Record
	_, found, err := r.db.LookupNetwork(net.IP(ip.AsSlice()), &rec)
	if err != nil {
		return nil, false, fmt.Errorf("record lookup failed: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return rec, true, nil
}

// DatabaseType returns the database_type from the file metadata.
func (r *MmdbReader) DatabaseType() string {
	return r.db.Metadata.DatabaseType
}

// Close releases the MMDB reader resources.
func (r *MmdbReader) Close() error {
	return r.db.Close()
}
