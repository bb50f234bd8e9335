// Package lookup resolves a query to an IP address and assembles its
// geolocation and ASN details.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TomasB/geolookup/internal/data"
	"github.com/TomasB/geolookup/internal/metrics"
	"github.com/TomasB/geolookup/internal/resolver"
	"golang.org/x/net/idna"
)

const defaultResolveTimeout = 5 * time.Second

// hostProfile is idna.Lookup without the STD3 character rules, so names with
// underscores (common in internal DNS) still reach the resolver.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.BidiRule(),
)

// Service runs the lookup pipeline. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	geo      data.Source
	asn      data.Source
	resolver resolver.Resolver
	timeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithResolveTimeout bounds each DNS resolution.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a Service reading the City database geo and the ASN
// database asn, resolving names with res.
func NewService(geo, asn data.Source, res resolver.Resolver, opts ...Option) *Service {
	s := &Service{
		geo:      geo,
		asn:      asn,
		resolver: res,
		timeout:  defaultResolveTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves query (or clientAddr when query is empty) and returns the
// details for the resulting address. Errors are *Error values.
func (s *Service) Lookup(ctx context.Context, query, clientAddr string) (*Result, error) {
	res, err := s.lookup(ctx, query, clientAddr)
	if err != nil {
		metrics.LookupsTotal.WithLabelValues(KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.LookupsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *Service) lookup(ctx context.Context, query, clientAddr string) (*Result, error) {
	resolved, original, err := s.ResolveQuery(ctx, query, clientAddr)
	if err != nil {
		return nil, err
	}

	addr, ok := parseLiteral(resolved)
	if !ok {
		// Only an unusable client address gets here; queries are validated
		// by ResolveQuery.
		return nil, &Error{Kind: InvalidTarget, Query: original}
	}

	geo, _, err := s.geo.Get(addr)
	if err != nil {
		return nil, &Error{Kind: InternalFault, Query: original, Err: fmt.Errorf("city lookup for %s: %w", resolved, err)}
	}
	asn, _, err := s.asn.Get(addr)
	if err != nil {
		return nil, &Error{Kind: InternalFault, Query: original, Err: fmt.Errorf("asn lookup for %s: %w", resolved, err)}
	}

	return &Result{
		QueryInput: original,
		ResolvedIP: resolved,
		Fields:     Extract(geo, asn),
	}, nil
}

// ResolveQuery turns query into an IP address. An empty query means the
// caller's own address, clientAddr, which is returned as is without any DNS
// lookup. Literal IPs are returned in canonical form. Anything else is
// resolved as a host name and the first address is used.
func (s *Service) ResolveQuery(ctx context.Context, query, clientAddr string) (resolvedIP, originalQuery string, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		clientAddr = strings.TrimSpace(clientAddr)
		if clientAddr == "" {
			return "", "", &Error{Kind: MissingInput}
		}
		return clientAddr, clientAddr, nil
	}

	if addr, ok := parseLiteral(query); ok {
		return addr.String(), query, nil
	}

	host, err := hostProfile.ToASCII(query)
	if err != nil {
		return "", query, &Error{Kind: InvalidTarget, Query: query, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	addr, err := s.resolver.Resolve(ctx, host)
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			slog.Debug("name not found", "query", query, "host", host)
			return "", query, &Error{Kind: InvalidTarget, Query: query, Err: err}
		}
		return "", query, &Error{Kind: ResolutionFailure, Query: query, Err: err}
	}

	slog.Debug("name resolved", "query", query, "ip", addr.String())
	return addr.String(), query, nil
}
