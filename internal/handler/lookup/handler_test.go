package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/TomasB/geolookup/internal/data"
	geolookup "github.com/TomasB/geolookup/internal/lookup"
	"github.com/TomasB/geolookup/internal/resolver"
	"github.com/gin-gonic/gin"
)

// mockLooker implements Looker and records what it was called with.
type mockLooker struct {
	result *geolookup.Result
	err    error

	query      string
	clientAddr string
}

func (m *mockLooker) Lookup(_ context.Context, query, clientAddr string) (*geolookup.Result, error) {
	m.query, m.clientAddr = query, clientAddr
	return m.result, m.err
}

// mapSource implements data.Source over a map.
type mapSource map[netip.Addr]data.Record

func (m mapSource) Get(ip netip.Addr) (data.Record, bool, error) {
	rec, ok := m[ip]
	return rec, ok, nil
}

// nxResolver implements resolver.Resolver and knows no names.
type nxResolver struct{}

func (nxResolver) Resolve(_ context.Context, host string) (netip.Addr, error) {
	return netip.Addr{}, fmt.Errorf("%w: %s", resolver.ErrNotFound, host)
}

func setupRouter(looker Looker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(looker)
	r.GET("/lookup_detailed", h.LookupDetailed)
	r.POST("/lookup_detailed", h.LookupDetailed)
	return r
}

func setupServiceRouter() *gin.Engine {
	geo := mapSource{
		netip.MustParseAddr("1.1.1.1"): {
			"country": map[string]any{"iso_code": "AU", "names": map[string]any{"en": "Australia"}},
		},
	}
	asn := mapSource{
		netip.MustParseAddr("1.1.1.1"): {
			"autonomous_system_number":       uint64(13335),
			"autonomous_system_organization": "CLOUDFLARENET",
		},
	}
	return setupRouter(geolookup.NewService(geo, asn, nxResolver{}))
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestLookupDetailed_LiteralIP(t *testing.T) {
	router := setupServiceRouter()

	w := serve(router, httptest.NewRequest(http.MethodGet, "/lookup_detailed?query=1.1.1.1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	if body["resolved_ip"] != "1.1.1.1" {
		t.Errorf("expected resolved_ip 1.1.1.1, got %v", body["resolved_ip"])
	}
	if body["query_input"] != "1.1.1.1" {
		t.Errorf("expected query_input 1.1.1.1, got %v", body["query_input"])
	}
	if body["country_name"] != "Australia" {
		t.Errorf("expected country_name Australia, got %v", body["country_name"])
	}
	if body["asn"] != float64(13335) {
		t.Errorf("expected numeric asn 13335, got %v (%T)", body["asn"], body["asn"])
	}
	if len(body) != 11 {
		t.Errorf("expected 11 fields, got %d: %v", len(body), body)
	}
}

func TestLookupDetailed_PeerFallback(t *testing.T) {
	router := setupServiceRouter()

	req := httptest.NewRequest(http.MethodGet, "/lookup_detailed", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	w := serve(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["resolved_ip"] != "203.0.113.7" {
		t.Errorf("expected resolved_ip 203.0.113.7, got %v", body["resolved_ip"])
	}
	if body["country_name"] != "Not Found" {
		t.Errorf("expected country_name Not Found, got %v", body["country_name"])
	}
	if body["latitude"] != "N/A" {
		t.Errorf("expected latitude N/A, got %v", body["latitude"])
	}
}

func TestLookupDetailed_ForwardedFor(t *testing.T) {
	looker := &mockLooker{result: &geolookup.Result{}}
	router := setupRouter(looker)

	req := httptest.NewRequest(http.MethodGet, "/lookup_detailed", nil)
	req.RemoteAddr = "10.0.0.2:8000"
	req.Header.Set("X-Forwarded-For", " 198.51.100.9 , 10.0.0.1")
	serve(router, req)

	if looker.clientAddr != "198.51.100.9" {
		t.Errorf("expected client 198.51.100.9, got %q", looker.clientAddr)
	}
	if looker.query != "" {
		t.Errorf("expected empty query, got %q", looker.query)
	}
}

func TestLookupDetailed_UnknownDomain(t *testing.T) {
	router := setupServiceRouter()

	w := serve(router, httptest.NewRequest(http.MethodGet, "/lookup_detailed?query=not-a-real-domain-xyz", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.Error, "not-a-real-domain-xyz") {
		t.Errorf("expected error to mention the query, got %q", resp.Error)
	}
}

func TestLookupDetailed_PostBody(t *testing.T) {
	looker := &mockLooker{result: &geolookup.Result{QueryInput: "example.com"}}
	router := setupRouter(looker)

	body, _ := json.Marshal(LookupRequest{Query: "example.com"})
	req := httptest.NewRequest(http.MethodPost, "/lookup_detailed?query=ignored.example", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if looker.query != "example.com" {
		t.Errorf("expected query from body, got %q", looker.query)
	}
}

func TestLookupDetailed_PostMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not json", "query=1.1.1.1"},
		{"wrong type", `{"query": 42}`},
		{"no field", `{"q": "1.1.1.1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			looker := &mockLooker{result: &geolookup.Result{}}
			router := setupRouter(looker)

			req := httptest.NewRequest(http.MethodPost, "/lookup_detailed", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.RemoteAddr = "203.0.113.7:1"
			w := serve(router, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if looker.query != "" {
				t.Errorf("expected absent query, got %q", looker.query)
			}
			if looker.clientAddr != "203.0.113.7" {
				t.Errorf("expected client 203.0.113.7, got %q", looker.clientAddr)
			}
		})
	}
}

func TestLookupDetailed_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing input", &geolookup.Error{Kind: geolookup.MissingInput}, http.StatusBadRequest},
		{"invalid target", &geolookup.Error{Kind: geolookup.InvalidTarget, Query: "x"}, http.StatusBadRequest},
		{"resolution failure", &geolookup.Error{Kind: geolookup.ResolutionFailure, Query: "x", Err: errors.New("timeout")}, http.StatusInternalServerError},
		{"internal fault", &geolookup.Error{Kind: geolookup.InternalFault, Err: errors.New("db")}, http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&mockLooker{err: tt.err})

			w := serve(router, httptest.NewRequest(http.MethodGet, "/lookup_detailed?query=x", nil))
			if w.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, w.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error != tt.err.Error() {
				t.Errorf("expected error %q, got %q", tt.err.Error(), resp.Error)
			}
		})
	}
}

func TestLookupDetailed_InternalFaultHidesCause(t *testing.T) {
	router := setupRouter(&mockLooker{err: &geolookup.Error{Kind: geolookup.InternalFault, Err: errors.New("secret path /var/db")}})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/lookup_detailed?query=1.1.1.1", nil))
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("expected cause to stay out of the response, got %s", w.Body.String())
	}
}
