package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestPick(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		peer      string
		want      string
	}{
		{name: "peer with port", peer: "203.0.113.7:54321", want: "203.0.113.7"},
		{name: "IPv6 peer with port", peer: "[2001:db8::7]:443", want: "2001:db8::7"},
		{name: "peer without port", peer: "203.0.113.7", want: "203.0.113.7"},
		{name: "single forwarded entry", forwarded: "198.51.100.1", peer: "10.0.0.1:80", want: "198.51.100.1"},
		{name: "first forwarded entry wins", forwarded: " 198.51.100.1 , 10.0.0.2", peer: "10.0.0.1:80", want: "198.51.100.1"},
		{name: "empty first entry falls back", forwarded: " , 198.51.100.1", peer: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "blank header falls back", forwarded: "   ", peer: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "nothing at all", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pick(tt.forwarded, tt.peer); got != tt.want {
				t.Errorf("Pick(%q, %q) = %q, want %q", tt.forwarded, tt.peer, got, tt.want)
			}
		})
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/lookup_detailed", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	if got := FromRequest(req); got != "203.0.113.7" {
		t.Errorf("expected peer address, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.9, 203.0.113.7")
	if got := FromRequest(req); got != "198.51.100.9" {
		t.Errorf("expected forwarded address, got %q", got)
	}
}
