package grpc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/TomasB/geolookup/internal/clientip"
	"github.com/TomasB/geolookup/internal/lookup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// forwardedForKey is the metadata key proxies use for the client address.
const forwardedForKey = "x-forwarded-for"

// Looker runs a lookup for a query on behalf of a client.
type Looker interface {
	Lookup(ctx context.Context, query, clientAddr string) (*lookup.Result, error)
}

// Handler implements the gRPC LookupService.
type Handler struct {
	looker Looker
}

// NewHandler creates a new gRPC handler backed by looker.
func NewHandler(looker Looker) *Handler {
	return &Handler{looker: looker}
}

// Lookup resolves the requested query, or the caller's address when the query
// is empty, and returns its details.
func (h *Handler) Lookup(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	clientAddr := clientAddrFrom(ctx)

	res, err := h.looker.Lookup(ctx, req.GetValue(), clientAddr)
	if err != nil {
		code := CodeFor(err)
		if code == codes.Internal || code == codes.Unavailable {
			slog.Error("grpc lookup failed", "query", req.GetValue(), "client", clientAddr, "error", err)
		}
		return nil, status.Error(code, err.Error())
	}

	out, err := structpb.NewStruct(res.Map())
	if err != nil {
		slog.Error("failed to encode lookup result", "query", req.GetValue(), "error", err)
		return nil, status.Error(codes.Internal, "An error occurred during lookup.")
	}
	return out, nil
}

// CodeFor maps a lookup error to its gRPC status code.
func CodeFor(err error) codes.Code {
	switch lookup.KindOf(err) {
	case lookup.MissingInput, lookup.InvalidTarget:
		return codes.InvalidArgument
	case lookup.ResolutionFailure:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func clientAddrFrom(ctx context.Context) string {
	var forwardedFor, peerAddr string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		forwardedFor = strings.Join(md.Get(forwardedForKey), ",")
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		peerAddr = p.Addr.String()
	}
	return clientip.Pick(forwardedFor, peerAddr)
}
