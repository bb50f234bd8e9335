package lookup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/TomasB/geolookup/internal/clientip"
	geolookup "github.com/TomasB/geolookup/internal/lookup"
	"github.com/gin-gonic/gin"
)

// Looker runs a lookup for a query on behalf of a client.
type Looker interface {
	Lookup(ctx context.Context, query, clientAddr string) (*geolookup.Result, error)
}

// LookupRequest represents the JSON body of a POST lookup.
type LookupRequest struct {
	Query string `json:"query"`
}

// ErrorResponse represents the JSON body of a failed lookup.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the detailed lookup endpoint.
type Handler struct {
	looker Looker
}

// NewHandler creates a new lookup handler backed by looker.
func NewHandler(looker Looker) *Handler {
	return &Handler{looker: looker}
}

// LookupDetailed handles GET and POST /lookup_detailed
func (h *Handler) LookupDetailed(c *gin.Context) {
	query := queryFrom(c)
	clientAddr := clientip.FromRequest(c.Request)

	slog.Debug("lookup request received", "query", query, "client", clientAddr)

	res, err := h.looker.Lookup(c.Request.Context(), query, clientAddr)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("lookup failed", "query", query, "client", clientAddr, "error", err)
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// StatusFor maps a lookup error to its HTTP status code.
func StatusFor(err error) int {
	switch geolookup.KindOf(err) {
	case geolookup.MissingInput, geolookup.InvalidTarget:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// queryFrom reads the query parameter for GET and the JSON body for POST. A
// missing or malformed body yields an empty query.
func queryFrom(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return c.Query("query")
	}
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("ignoring unreadable lookup body", "error", err)
		return ""
	}
	return req.Query
}
