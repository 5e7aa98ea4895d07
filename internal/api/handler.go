package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/talentbridge/internal/geocoding"
	"github.com/UnknownOlympus/talentbridge/internal/models"
	"github.com/UnknownOlympus/talentbridge/internal/service"
	"github.com/gin-gonic/gin"
)

// AddressSearcher runs one address search.
type AddressSearcher interface {
	Search(ctx context.Context, params service.SearchParams) (*models.SearchResult, error)
}

// Handler exposes the address search endpoints.
type Handler struct {
	searcher AddressSearcher
	timeout  time.Duration // Upper bound for one search, 0 means none
	log      *slog.Logger
}

// NewHandler creates a Handler backed by the given searcher.
func NewHandler(searcher AddressSearcher, timeout time.Duration, log *slog.Logger) *Handler {
	return &Handler{searcher: searcher, timeout: timeout, log: log}
}

// SearchAddresses handles GET /api/address/search?q=&limit=&state=&city=.
func (h *Handler) SearchAddresses(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	params := service.SearchParams{
		Query: c.Query("q"),
		Limit: parseLimit(c.Query("limit")),
		State: c.Query("state"),
		City:  c.Query("city"),
	}

	result, err := h.searcher.Search(ctx, params)
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error(), "")
		return
	case err != nil:
		h.log.ErrorContext(ctx, "Address search request failed",
			"request_id", c.GetString(requestIDKey),
			"error", err)
		writeError(c, http.StatusInternalServerError, "Failed to search addresses", errorDetails(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseLimit returns 0 for a missing or malformed limit so the service default applies.
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

// errorDetails exposes the provider status and nothing else about the upstream failure.
func errorDetails(err error) string {
	var statusErr *geocoding.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return service.ErrUpstream.Error()
}
