package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/UnknownOlympus/talentbridge/internal/models"
)

// Provider is an interface that defines a method for searching addresses.
// The Search method takes a context and a provider-facing query,
// and returns the matching addresses and an error if any occurs.
type Provider interface {
	Search(ctx context.Context, query models.SearchQuery) ([]models.Address, error)
}

// ErrUpstreamStatus is returned when a provider answers with a non-2xx status.
var ErrUpstreamStatus = errors.New("geocoding provider returned unexpected status")

// StatusError carries the HTTP status returned by a provider.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrUpstreamStatus).
func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// withoutURL drops the request URL a transport error carries. Provider URLs hold
// API keys and internal hosts that must not reach logs or callers.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
