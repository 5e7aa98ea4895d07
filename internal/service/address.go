package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentbridge/internal/geocoding"
	"github.com/UnknownOlympus/talentbridge/internal/metrics"
	"github.com/UnknownOlympus/talentbridge/internal/models"
	"github.com/UnknownOlympus/talentbridge/internal/repository"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultLimit is the number of results requested when the caller gives none.
	DefaultLimit = 5

	countryCode = "us"
	countryName = "USA"
	language    = "en"
)

var (
	// ErrValidation is returned when the query is missing or shorter than three characters.
	ErrValidation = errors.New(`query parameter "q" is required and must be at least 3 characters`)
	// ErrUpstream is returned when the geocoding provider fails or is unreachable.
	ErrUpstream = errors.New("geocoding provider request failed")
)

// SearchParams holds one address search request. Limit, State and City are optional.
type SearchParams struct {
	Query string `validate:"required,min=3"`
	Limit int
	State string
	City  string
}

// Locality describes the target market every search is biased towards.
// Zero values fall back to the package defaults.
type Locality struct {
	City    string // City is the default city and the locality filter target.
	State   string // State is the default two-letter state code.
	ViewBox string // ViewBox is the bounding box handed to the provider.
	Limit   int    // Limit is the result count used when a request gives none.
}

// AddressService provides address search over a geocoding provider,
// including validation, caching, locality filtering and metrics tracking.
type AddressService struct {
	log          *slog.Logger         // Logger for logging service activities
	provider     geocoding.Provider   // Geocoding provider for external geocoding services
	providerName string               // Name of the provider for metrics labeling and cache keys
	repo         repository.Interface // Result cache, nil when caching is disabled
	metrics      *metrics.Metrics     // Metrics for tracking service performance
	validate     *validator.Validate  // Validator for search parameters
	locality     Locality             // Target market defaults
}

// NewAddressService creates a new instance of AddressService.
// repo may be nil, in which case every search goes to the provider.
func NewAddressService(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	repo repository.Interface,
	metrics *metrics.Metrics,
	locality Locality,
) *AddressService {
	return &AddressService{
		log:          log,
		provider:     provider,
		providerName: providerName,
		repo:         repo,
		metrics:      metrics,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		locality:     locality,
	}
}

// Search validates the request, queries the provider with a composite, bounded query
// and returns the addresses inside the target locality ordered by importance.
// It never returns partial results.
func (as *AddressService) Search(ctx context.Context, params SearchParams) (*models.SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	if err := as.validate.Struct(params); err != nil {
		as.metrics.Searches.WithLabelValues("invalid").Inc()
		as.log.DebugContext(ctx, "Rejected address search", "query", params.Query, "error", err)
		return nil, ErrValidation
	}

	if params.Limit <= 0 {
		params.Limit = as.locality.Limit
	}
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	city := firstNonBlank(params.City, as.locality.City)
	state := firstNonBlank(params.State, as.locality.State)

	query := models.SearchQuery{
		Text:        fmt.Sprintf("%s, %s, %s, %s", params.Query, city, state, countryName),
		Limit:       params.Limit,
		CountryCode: countryCode,
		Language:    language,
		ViewBox:     as.locality.ViewBox,
		Bounded:     as.locality.ViewBox != "",
	}

	candidates, err := as.lookup(ctx, query)
	if err != nil {
		as.metrics.Searches.WithLabelValues("failure").Inc()
		as.log.ErrorContext(ctx, "Address search failed", "query", query.Text, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	addresses := filterByLocality(candidates, city)
	slices.SortStableFunc(addresses, func(a, b models.Address) int {
		return cmp.Compare(b.Importance, a.Importance)
	})

	as.metrics.Searches.WithLabelValues("success").Inc()
	as.metrics.AddressesReturned.Observe(float64(len(addresses)))
	as.log.DebugContext(ctx, "Address search finished",
		"query", query.Text,
		"candidates", len(candidates),
		"returned", len(addresses))

	return &models.SearchResult{
		Success:   true,
		Query:     params.Query,
		Count:     len(addresses),
		Addresses: addresses,
	}, nil
}

// lookup serves the provider output from the cache when possible and
// stores fresh provider output otherwise. Cache failures never fail the search.
func (as *AddressService) lookup(ctx context.Context, query models.SearchQuery) ([]models.Address, error) {
	var key string
	if as.repo != nil {
		key = repository.CacheKey(as.providerName, query.Text, strconv.Itoa(query.Limit), query.ViewBox)

		cached, found, err := as.repo.FetchCachedAddresses(ctx, key)
		switch {
		case err != nil:
			as.metrics.CacheLookups.WithLabelValues("error").Inc()
			as.log.WarnContext(ctx, "Failed to read search cache", "key", key, "error", err)
		case found:
			as.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			as.metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	startTime := time.Now()
	addresses, err := as.provider.Search(ctx, query)
	as.metrics.RequestSeconds.WithLabelValues(as.providerName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		as.metrics.APIErrors.Inc()
		return nil, err
	}

	if as.repo != nil {
		if err = as.repo.StoreAddresses(ctx, key, addresses); err != nil {
			as.log.WarnContext(ctx, "Failed to store search results", "key", key, "error", err)
		}
	}

	return addresses, nil
}

// filterByLocality keeps addresses whose city or state mentions the target city.
// Bounding-box results can still be attributed to a neighbouring municipality.
func filterByLocality(addresses []models.Address, city string) []models.Address {
	target := strings.ToLower(strings.TrimSpace(city))
	filtered := make([]models.Address, 0, len(addresses))

	for _, address := range addresses {
		if strings.Contains(strings.ToLower(address.City), target) ||
			strings.Contains(strings.ToLower(address.State), target) {
			filtered = append(filtered, address)
		}
	}

	return filtered
}

func firstNonBlank(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
