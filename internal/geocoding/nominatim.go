package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentbridge/internal/models"
	"golang.org/x/time/rate"
)

const (
	// NominatimBaseURL is the public Nominatim search endpoint.
	NominatimBaseURL = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies this service to Nominatim as its usage policy requires.
	DefaultUserAgent = "TalentBridge-Address-Search/1.0 (https://github.com/UnknownOlympus/talentbridge)"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Keeps the outgoing request rate within the usage policy
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimAddress is the nested address breakdown returned with addressdetails=1.
type nominatimAddress struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	County        string `json:"county"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}

// nominatimResponse represents one element of the JSON array returned by Nominatim.
type nominatimResponse struct {
	PlaceID     json.Number      `json:"place_id"`
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"` // Latitude as string
	Lon         string           `json:"lon"` // Longitude as string
	Importance  float64          `json:"importance"`
	Type        string           `json:"type"`
	Address     nominatimAddress `json:"address"`
}

// NewNominatimProvider creates a new Nominatim geocoding provider.
// An empty baseURL or userAgent falls back to the public endpoint and the default agent.
func NewNominatimProvider(baseURL, userAgent string, rateLimit float64, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	if rateLimit <= 0 {
		rateLimit = 1
	}

	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		baseURL,
		userAgent,
		rate.NewLimiter(rate.Limit(rateLimit), 1),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client and limiter.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(
	client HTTPClient,
	baseURL string,
	userAgent string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *NominatimProvider {
	if baseURL == "" {
		baseURL = NominatimBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return &NominatimProvider{
		client:    client,
		baseURL:   baseURL,
		log:       log,
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Search runs a bounded free-text search against Nominatim and maps the results
// into addresses. Entries whose coordinates cannot be parsed into finite numbers are dropped.
func (np *NominatimProvider) Search(ctx context.Context, query models.SearchQuery) ([]models.Address, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	np.log.DebugContext(ctx, "Searching using Nominatim", "query", query.Text, "limit", query.Limit)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("format", "json")
	params.Set("q", query.Text)
	params.Set("limit", strconv.Itoa(query.Limit))
	params.Set("addressdetails", "1")
	if query.CountryCode != "" {
		params.Set("countrycodes", query.CountryCode)
	}
	if query.Language != "" {
		params.Set("accept-language", query.Language)
	}
	if query.ViewBox != "" {
		params.Set("viewbox", query.ViewBox)
		if query.Bounded {
			params.Set("bounded", "1")
		}
	}
	reqURL.RawQuery = params.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, &StatusError{Provider: "Nominatim", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	addresses := make([]models.Address, 0, len(results))
	for _, raw := range results {
		address, ok := toAddress(raw)
		if !ok {
			np.log.WarnContext(ctx, "Dropping Nominatim result with invalid coordinates",
				"place_id", raw.PlaceID.String(), "lat", raw.Lat, "lon", raw.Lon)
			continue
		}
		addresses = append(addresses, address)
	}

	np.log.DebugContext(ctx, "Nominatim search finished", "received", len(results), "mapped", len(addresses))

	return addresses, nil
}

// toAddress maps a Nominatim result into an Address. The second value is false
// when the coordinates are not finite numbers.
func toAddress(raw nominatimResponse) (models.Address, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(raw.Lat), 64)
	if err != nil {
		return models.Address{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(raw.Lon), 64)
	if err != nil {
		return models.Address{}, false
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lon}
	if !coords.Valid() {
		return models.Address{}, false
	}

	return models.Address{
		ID:           raw.PlaceID.String(),
		Label:        raw.DisplayName,
		StreetNumber: raw.Address.HouseNumber,
		StreetName:   raw.Address.Road,
		Neighborhood: firstNonEmpty(raw.Address.Neighbourhood, raw.Address.Suburb),
		City:         firstNonEmpty(raw.Address.City, raw.Address.Town, raw.Address.Village, raw.Address.County),
		State:        raw.Address.State,
		ZipCode:      raw.Address.Postcode,
		Country:      raw.Address.Country,
		Coordinates:  coords,
		Importance:   raw.Importance,
		Type:         raw.Type,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
