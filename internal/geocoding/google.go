package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/talentbridge/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrInvalidViewBox is returned when a view box cannot be parsed into four coordinates.
var ErrInvalidViewBox = errors.New("invalid view box")

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Search geocodes the composite query with the Google Maps Geocoding API.
// Google returns no relevance score, so importance is derived from the result rank.
// When the query is bounded, results outside the view box are dropped here.
func (gp *GoogleProvider) Search(ctx context.Context, query models.SearchQuery) ([]models.Address, error) {
	gp.log.DebugContext(ctx, "Searching using Google Maps", "query", query.Text)

	req := maps.GeocodingRequest{Address: query.Text, Language: query.Language}
	if query.CountryCode != "" {
		req.Components = map[maps.Component]string{maps.ComponentCountry: strings.ToUpper(query.CountryCode)}
		req.Region = strings.ToLower(query.CountryCode)
	}

	var box *maps.LatLngBounds
	if query.ViewBox != "" {
		parsed, err := parseViewBox(query.ViewBox)
		if err != nil {
			return nil, err
		}
		box = parsed
		req.Bounds = box
	}

	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", withoutURL(err))
	}

	addresses := make([]models.Address, 0, len(geocodeResponse))
	for _, result := range geocodeResponse {
		if query.Limit > 0 && len(addresses) >= query.Limit {
			break
		}

		location := result.Geometry.Location
		coords := models.Coordinates{Latitude: location.Lat, Longitude: location.Lng}
		if !coords.Valid() {
			continue
		}
		if query.Bounded && box != nil && !contains(box, location) {
			gp.log.DebugContext(ctx, "Dropping Google result outside view box", "place_id", result.PlaceID)
			continue
		}

		address := models.Address{
			ID:          result.PlaceID,
			Label:       result.FormattedAddress,
			Coordinates: coords,
			Importance:  1 / float64(len(addresses)+1),
		}
		if len(result.Types) > 0 {
			address.Type = result.Types[0]
		}
		fillComponents(&address, result.AddressComponents)
		addresses = append(addresses, address)
	}

	return addresses, nil
}

func fillComponents(address *models.Address, components []maps.AddressComponent) {
	for _, component := range components {
		for _, kind := range component.Types {
			switch kind {
			case "street_number":
				address.StreetNumber = component.LongName
			case "route":
				address.StreetName = component.LongName
			case "neighborhood":
				address.Neighborhood = component.LongName
			case "sublocality":
				if address.Neighborhood == "" {
					address.Neighborhood = component.LongName
				}
			case "locality":
				address.City = component.LongName
			case "administrative_area_level_2":
				if address.City == "" {
					address.City = component.LongName
				}
			case "administrative_area_level_1":
				address.State = component.LongName
			case "postal_code":
				address.ZipCode = component.LongName
			case "country":
				address.Country = component.LongName
			}
		}
	}
}

// parseViewBox reads a Nominatim style "x1,y1,x2,y2" box (any two opposite corners).
func parseViewBox(viewBox string) (*maps.LatLngBounds, error) {
	parts := strings.Split(viewBox, ",")
	const corners = 4
	if len(parts) != corners {
		return nil, fmt.Errorf("%w: %q", ErrInvalidViewBox, viewBox)
	}

	values := make([]float64, corners)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidViewBox, viewBox)
		}
		values[i] = v
	}

	lon1, lat1, lon2, lat2 := values[0], values[1], values[2], values[3]

	return &maps.LatLngBounds{
		NorthEast: maps.LatLng{Lat: max(lat1, lat2), Lng: max(lon1, lon2)},
		SouthWest: maps.LatLng{Lat: min(lat1, lat2), Lng: min(lon1, lon2)},
	}, nil
}

func contains(box *maps.LatLngBounds, point maps.LatLng) bool {
	return point.Lat >= box.SouthWest.Lat && point.Lat <= box.NorthEast.Lat &&
		point.Lng >= box.SouthWest.Lng && point.Lng <= box.NorthEast.Lng
}
