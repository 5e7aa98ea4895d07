package models

// Address is a single geocoding candidate in the shape served to the frontend.
// Component fields are optional and depend on what the provider knows about the place.
type Address struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	StreetNumber string      `json:"streetNumber,omitempty"`
	StreetName   string      `json:"streetName,omitempty"`
	Neighborhood string      `json:"neighborhood,omitempty"`
	City         string      `json:"city,omitempty"`
	State        string      `json:"state,omitempty"`
	ZipCode      string      `json:"zipCode,omitempty"`
	Country      string      `json:"country,omitempty"`
	Coordinates  Coordinates `json:"coordinates"`
	Importance   float64     `json:"importance"`
	Type         string      `json:"type"`
}

// SearchQuery is the provider-facing request built from a user query and locality hints.
type SearchQuery struct {
	Text        string // Text is the composite free-text query.
	Limit       int    // Limit is the maximum number of results requested.
	CountryCode string // CountryCode restricts results to one ISO 3166-1 alpha-2 country.
	Language    string // Language is the preferred result language.
	ViewBox     string // ViewBox is "minLon,maxLat,maxLon,minLat".
	Bounded     bool   // Bounded excludes results outside ViewBox.
}

// SearchResult is the success body of the address search endpoint.
type SearchResult struct {
	Success   bool      `json:"success"`
	Query     string    `json:"query"`
	Count     int       `json:"count"`
	Addresses []Address `json:"addresses"`
}
