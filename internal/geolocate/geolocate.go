// Package geolocate resolves the caller's coordinates so weather can be
// looked up without typing a location. It is a best-effort external
// collaborator; failures carry a reason and are never retried automatically.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Query renders the pair in the "lat,lon" form the weather data source
// accepts as a location.
func (c Coordinates) Query() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// GeolocationError reports a failed coordinate lookup with a human-readable
// reason.
type GeolocationError struct {
	Reason string
}

func (e *GeolocationError) Error() string {
	return "unable to determine location: " + e.Reason
}

// Locator yields the caller's coordinates or fails with *GeolocationError.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// HTTPLocator resolves coordinates from an IP-geolocation endpoint returning
// the ip-api.com response shape.
type HTTPLocator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPLocator builds a locator for the given endpoint. A zero timeout
// leaves requests unbounded.
func NewHTTPLocator(endpoint string, timeout time.Duration) *HTTPLocator {
	return &HTTPLocator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type geoIPResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate performs one lookup. Any transport, decoding, or provider-reported
// failure maps to *GeolocationError.
func (l *HTTPLocator) Locate(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Coordinates{}, &GeolocationError{Reason: err.Error()}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Coordinates{}, &GeolocationError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, &GeolocationError{Reason: fmt.Sprintf("lookup returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, &GeolocationError{Reason: err.Error()}
	}

	var parsed geoIPResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Coordinates{}, &GeolocationError{Reason: "malformed lookup response"}
	}
	if parsed.Status != "success" {
		reason := parsed.Message
		if reason == "" {
			reason = "lookup failed"
		}
		return Coordinates{}, &GeolocationError{Reason: reason}
	}

	return Coordinates{Lat: parsed.Lat, Lon: parsed.Lon}, nil
}
