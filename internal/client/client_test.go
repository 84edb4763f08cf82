package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const currentBody = `{
	"main": {"temp": 15.6, "humidity": 75, "pressure": 1013},
	"weather": [{"description": "Scattered Clouds"}],
	"wind": {"speed": 4.2},
	"visibility": 8000,
	"name": "Seattle",
	"sys": {"country": "US"}
}`

const forecastBody = `{
	"list": [
		{"dt": 1741608000, "main": {"temp": 16.2}, "weather": [{"description": "light rain"}]},
		{"dt": 1741618800, "main": {"temp": 18.4}, "weather": [{"description": "clear sky"}]}
	]
}`

// newTestServer serves canned current and forecast payloads and records the
// last query values seen.
func newTestServer(t *testing.T, currentStatus int) (*httptest.Server, *map[string][]string) {
	t.Helper()
	queries := make(map[string][]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range r.URL.Query() {
			queries[k] = v
		}
		switch r.URL.Path {
		case "/weather":
			if currentStatus != http.StatusOK {
				w.WriteHeader(currentStatus)
				return
			}
			w.Write([]byte(currentBody))
		case "/forecast":
			w.Write([]byte(forecastBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func newTestClient(t *testing.T, apiURL string) *OpenWeatherClient {
	t.Helper()
	c, err := NewOpenWeatherClient("test-api-key-1234", apiURL, apiURL+"/geo", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	return c
}

// TestNewOpenWeatherClient_RejectsBadKeys verifies empty and too-short API
// keys are rejected at construction.
func TestNewOpenWeatherClient_RejectsBadKeys(t *testing.T) {
	if _, err := NewOpenWeatherClient("", "http://x", "http://x", 0); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("empty key error = %v, want ErrInvalidAPIKey", err)
	}
	if _, err := NewOpenWeatherClient("short", "http://x", "http://x", 0); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("short key error = %v, want ErrInvalidAPIKey", err)
	}
}

// TestFetchObservations_Success verifies current conditions are normalized
// (rounded temperature, m/s to km/h wind, m to km visibility, lower-cased
// description) and forecast samples are carried through in order.
func TestFetchObservations_Success(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL)

	got, err := c.FetchObservations(context.Background(), "Seattle")
	if err != nil {
		t.Fatalf("FetchObservations() error = %v", err)
	}

	if got.Location != "Seattle, US" {
		t.Errorf("Location = %q, want %q", got.Location, "Seattle, US")
	}
	if got.Temperature != 16 {
		t.Errorf("Temperature = %d, want 16 (round 15.6)", got.Temperature)
	}
	if got.Description != "scattered clouds" {
		t.Errorf("Description = %q, want lower-cased", got.Description)
	}
	if got.WindSpeed != 15 {
		t.Errorf("WindSpeed = %d, want 15 (round 4.2 m/s * 3.6)", got.WindSpeed)
	}
	if got.Visibility != 8 {
		t.Errorf("Visibility = %d, want 8 km", got.Visibility)
	}
	if got.Pressure != 1013 || got.Humidity != 75 {
		t.Errorf("Pressure/Humidity = %d/%d, want 1013/75", got.Pressure, got.Humidity)
	}
	if len(got.Samples) != 2 {
		t.Fatalf("Samples len = %d, want 2", len(got.Samples))
	}
	if got.Samples[0].Temperature == nil || *got.Samples[0].Temperature != 16.2 {
		t.Errorf("first sample temperature = %v, want 16.2 unrounded", got.Samples[0].Temperature)
	}
	if got.Samples[1].Description != "clear sky" {
		t.Errorf("second sample description = %q, want %q", got.Samples[1].Description, "clear sky")
	}
}

// TestFetchObservations_NotFound verifies a 404 maps to a *FetchError that
// carries the failed query and wraps ErrLocationNotFound.
func TestFetchObservations_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound)
	c := newTestClient(t, srv.URL)

	_, err := c.FetchObservations(context.Background(), "Atlantis")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchObservations() error = %v, want *FetchError", err)
	}
	if fetchErr.Query != "Atlantis" {
		t.Errorf("Query = %q, want %q", fetchErr.Query, "Atlantis")
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("error does not wrap ErrLocationNotFound: %v", err)
	}
}

// TestFetchObservations_CoordinatePair verifies "lat,lon" inputs query by
// coordinates while city-comma-country inputs stay text queries.
func TestFetchObservations_CoordinatePair(t *testing.T) {
	srv, queries := newTestServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL)

	if _, err := c.FetchObservations(context.Background(), "47.6, -122.3"); err != nil {
		t.Fatalf("FetchObservations() error = %v", err)
	}
	if got := (*queries)["lat"]; len(got) != 1 || got[0] != "47.6" {
		t.Errorf("lat param = %v, want [47.6]", got)
	}
	if got := (*queries)["lon"]; len(got) != 1 || got[0] != "-122.3" {
		t.Errorf("lon param = %v, want [-122.3]", got)
	}

	if _, err := c.FetchObservations(context.Background(), "Paris, FR"); err != nil {
		t.Fatalf("FetchObservations() error = %v", err)
	}
	if got := (*queries)["q"]; len(got) != 1 || got[0] != "Paris, FR" {
		t.Errorf("q param = %v, want [Paris, FR]", got)
	}
}

// TestSuggestLocations verifies place-name completions include state when
// present and that short queries return nothing.
func TestSuggestLocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/direct" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[
			{"name": "Seattle", "state": "Washington", "country": "US"},
			{"name": "SeaTac", "country": "US"}
		]`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	got, err := c.SuggestLocations(context.Background(), "sea")
	if err != nil {
		t.Fatalf("SuggestLocations() error = %v", err)
	}
	want := []string{"Seattle, Washington, US", "SeaTac, US"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("SuggestLocations() = %v, want %v", got, want)
	}

	short, err := c.SuggestLocations(context.Background(), "se")
	if err != nil || len(short) != 0 {
		t.Errorf("SuggestLocations(short) = %v, %v; want empty, nil", short, err)
	}
}

// TestSuggestLocations_DegradesSilently verifies lookup failures yield an
// empty list without error.
func TestSuggestLocations_DegradesSilently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	got, err := c.SuggestLocations(context.Background(), "seattle")
	if err != nil {
		t.Errorf("SuggestLocations() error = %v, want nil on failure", err)
	}
	if len(got) != 0 {
		t.Errorf("SuggestLocations() = %v, want empty on failure", got)
	}
}

// TestParseCoordinates verifies coordinate detection for mixed inputs.
func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"47.6,-122.3", true},
		{" 47.6 , -122.3 ", true},
		{"Paris, FR", false},
		{"98101", false},
		{"1,2,3", false},
	}
	for _, tc := range tests {
		if _, _, ok := parseCoordinates(tc.in); ok != tc.ok {
			t.Errorf("parseCoordinates(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
	}
}
