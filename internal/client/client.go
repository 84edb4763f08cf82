package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-journal-service/internal/models"
	"github.com/kjstillabower/weather-journal-service/internal/observability"
)

// WeatherClient is the external data source: current conditions plus interval
// forecast samples for a location, and best-effort place-name suggestions.
type WeatherClient interface {
	FetchObservations(ctx context.Context, location string) (Observations, error)
	SuggestLocations(ctx context.Context, query string) ([]string, error)
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// FetchError is the typed failure for observation fetches. It carries the
// query that failed so callers can surface it to the user.
type FetchError struct {
	Query      string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch weather for %q: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Observations is one raw payload from the data source: normalized current
// conditions plus the ordered interval samples feeding forecast aggregation.
type Observations struct {
	Location    string
	Temperature int
	Description string
	Humidity    int
	WindSpeed   int
	Pressure    int
	Visibility  int
	Samples     []models.RawSample
}

// OpenWeatherClient talks to the OpenWeatherMap current-weather, forecast and
// geocoding endpoints. It performs exactly one attempt per call; a failed
// fetch is reported to the caller and repeated only on explicit user action.
type OpenWeatherClient struct {
	apiKey string
	apiURL string
	geoURL string
	client *http.Client
}

// NewOpenWeatherClient validates the API key and builds a client. A zero
// timeout leaves requests unbounded; only a host-configured timeout limits a
// stalled upstream.
func NewOpenWeatherClient(apiKey, apiURL, geoURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}

	return &OpenWeatherClient{
		apiKey: apiKey,
		apiURL: strings.TrimRight(apiURL, "/"),
		geoURL: strings.TrimRight(geoURL, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

type currentResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility int    `json:"visibility"`
	Name       string `json:"name"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

type geoResponse []struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// FetchObservations retrieves current conditions and the interval forecast in
// one logical fetch. Any non-success response maps to a *FetchError carrying
// the original query.
func (c *OpenWeatherClient) FetchObservations(ctx context.Context, location string) (Observations, error) {
	locQuery := locationQuery(location)

	var current currentResponse
	if err := c.getJSON(ctx, c.apiURL+"/weather", locQuery, &current); err != nil {
		return Observations{}, &FetchError{Query: location, StatusCode: statusOf(err), Err: err}
	}

	var forecast forecastResponse
	if err := c.getJSON(ctx, c.apiURL+"/forecast", locQuery, &forecast); err != nil {
		return Observations{}, &FetchError{Query: location, StatusCode: statusOf(err), Err: err}
	}

	return c.mapObservations(current, forecast), nil
}

// SuggestLocations returns up to five place-name completions for the query.
// Suggestions are best-effort: every failure degrades to an empty list.
func (c *OpenWeatherClient) SuggestLocations(ctx context.Context, query string) ([]string, error) {
	if len(strings.TrimSpace(query)) < 3 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "5")

	var geo geoResponse
	if err := c.getJSON(ctx, c.geoURL+"/direct", params, &geo); err != nil {
		return nil, nil
	}

	suggestions := make([]string, 0, len(geo))
	for _, loc := range geo {
		if loc.State != "" {
			suggestions = append(suggestions, fmt.Sprintf("%s, %s, %s", loc.Name, loc.State, loc.Country))
		} else {
			suggestions = append(suggestions, fmt.Sprintf("%s, %s", loc.Name, loc.Country))
		}
	}
	return suggestions, nil
}

// statusError carries the HTTP status of a non-success upstream response.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

func (c *OpenWeatherClient) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	start := time.Now()

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("request timeout: %w", err)
		}
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := checkResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func checkResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &statusError{code: resp.StatusCode, err: ErrInvalidAPIKey}
	case resp.StatusCode == http.StatusNotFound:
		return &statusError{code: resp.StatusCode, err: ErrLocationNotFound}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &statusError{code: resp.StatusCode, err: ErrRateLimited}
	case resp.StatusCode >= 500:
		return &statusError{code: resp.StatusCode, err: fmt.Errorf("%w: status %d", ErrUpstreamFailure, resp.StatusCode)}
	default:
		return &statusError{code: resp.StatusCode, err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

func (c *OpenWeatherClient) mapObservations(current currentResponse, forecast forecastResponse) Observations {
	obs := Observations{
		Location:    current.Name + ", " + current.Sys.Country,
		Temperature: int(math.Round(current.Main.Temp)),
		Humidity:    current.Main.Humidity,
		WindSpeed:   int(math.Round(current.Wind.Speed * 3.6)), // m/s to km/h
		Pressure:    current.Main.Pressure,
	}
	if len(current.Weather) > 0 {
		obs.Description = strings.ToLower(current.Weather[0].Description)
	}
	visibility := current.Visibility
	if visibility == 0 {
		visibility = 10000 // provider omits visibility above 10 km
	}
	obs.Visibility = int(math.Round(float64(visibility) / 1000)) // m to km

	for _, item := range forecast.List {
		temp := item.Main.Temp
		sample := models.RawSample{
			Timestamp:   time.Unix(item.Dt, 0),
			Temperature: &temp,
		}
		if len(item.Weather) > 0 {
			sample.Description = item.Weather[0].Description
		}
		obs.Samples = append(obs.Samples, sample)
	}
	return obs
}

// locationQuery builds query params for a place name, postal code, or
// "lat,lon" pair. Only inputs whose two comma-separated halves both parse as
// numbers are treated as coordinates; "Paris, FR" stays a text query.
func locationQuery(location string) url.Values {
	params := url.Values{}
	if lat, lon, ok := parseCoordinates(location); ok {
		params.Set("lat", lat)
		params.Set("lon", lon)
		return params
	}
	params.Set("q", location)
	return params
}

func parseCoordinates(location string) (lat, lon string, ok bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return "", "", false
	}
	lat = strings.TrimSpace(parts[0])
	lon = strings.TrimSpace(parts[1])
	if _, err := strconv.ParseFloat(lat, 64); err != nil {
		return "", "", false
	}
	if _, err := strconv.ParseFloat(lon, 64); err != nil {
		return "", "", false
	}
	return lat, lon, true
}

func statusLabel(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
