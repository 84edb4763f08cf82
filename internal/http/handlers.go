package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-journal-service/internal/alerts"
	"github.com/kjstillabower/weather-journal-service/internal/client"
	"github.com/kjstillabower/weather-journal-service/internal/export"
	"github.com/kjstillabower/weather-journal-service/internal/forecast"
	"github.com/kjstillabower/weather-journal-service/internal/geolocate"
	"github.com/kjstillabower/weather-journal-service/internal/lifecycle"
	"github.com/kjstillabower/weather-journal-service/internal/models"
	"github.com/kjstillabower/weather-journal-service/internal/observability"
	"github.com/kjstillabower/weather-journal-service/internal/service"
	"github.com/kjstillabower/weather-journal-service/internal/store"
	"github.com/kjstillabower/weather-journal-service/internal/validation"
)

// HealthConfig holds dependencies the health handler probes.
type HealthConfig struct {
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
	// StorePing, when set, verifies the persisted slot is readable.
	StorePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService *service.WeatherService
	records        *store.RecordStore
	locator        geolocate.Locator
	healthConfig   *HealthConfig
	logger         *zap.Logger

	locationMinLen int
	locationMaxLen int
}

// NewHandler returns a new Handler.
func NewHandler(
	weatherService *service.WeatherService,
	records *store.RecordStore,
	locator geolocate.Locator,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	locationMinLen, locationMaxLen int,
) *Handler {
	return &Handler{
		weatherService: weatherService,
		records:        records,
		locator:        locator,
		healthConfig:   healthConfig,
		logger:         logger,
		locationMinLen: locationMinLen,
		locationMaxLen: locationMaxLen,
	}
}

// GetWeather handles GET /weather/{location}.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	location, err := validation.ValidateLocation(mux.Vars(r)["location"], h.locationMinLen, h.locationMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}

	snapshot, err := h.weatherService.GetWeather(r.Context(), location)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// GetWeatherHere handles GET /weather. The caller's position is resolved via
// IP geolocation and the resulting coordinate pair is looked up like any
// other location.
func (h *Handler) GetWeatherHere(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, r, http.StatusNotImplemented, "GEOLOCATION_DISABLED", "geolocation is not configured")
		return
	}
	coords, err := h.locator.Locate(r.Context())
	if err != nil {
		var geoErr *geolocate.GeolocationError
		if errors.As(err, &geoErr) {
			writeError(w, r, http.StatusServiceUnavailable, "GEOLOCATION_FAILED", geoErr.Reason)
			return
		}
		writeError(w, r, http.StatusServiceUnavailable, "GEOLOCATION_FAILED", "unable to determine location")
		return
	}

	snapshot, err := h.weatherService.GetWeather(r.Context(), coords.Query())
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// GetAlerts handles GET /weather/{location}/alerts. Returns active alerts and
// forecast insights for the location in one response.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	location, err := validation.ValidateLocation(mux.Vars(r)["location"], h.locationMinLen, h.locationMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}

	snapshot, err := h.weatherService.GetWeather(r.Context(), location)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	active := alerts.Evaluate(snapshot)
	insights, err := alerts.Insights(snapshot)
	if err != nil {
		// Empty forecast means no insights, not a failed request.
		insights = nil
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location": snapshot.Location,
		"alerts":   active,
		"insights": insights,
	})
}

// SuggestLocations handles GET /locations/suggest?q=. Best-effort: provider
// failures yield an empty list.
func (h *Handler) SuggestLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	suggestions, err := h.weatherService.Suggest(r.Context(), query)
	if err != nil {
		suggestions = nil
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

// createRecordRequest is the body for POST /records.
type createRecordRequest struct {
	Location  string `json:"location"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// CreateRecord handles POST /records. Fetches the current snapshot for the
// location and commits it as a saved record.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var body createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	location, err := validation.ValidateLocation(body.Location, h.locationMinLen, h.locationMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}

	snapshot, err := h.weatherService.GetWeather(r.Context(), location)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	record, err := h.records.Create(snapshot, snapshot.Location, body.StartDate, body.EndDate)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	observability.RecordMutationsTotal.WithLabelValues("create").Inc()
	observability.RecordCount.Set(float64(len(h.records.List())))
	writeJSON(w, http.StatusCreated, record)
}

// ListRecords handles GET /records. Records come back in insertion order.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records := h.records.List()
	if records == nil {
		records = []models.SavedRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// updateRecordRequest is the body for PATCH /records/{id}. Omitted fields are
// left unchanged.
type updateRecordRequest struct {
	Location  *string `json:"location"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// UpdateRecord handles PATCH /records/{id}.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "record id must be an integer")
		return
	}
	var body updateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	if body.Location != nil {
		loc, err := validation.ValidateLocation(*body.Location, h.locationMinLen, h.locationMaxLen)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
			return
		}
		body.Location = &loc
	}

	record, err := h.records.Update(id, store.UpdateFields{
		Location:  body.Location,
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
	})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	observability.RecordMutationsTotal.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, record)
}

// DeleteRecord handles DELETE /records/{id}.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "record id must be an integer")
		return
	}
	if err := h.records.Delete(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	observability.RecordMutationsTotal.WithLabelValues("delete").Inc()
	observability.RecordCount.Set(float64(len(h.records.List())))
	w.WriteHeader(http.StatusNoContent)
}

// ExportRecords handles GET /export/{format}. Streams the saved collection in
// the requested format as an attachment.
func (h *Handler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	format := export.Format(mux.Vars(r)["format"])
	data, err := export.Export(h.records.List(), format)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
		return
	}
	observability.ExportsTotal.WithLabelValues(string(format)).Inc()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=weather_records."+string(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetHealth handles GET /health. Reports shutting-down during drain, degraded
// when a wired dependency probe fails, healthy otherwise.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)

	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}
	}
	if h.healthConfig != nil && h.healthConfig.StorePing != nil {
		if h.healthConfig.StorePing() == nil {
			checks["store"] = "healthy"
		} else {
			checks["store"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "weather-journal-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeWeatherError maps fetch and aggregation failures to HTTP responses.
// Logs the underlying error at DEBUG level if logger is available in request context.
func writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *forecast.MalformedSampleError
	switch {
	case errors.Is(err, client.ErrLocationNotFound):
		writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "location not found")
	case errors.Is(err, client.ErrInvalidAPIKey):
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "weather provider rejected credentials")
	case errors.Is(err, client.ErrRateLimited):
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "weather provider rate limit reached")
	case errors.As(err, &malformed):
		writeError(w, r, http.StatusBadGateway, "MALFORMED_UPSTREAM_DATA", malformed.Error())
	default:
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch weather data")
	}
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("weather lookup error", zap.Error(err))
	}
}

// writeStoreError maps record store failures to HTTP responses. A flush
// failure surfaces as 507 so callers can distinguish a full slot from a bad
// request.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var quota *store.QuotaError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "RECORD_NOT_FOUND", "no record with that id")
	case errors.As(err, &quota):
		observability.StoreFlushErrorsTotal.Inc()
		writeError(w, r, http.StatusInsufficientStorage, "STORAGE_FULL", "persisted storage rejected the write")
	default:
		writeError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "record operation failed")
	}
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("record store error", zap.Error(err))
	}
}
