package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-journal-service/internal/cache"
	"github.com/kjstillabower/weather-journal-service/internal/client"
	"github.com/kjstillabower/weather-journal-service/internal/forecast"
	"github.com/kjstillabower/weather-journal-service/internal/models"
	"github.com/kjstillabower/weather-journal-service/internal/observability"
)

// WeatherService turns raw provider payloads into normalized snapshots:
// cache-aside lookup, upstream fetch on miss, forecast aggregation over the
// interval samples.
type WeatherService struct {
	client client.WeatherClient
	cache  cache.Cache
	ttl    time.Duration
}

// NewWeatherService creates a WeatherService. ttl is the snapshot cache
// expiration.
func NewWeatherService(client client.WeatherClient, cache cache.Cache, ttl time.Duration) *WeatherService {
	return &WeatherService{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// GetWeather returns the normalized snapshot for a location. Checks the
// cache first, fetches and aggregates on miss, and populates the cache on
// success. A failed fetch is returned as-is; there is no retry and no stale
// fallback, the user decides whether to try again.
func (s *WeatherService) GetWeather(ctx context.Context, location string) (models.WeatherSnapshot, error) {
	key := normalizeLocation(location)
	start := time.Now()
	logger := loggerFromContext(ctx)
	observability.WeatherQueriesTotal.Inc()

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if logger != nil {
			logger.Warn("cache get failed", zap.String("location", key), zap.Error(err))
		}
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("snapshot").Inc()
		if logger != nil {
			logger.Debug("snapshot served", zap.String("location", key), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
		}
		return cached, nil
	}

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("location", key))
	}

	obs, err := s.client.FetchObservations(ctx, location)
	if err != nil {
		observability.WeatherFetchErrorsTotal.WithLabelValues(string(client.CategorizeError(err))).Inc()
		return models.WeatherSnapshot{}, err
	}

	snapshot, err := buildSnapshot(obs)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}

	if setErr := s.cache.Set(ctx, key, snapshot, s.ttl); setErr != nil {
		if logger != nil {
			logger.Warn("cache set failed", zap.String("location", key), zap.Error(setErr))
		}
	}
	if logger != nil {
		logger.Debug("snapshot served", zap.String("location", key), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return snapshot, nil
}

// Suggest returns up to five place-name completions. Best-effort by
// contract: the client already degrades failures to an empty list.
func (s *WeatherService) Suggest(ctx context.Context, query string) ([]string, error) {
	return s.client.SuggestLocations(ctx, query)
}

// buildSnapshot combines current conditions with the aggregated daily
// forecast into one snapshot.
func buildSnapshot(obs client.Observations) (models.WeatherSnapshot, error) {
	daily, err := forecast.Aggregate(obs.Samples)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	return models.WeatherSnapshot{
		Location:    obs.Location,
		Temperature: obs.Temperature,
		Description: obs.Description,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Pressure:    obs.Pressure,
		Visibility:  obs.Visibility,
		Forecast:    daily,
	}, nil
}

// normalizeLocation normalizes location strings by trimming whitespace and
// converting to lowercase. Used for consistent cache keys regardless of
// input format.
func normalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}
