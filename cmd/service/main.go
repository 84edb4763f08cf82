package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-journal-service/internal/cache"
	"github.com/kjstillabower/weather-journal-service/internal/client"
	"github.com/kjstillabower/weather-journal-service/internal/config"
	"github.com/kjstillabower/weather-journal-service/internal/geolocate"
	httphandler "github.com/kjstillabower/weather-journal-service/internal/http"
	"github.com/kjstillabower/weather-journal-service/internal/lifecycle"
	"github.com/kjstillabower/weather-journal-service/internal/observability"
	"github.com/kjstillabower/weather-journal-service/internal/service"
	"github.com/kjstillabower/weather-journal-service/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := client.NewOpenWeatherClient(
		cfg.WeatherAPIKey,
		cfg.WeatherAPIURL,
		cfg.GeoAPIURL,
		cfg.WeatherAPITimeout,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}
	weatherService := service.NewWeatherService(weatherClient, cacheSvc, cfg.CacheTTL)

	backend, err := store.NewFileBackend(cfg.DataDir)
	if err != nil {
		logger.Fatal("data dir", zap.Error(err))
	}
	recordStore, err := store.NewRecordStore(backend, logger)
	if err != nil {
		logger.Fatal("record store", zap.Error(err))
	}
	observability.RecordCount.Set(float64(len(recordStore.List())))

	locator := geolocate.NewHTTPLocator(cfg.GeoIPURL, cfg.RequestTimeout)

	healthConfig := &httphandler.HealthConfig{
		StorePing: recordStore.Reload,
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(weatherService, recordStore, locator, healthConfig, logger, cfg.LocationMinLength, cfg.LocationMaxLength)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(httphandler.RateLimitMiddleware(limiter))
	weatherRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	weatherRouter.HandleFunc("", handler.GetWeatherHere).Methods("GET")
	weatherRouter.HandleFunc("/{location}", handler.GetWeather).Methods("GET")
	weatherRouter.HandleFunc("/{location}/alerts", handler.GetAlerts).Methods("GET")

	suggestRouter := router.PathPrefix("/locations").Subrouter()
	suggestRouter.Use(httphandler.RateLimitMiddleware(limiter))
	suggestRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	suggestRouter.HandleFunc("/suggest", handler.SuggestLocations).Methods("GET")

	recordsRouter := router.PathPrefix("/records").Subrouter()
	recordsRouter.Use(httphandler.RateLimitMiddleware(limiter))
	recordsRouter.HandleFunc("", handler.CreateRecord).Methods("POST")
	recordsRouter.HandleFunc("", handler.ListRecords).Methods("GET")
	recordsRouter.HandleFunc("/{id}", handler.UpdateRecord).Methods("PATCH")
	recordsRouter.HandleFunc("/{id}", handler.DeleteRecord).Methods("DELETE")

	router.HandleFunc("/export/{format}", handler.ExportRecords).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
