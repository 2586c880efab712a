package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"envscan/bigdatacloud"
	"envscan/cache"
	"envscan/config"
	"envscan/geocode"
	"envscan/httpapi"
	"envscan/ipapi"
	"envscan/iplocate"
	"envscan/logging"
	"envscan/metrics"
	"envscan/model"
	"envscan/openmeteo"
	"envscan/scan"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()
	upstreamTimeout := time.Duration(cfg.UpstreamTimeoutSec) * time.Second

	reverseCache := cache.New[string, model.LocationRecord](
		"reverse_geo",
		time.Duration(cfg.ReverseGeoCacheTTLSec)*time.Second,
		cfg.ReverseGeoCacheSize,
		cache.WithObserver[string, model.LocationRecord](registry),
	)
	forwardCache := cache.New[string, model.LocationRecord](
		"forward_geo",
		time.Duration(cfg.ForwardGeoCacheTTLSec)*time.Second,
		cfg.ForwardGeoCacheSize,
		cache.WithObserver[string, model.LocationRecord](registry),
	)
	scanCache := cache.New[string, model.EnvironmentalSnapshot](
		"scan",
		time.Duration(cfg.ScanCacheTTLSec)*time.Second,
		cfg.ScanCacheSize,
		cache.WithObserver[string, model.EnvironmentalSnapshot](registry),
	)
	ipCache := cache.New[string, model.IPLocationRecord](
		"ip",
		time.Duration(cfg.IPCacheTTLSec)*time.Second,
		cfg.IPCacheSize,
		cache.WithObserver[string, model.IPLocationRecord](registry),
	)

	meteo := openmeteo.NewClient(
		openmeteo.WithGeocodingURL(cfg.GeocodingURL),
		openmeteo.WithWeatherURL(cfg.WeatherURL),
		openmeteo.WithAirQualityURL(cfg.AirQualityURL),
	)
	reverseGeo := bigdatacloud.NewClient(bigdatacloud.WithBaseURL(cfg.ReverseGeoURL))
	ipClient := ipapi.NewClient(ipapi.WithBaseURL(cfg.IPApiURL))

	resolver := geocode.NewResolver(reverseGeo, meteo, reverseCache, forwardCache, upstreamTimeout)
	orchestrator := scan.NewOrchestrator(meteo, meteo, scanCache, upstreamTimeout,
		scan.WithLogger(logger),
		scan.WithUpstreamObserver(registry),
	)
	locator := iplocate.NewLocator(ipClient, ipCache, upstreamTimeout)

	handler := httpapi.NewHandler(
		resolver,
		orchestrator,
		locator,
		[]httpapi.CacheAdmin{reverseCache, forwardCache, scanCache, ipCache},
		registry,
		logger,
		cfg.DefaultCity,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Router(cfg.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal("server failed", zap.Error(err))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
