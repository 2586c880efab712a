// Package scan produces normalized environmental snapshots for a location,
// serving from cache when possible and otherwise fanning out to the weather
// and air-quality upstreams in parallel.
package scan

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"envscan/cache"
	"envscan/geo"
	"envscan/model"
	"envscan/openmeteo"
)

// ErrAllSourcesUnavailable is returned only when both upstream sources
// failed for one scan. A single failing source degrades the snapshot
// instead.
var ErrAllSourcesUnavailable = errors.New("scan: all sources unavailable")

type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*openmeteo.WeatherResponse, error)
}

type AirQualityProvider interface {
	AirQuality(ctx context.Context, lat, lon float64) (*openmeteo.AirQualityResponse, error)
}

// UpstreamObserver receives per-provider fetch outcomes.
type UpstreamObserver interface {
	UpstreamRequest(provider string)
	UpstreamFailure(provider string)
}

type Orchestrator struct {
	weather WeatherProvider
	air     AirQualityProvider
	store   *cache.Store[string, model.EnvironmentalSnapshot]

	timeout  time.Duration
	logger   *zap.Logger
	observer UpstreamObserver
	now      func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithUpstreamObserver(observer UpstreamObserver) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewOrchestrator(
	weather WeatherProvider,
	air AirQualityProvider,
	store *cache.Store[string, model.EnvironmentalSnapshot],
	timeout time.Duration,
	opts ...Option,
) *Orchestrator {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	o := &Orchestrator{
		weather: weather,
		air:     air,
		store:   store,
		timeout: timeout,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PerformScan returns the environmental snapshot for the given coordinates,
// which the caller is expected to have normalized already. On a cache hit the
// returned value is a copy of the stored snapshot with Cached set; the stored
// master is never mutated. On a miss both sources are fetched concurrently
// and each failure independently degrades to an absent section.
//
// Concurrent misses for the same key are not coalesced: each may reach the
// upstreams. The duplicate work is bounded by the cache fill that follows.
func (o *Orchestrator) PerformScan(ctx context.Context, lat, lon float64, loc model.LocationRecord) (model.EnvironmentalSnapshot, error) {
	key := geo.CoordsKey(lat, lon)
	if snap, ok := o.store.Get(key); ok {
		snap.Cached = true
		return snap, nil
	}

	var (
		weather *model.WeatherReport
		air     *model.AirQualityReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, o.timeout)
		defer cancel()
		o.observeRequest("weather")
		resp, err := o.weather.CurrentWeather(fctx, lat, lon)
		if err != nil {
			o.observeFailure("weather")
			o.logger.Warn("weather fetch failed",
				zap.String("city", loc.City),
				zap.String("key", key),
				zap.Error(err))
			return nil
		}
		weather = NormalizeWeather(resp)
		return nil
	})
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, o.timeout)
		defer cancel()
		o.observeRequest("air_quality")
		resp, err := o.air.AirQuality(fctx, lat, lon)
		if err != nil {
			o.observeFailure("air_quality")
			o.logger.Warn("air quality fetch failed",
				zap.String("city", loc.City),
				zap.String("key", key),
				zap.Error(err))
			return nil
		}
		air = NormalizeAirQuality(resp)
		return nil
	})
	// Fetch closures swallow their own failures, so Wait only joins.
	_ = g.Wait()

	if weather == nil && air == nil {
		return model.EnvironmentalSnapshot{}, ErrAllSourcesUnavailable
	}

	snap := model.EnvironmentalSnapshot{
		Weather:    weather,
		AirQuality: air,
		FetchedAt:  o.now().UTC(),
	}
	o.store.Set(key, snap)
	return snap, nil
}

func (o *Orchestrator) observeRequest(provider string) {
	if o.observer != nil {
		o.observer.UpstreamRequest(provider)
	}
}

func (o *Orchestrator) observeFailure(provider string) {
	if o.observer != nil {
		o.observer.UpstreamFailure(provider)
	}
}
