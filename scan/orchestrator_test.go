package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envscan/cache"
	"envscan/geo"
	"envscan/model"
	"envscan/openmeteo"
)

type fakeWeather struct {
	calls int
	resp  *openmeteo.WeatherResponse
	err   error
}

func (f *fakeWeather) CurrentWeather(ctx context.Context, lat, lon float64) (*openmeteo.WeatherResponse, error) {
	f.calls++
	return f.resp, f.err
}

type fakeAir struct {
	calls int
	resp  *openmeteo.AirQualityResponse
	err   error
}

func (f *fakeAir) AirQuality(ctx context.Context, lat, lon float64) (*openmeteo.AirQualityResponse, error) {
	f.calls++
	return f.resp, f.err
}

func weatherFixture() *openmeteo.WeatherResponse {
	return &openmeteo.WeatherResponse{
		Current: openmeteo.WeatherCurrent{
			Temperature2m:       21.4,
			ApparentTemperature: 20.1,
			RelativeHumidity2m:  55,
			WindSpeed10m:        18,
			WindDirection10m:    270,
			UVIndex:             6.5,
			WeatherCode:         2,
		},
		Daily: openmeteo.WeatherDaily{
			Sunrise: []string{"2026-01-15T07:30"},
			Sunset:  []string{"2026-01-15T16:45"},
		},
	}
}

func airFixture() *openmeteo.AirQualityResponse {
	return &openmeteo.AirQualityResponse{
		Current: openmeteo.AirQualityCurrent{
			USAQI: 42,
			PM25:  9.5,
			PM10:  15,
			Ozone: 61,
		},
	}
}

func newTestOrchestrator(weather WeatherProvider, air AirQualityProvider) *Orchestrator {
	store := cache.New[string, model.EnvironmentalSnapshot]("scan", time.Minute, 10)
	return NewOrchestrator(weather, air, store, time.Second)
}

func TestPerformScanBothSources(t *testing.T) {
	weather := &fakeWeather{resp: weatherFixture()}
	air := &fakeAir{resp: airFixture()}
	store := cache.New[string, model.EnvironmentalSnapshot]("scan", time.Minute, 10)
	o := NewOrchestrator(weather, air, store, time.Second)
	loc := model.LocationRecord{City: "Montreal", Lat: 45.5, Lon: -73.57}

	snap, err := o.PerformScan(context.Background(), 45.5, -73.57, loc)
	require.NoError(t, err)
	assert.False(t, snap.Cached)
	require.NotNil(t, snap.Weather)
	require.NotNil(t, snap.AirQuality)
	assert.Equal(t, 21.4, snap.Weather.TemperatureC)
	assert.Equal(t, "W", snap.Weather.WindCompass)
	assert.Equal(t, "Moderate", snap.Weather.WindCategory)
	assert.Equal(t, "High", snap.Weather.UVBand)
	assert.Equal(t, "Partly cloudy", snap.Weather.Description)
	assert.Equal(t, "Good", snap.AirQuality.Band)

	// A second scan of the same grid cell is served from cache, with the
	// flag set only on the returned copy.
	again, err := o.PerformScan(context.Background(), 45.5, -73.57, loc)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, snap.Weather, again.Weather)
	assert.Equal(t, snap.AirQuality, again.AirQuality)
	assert.Equal(t, 1, weather.calls)
	assert.Equal(t, 1, air.calls)

	// The flag was set on returned copies only: the stored master still
	// carries Cached=false after the cache hits above.
	master, ok := store.Get(geo.CoordsKey(45.5, -73.57))
	require.True(t, ok)
	assert.False(t, master.Cached)
}

func TestPerformScanWeatherFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(
		&fakeWeather{err: errors.New("weather down")},
		&fakeAir{resp: airFixture()},
	)

	snap, err := o.PerformScan(context.Background(), 45.5, -73.57, model.LocationRecord{})
	require.NoError(t, err)
	assert.Nil(t, snap.Weather)
	require.NotNil(t, snap.AirQuality)
	assert.Equal(t, 42.0, snap.AirQuality.USAQI)
}

func TestPerformScanAirFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(
		&fakeWeather{resp: weatherFixture()},
		&fakeAir{err: errors.New("aq down")},
	)

	snap, err := o.PerformScan(context.Background(), 45.5, -73.57, model.LocationRecord{})
	require.NoError(t, err)
	require.NotNil(t, snap.Weather)
	assert.Nil(t, snap.AirQuality)
}

func TestPerformScanAllSourcesUnavailable(t *testing.T) {
	weather := &fakeWeather{err: errors.New("weather down")}
	air := &fakeAir{err: errors.New("aq down")}
	o := newTestOrchestrator(weather, air)

	_, err := o.PerformScan(context.Background(), 45.5, -73.57, model.LocationRecord{})
	assert.ErrorIs(t, err, ErrAllSourcesUnavailable)

	// A failed scan is not cached: the next attempt fans out again.
	_, _ = o.PerformScan(context.Background(), 45.5, -73.57, model.LocationRecord{})
	assert.Equal(t, 2, weather.calls)
	assert.Equal(t, 2, air.calls)
}

type recordingObserver struct {
	requests map[string]int
	failures map[string]int
}

func (o *recordingObserver) UpstreamRequest(p string) { o.requests[p]++ }
func (o *recordingObserver) UpstreamFailure(p string) { o.failures[p]++ }

func TestPerformScanReportsUpstreamOutcomes(t *testing.T) {
	obs := &recordingObserver{requests: map[string]int{}, failures: map[string]int{}}
	store := cache.New[string, model.EnvironmentalSnapshot]("scan", time.Minute, 10)
	o := NewOrchestrator(
		&fakeWeather{resp: weatherFixture()},
		&fakeAir{err: errors.New("aq down")},
		store,
		time.Second,
		WithUpstreamObserver(obs),
	)

	_, err := o.PerformScan(context.Background(), 45.5, -73.57, model.LocationRecord{})
	require.NoError(t, err)
	assert.Equal(t, 1, obs.requests["weather"])
	assert.Equal(t, 1, obs.requests["air_quality"])
	assert.Equal(t, 0, obs.failures["weather"])
	assert.Equal(t, 1, obs.failures["air_quality"])
}
