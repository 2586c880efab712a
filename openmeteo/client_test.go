package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCityEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "Nonexistent City XYZ", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	defer srv.Close()

	c := NewClient(WithGeocodingURL(srv.URL))
	matches, err := c.SearchCity(context.Background(), "Nonexistent City XYZ")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchCityParsesMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"name":"Montreal","admin1":"Quebec","country":"Canada","country_code":"CA","latitude":45.50884,"longitude":-73.58781}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithGeocodingURL(srv.URL))
	matches, err := c.SearchCity(context.Background(), "Montreal")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Montreal", matches[0].Name)
	assert.Equal(t, "Quebec", matches[0].Admin1)
	assert.Equal(t, 45.50884, matches[0].Latitude)
}

func TestCurrentWeatherRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "45.5", q.Get("latitude"))
		assert.Equal(t, "-73.57", q.Get("longitude"))
		assert.Contains(t, q.Get("current"), "temperature_2m")
		assert.Contains(t, q.Get("daily"), "sunrise")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current":{"temperature_2m":21.4,"weather_code":2},"daily":{"sunrise":["2026-01-15T07:30"],"sunset":["2026-01-15T16:45"]}}`))
	}))
	defer srv.Close()

	c := NewClient(WithWeatherURL(srv.URL))
	resp, err := c.CurrentWeather(context.Background(), 45.5, -73.57)
	require.NoError(t, err)
	assert.Equal(t, 21.4, resp.Current.Temperature2m)
	assert.Equal(t, 2, resp.Current.WeatherCode)
	require.Len(t, resp.Daily.Sunrise, 1)
}

func TestAirQualityNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithAirQualityURL(srv.URL))
	_, err := c.AirQuality(context.Background(), 45.5, -73.57)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
