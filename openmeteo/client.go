// Package openmeteo talks to the Open-Meteo API family: city geocoding,
// current weather and air quality.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultGeocodingURL  = "https://geocoding-api.open-meteo.com"
	DefaultWeatherURL    = "https://api.open-meteo.com"
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com"
)

type Client struct {
	geocodingURL  string
	weatherURL    string
	airQualityURL string
	httpClient    *http.Client
	userAgent     string
}

type Option func(*Client)

func WithGeocodingURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.geocodingURL = baseURL
		}
	}
}

func WithWeatherURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.weatherURL = baseURL
		}
	}
}

func WithAirQualityURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.airQualityURL = baseURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		geocodingURL:  DefaultGeocodingURL,
		weatherURL:    DefaultWeatherURL,
		airQualityURL: DefaultAirQualityURL,
		httpClient:    http.DefaultClient,
		userAgent:     "envscan/0.1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchCity resolves a free-text place name. An empty result list is a
// defined outcome (nil matches, nil error), not a transport failure.
func (c *Client) SearchCity(ctx context.Context, name string) ([]CityMatch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("openmeteo: city name is required")
	}
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var out citySearchResponse
	if err := c.doGet(ctx, c.geocodingURL, "/v1/search", params, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CurrentWeather fetches current conditions plus today's sunrise/sunset.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*WeatherResponse, error) {
	params := coordParams(lat, lon)
	params.Set("current", strings.Join([]string{
		"temperature_2m",
		"apparent_temperature",
		"relative_humidity_2m",
		"precipitation",
		"surface_pressure",
		"wind_speed_10m",
		"wind_direction_10m",
		"uv_index",
		"weather_code",
	}, ","))
	params.Set("daily", "sunrise,sunset")
	params.Set("forecast_days", "1")
	params.Set("timezone", "auto")

	var out WeatherResponse
	if err := c.doGet(ctx, c.weatherURL, "/v1/forecast", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AirQuality fetches current pollutant readings and the US AQI.
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (*AirQualityResponse, error) {
	params := coordParams(lat, lon)
	params.Set("current", "us_aqi,pm2_5,pm10,ozone,nitrogen_dioxide")

	var out AirQualityResponse
	if err := c.doGet(ctx, c.airQualityURL, "/v1/air-quality", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	return params
}

func (c *Client) doGet(ctx context.Context, baseURL, path string, params url.Values, out any) error {
	if c == nil {
		return errors.New("openmeteo: client is nil")
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	endpoint := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(c.userAgent) != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openmeteo: http status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
