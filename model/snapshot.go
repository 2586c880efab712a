package model

import "time"

// EnvironmentalSnapshot is the normalized output of one scan. Either section
// may be nil when its upstream source was unavailable; nil is the defined
// "no data" value, never an error. Stored snapshots are immutable: Cached and
// ResponseTimeMs are only ever set on a per-request copy.
type EnvironmentalSnapshot struct {
	Weather        *WeatherReport    `json:"weather"`
	AirQuality     *AirQualityReport `json:"air_quality"`
	FetchedAt      time.Time         `json:"fetched_at"`
	Cached         bool              `json:"cached"`
	ResponseTimeMs int64             `json:"response_time_ms"`
}

type WeatherReport struct {
	TemperatureC     float64 `json:"temperature_c"`
	FeelsLikeC       float64 `json:"feels_like_c"`
	HumidityPct      float64 `json:"humidity_pct"`
	PrecipitationMm  float64 `json:"precipitation_mm"`
	PressureHpa      float64 `json:"pressure_hpa"`
	WindSpeedKmh     float64 `json:"wind_speed_kmh"`
	WindDirectionDeg float64 `json:"wind_direction_deg"`
	WindCompass      string  `json:"wind_compass"`
	WindCategory     string  `json:"wind_category"`
	UVIndex          float64 `json:"uv_index"`
	UVBand           string  `json:"uv_band"`
	WeatherCode      int     `json:"weather_code"`
	Description      string  `json:"description"`
	Sunrise          string  `json:"sunrise,omitempty"`
	Sunset           string  `json:"sunset,omitempty"`
}

type AirQualityReport struct {
	USAQI float64 `json:"us_aqi"`
	Band  string  `json:"band"`
	PM25  float64 `json:"pm2_5"`
	PM10  float64 `json:"pm10"`
	Ozone float64 `json:"ozone"`
	NO2   float64 `json:"no2"`
}
