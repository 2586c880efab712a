package scan

import (
	"math"

	"envscan/model"
	"envscan/openmeteo"
)

// NormalizeWeather maps an upstream weather payload onto the output schema,
// attaching the derived wind and UV labels.
func NormalizeWeather(resp *openmeteo.WeatherResponse) *model.WeatherReport {
	if resp == nil {
		return nil
	}
	cur := resp.Current
	report := &model.WeatherReport{
		TemperatureC:     cur.Temperature2m,
		FeelsLikeC:       cur.ApparentTemperature,
		HumidityPct:      cur.RelativeHumidity2m,
		PrecipitationMm:  cur.Precipitation,
		PressureHpa:      cur.SurfacePressure,
		WindSpeedKmh:     cur.WindSpeed10m,
		WindDirectionDeg: cur.WindDirection10m,
		WindCompass:      WindCompass(cur.WindDirection10m),
		WindCategory:     WindCategory(cur.WindSpeed10m),
		UVIndex:          cur.UVIndex,
		UVBand:           UVBand(cur.UVIndex),
		WeatherCode:      cur.WeatherCode,
		Description:      WeatherDescription(cur.WeatherCode),
	}
	if len(resp.Daily.Sunrise) > 0 {
		report.Sunrise = resp.Daily.Sunrise[0]
	}
	if len(resp.Daily.Sunset) > 0 {
		report.Sunset = resp.Daily.Sunset[0]
	}
	return report
}

func NormalizeAirQuality(resp *openmeteo.AirQualityResponse) *model.AirQualityReport {
	if resp == nil {
		return nil
	}
	cur := resp.Current
	return &model.AirQualityReport{
		USAQI: cur.USAQI,
		Band:  AQIBand(cur.USAQI),
		PM25:  cur.PM25,
		PM10:  cur.PM10,
		Ozone: cur.Ozone,
		NO2:   cur.NitrogenDioxide,
	}
}

// UVBand labels a UV index per the WHO exposure categories.
func UVBand(index float64) string {
	switch {
	case index < 3:
		return "Low"
	case index < 6:
		return "Moderate"
	case index < 8:
		return "High"
	case index < 11:
		return "Very High"
	default:
		return "Extreme"
	}
}

// AQIBand labels a US AQI value per the EPA breakpoints.
func AQIBand(aqi float64) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// WindCompass converts a bearing in degrees to a 16-point compass label.
func WindCompass(degrees float64) string {
	sector := int(math.Round(math.Mod(degrees, 360)/22.5)) % 16
	if sector < 0 {
		sector += 16
	}
	return compassPoints[sector]
}

// WindCategory labels a wind speed in km/h with a Beaufort-style category.
func WindCategory(kmh float64) string {
	switch {
	case kmh < 1:
		return "Calm"
	case kmh < 12:
		return "Light"
	case kmh < 29:
		return "Moderate"
	case kmh < 39:
		return "Fresh"
	case kmh < 50:
		return "Strong"
	case kmh < 75:
		return "Gale"
	default:
		return "Storm"
	}
}

var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherDescription maps a WMO weather code to its human-readable form.
func WeatherDescription(code int) string {
	if desc, ok := weatherDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}
