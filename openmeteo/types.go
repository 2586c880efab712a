package openmeteo

type citySearchResponse struct {
	Results []CityMatch `json:"results"`
}

type CityMatch struct {
	Name        string  `json:"name"`
	Admin1      string  `json:"admin1"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type WeatherResponse struct {
	Current      WeatherCurrent    `json:"current"`
	Daily        WeatherDaily      `json:"daily"`
	CurrentUnits map[string]string `json:"current_units"`
}

type WeatherCurrent struct {
	Temperature2m       float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
	Precipitation       float64 `json:"precipitation"`
	SurfacePressure     float64 `json:"surface_pressure"`
	WindSpeed10m        float64 `json:"wind_speed_10m"`
	WindDirection10m    float64 `json:"wind_direction_10m"`
	UVIndex             float64 `json:"uv_index"`
	WeatherCode         int     `json:"weather_code"`
}

type WeatherDaily struct {
	Sunrise []string `json:"sunrise"`
	Sunset  []string `json:"sunset"`
}

type AirQualityResponse struct {
	Current AirQualityCurrent `json:"current"`
}

type AirQualityCurrent struct {
	USAQI           float64 `json:"us_aqi"`
	PM25            float64 `json:"pm2_5"`
	PM10            float64 `json:"pm10"`
	Ozone           float64 `json:"ozone"`
	NitrogenDioxide float64 `json:"nitrogen_dioxide"`
}
