package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"` // empty = stdout only, no rotation

	UpstreamTimeoutSec int `mapstructure:"upstream_timeout_sec"`
	RequestTimeoutSec  int `mapstructure:"request_timeout_sec"`
	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_sec"`

	GeocodingURL  string `mapstructure:"geocoding_url"`
	WeatherURL    string `mapstructure:"weather_url"`
	AirQualityURL string `mapstructure:"air_quality_url"`
	ReverseGeoURL string `mapstructure:"reverse_geo_url"`
	IPApiURL      string `mapstructure:"ip_api_url"`

	ReverseGeoCacheTTLSec int `mapstructure:"reverse_geo_cache_ttl_sec"`
	ReverseGeoCacheSize   int `mapstructure:"reverse_geo_cache_size"`
	ForwardGeoCacheTTLSec int `mapstructure:"forward_geo_cache_ttl_sec"`
	ForwardGeoCacheSize   int `mapstructure:"forward_geo_cache_size"`
	ScanCacheTTLSec       int `mapstructure:"scan_cache_ttl_sec"`
	ScanCacheSize         int `mapstructure:"scan_cache_size"`
	IPCacheTTLSec         int `mapstructure:"ip_cache_ttl_sec"`
	IPCacheSize           int `mapstructure:"ip_cache_size"`

	// DefaultCity is scanned when the caller arrives from a private or
	// loopback address and no explicit location was given.
	DefaultCity string `mapstructure:"default_city"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/envscan/")
	viper.AddConfigPath("$HOME/.envscan")
	viper.AddConfigPath(".")

	viper.SetDefault("port", 8080)
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_path", "")
	viper.SetDefault("upstream_timeout_sec", 8)
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("geocoding_url", "")
	viper.SetDefault("weather_url", "")
	viper.SetDefault("air_quality_url", "")
	viper.SetDefault("reverse_geo_url", "")
	viper.SetDefault("ip_api_url", "")
	viper.SetDefault("reverse_geo_cache_ttl_sec", 86400)
	viper.SetDefault("reverse_geo_cache_size", 500)
	viper.SetDefault("forward_geo_cache_ttl_sec", 86400)
	viper.SetDefault("forward_geo_cache_size", 500)
	viper.SetDefault("scan_cache_ttl_sec", 600)
	viper.SetDefault("scan_cache_size", 1000)
	viper.SetDefault("ip_cache_ttl_sec", 3600)
	viper.SetDefault("ip_cache_size", 1000)
	viper.SetDefault("default_city", "Montreal")

	viper.SetEnvPrefix("ENVSCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file: defaults plus env vars.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
