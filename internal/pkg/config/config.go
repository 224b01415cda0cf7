package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// Provider names accepted in provider.search and provider.geocoder.
const (
	ProviderNaverPlace   = "naver-place"
	ProviderNaverLocal   = "naver-local"
	ProviderNaverReverse = "naver-reverse"
	ProviderNone         = "none"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Naver     NaverConfig     `mapstructure:"naver"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	AllowOrigins   string `mapstructure:"allow_origins"`
	RateLimit      int    `mapstructure:"rate_limit"` // requests per minute per IP
}

// ProviderConfig selects the adapters wired into the recommendation pipeline.
type ProviderConfig struct {
	Search   string `mapstructure:"search"`
	Geocoder string `mapstructure:"geocoder"`
}

type NaverCredentials struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// NaverConfig carries two credential pairs: NCP Maps (place search and
// reverse geocoding) and Naver Developers (local search).
type NaverConfig struct {
	Maps          NaverCredentials `mapstructure:"maps"`
	Search        NaverCredentials `mapstructure:"search"`
	MapsBaseURL   string           `mapstructure:"maps_base_url"`
	SearchBaseURL string           `mapstructure:"search_base_url"`
}

type RecommendConfig struct {
	Keyword        string        `mapstructure:"keyword"`
	FallbackRegion string        `mapstructure:"fallback_region"`
	Strategy       string        `mapstructure:"strategy"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	RatePerSec     float64       `mapstructure:"rate_per_sec"`
	Burst          int           `mapstructure:"burst"`
	ResultLimit    int           `mapstructure:"result_limit"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"` // stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Enabled     bool    `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 15)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("provider.search", ProviderNaverPlace)
	v.SetDefault("provider.geocoder", ProviderNaverReverse)
	v.SetDefault("naver.maps.client_id", "")
	v.SetDefault("naver.maps.client_secret", "")
	v.SetDefault("naver.search.client_id", "")
	v.SetDefault("naver.search.client_secret", "")
	v.SetDefault("naver.maps_base_url", "https://naveropenapi.apigw.ntruss.com")
	v.SetDefault("naver.search_base_url", "https://openapi.naver.com")
	v.SetDefault("recommend.keyword", "맛집")
	v.SetDefault("recommend.fallback_region", "근처")
	v.SetDefault("recommend.strategy", "random")
	v.SetDefault("recommend.call_timeout", "5s")
	v.SetDefault("recommend.rate_per_sec", 10.0)
	v.SetDefault("recommend.burst", 5)
	v.SetDefault("recommend.result_limit", 5)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.endpoint", "tempo:4317")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: LUNCHPICK_NAVER_MAPS_CLIENT_ID → naver.maps.client_id
	v.SetEnvPrefix("LUNCHPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed credential names used by existing deployments.
	_ = v.BindEnv("naver.maps.client_id", "LUNCHPICK_NAVER_MAPS_CLIENT_ID", "NAVER_MAPS_CLIENT_ID")
	_ = v.BindEnv("naver.maps.client_secret", "LUNCHPICK_NAVER_MAPS_CLIENT_SECRET", "NAVER_MAPS_CLIENT_SECRET")
	_ = v.BindEnv("naver.search.client_id", "LUNCHPICK_NAVER_SEARCH_CLIENT_ID", "NAVER_SEARCH_CLIENT_ID")
	_ = v.BindEnv("naver.search.client_secret", "LUNCHPICK_NAVER_SEARCH_CLIENT_SECRET", "NAVER_SEARCH_CLIENT_SECRET")
	_ = v.BindEnv("log.level", "LUNCHPICK_LOG_LEVEL", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, "server.rate_limit must be positive")
	}

	switch c.Provider.Search {
	case ProviderNaverPlace:
		errs = append(errs, c.Naver.Maps.missing("naver.maps")...)
	case ProviderNaverLocal:
		errs = append(errs, c.Naver.Search.missing("naver.search")...)
	default:
		errs = append(errs, fmt.Sprintf("provider.search must be %s or %s, got %q",
			ProviderNaverPlace, ProviderNaverLocal, c.Provider.Search))
	}

	switch c.Provider.Geocoder {
	case ProviderNone:
	case ProviderNaverReverse:
		if c.Provider.Search != ProviderNaverPlace {
			errs = append(errs, c.Naver.Maps.missing("naver.maps")...)
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.geocoder must be %s or %s, got %q",
			ProviderNaverReverse, ProviderNone, c.Provider.Geocoder))
	}

	if c.Naver.MapsBaseURL == "" || c.Naver.SearchBaseURL == "" {
		errs = append(errs, "naver.maps_base_url and naver.search_base_url are required")
	}
	if strings.TrimSpace(c.Recommend.Keyword) == "" {
		errs = append(errs, "recommend.keyword is required")
	}
	if strings.TrimSpace(c.Recommend.FallbackRegion) == "" {
		errs = append(errs, "recommend.fallback_region is required")
	}
	if s, err := domain.ParseStrategy(c.Recommend.Strategy, ""); err != nil || s == "" {
		errs = append(errs, fmt.Sprintf("recommend.strategy must be all or random, got %q", c.Recommend.Strategy))
	}
	if c.Recommend.CallTimeout <= 0 {
		errs = append(errs, "recommend.call_timeout must be positive")
	}
	if c.Recommend.RatePerSec <= 0 {
		errs = append(errs, "recommend.rate_per_sec must be positive")
	}
	if c.Recommend.Burst < 1 {
		errs = append(errs, "recommend.burst must be at least 1")
	}
	if c.Recommend.ResultLimit < 1 || c.Recommend.ResultLimit > 5 {
		errs = append(errs, "recommend.result_limit must be 1-5")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}
	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Sprintf("telemetry.exporter must be stdout or otlp, got %q", c.Telemetry.Exporter))
		}
		if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
			errs = append(errs, "telemetry.sample_ratio must be within [0, 1]")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (n NaverCredentials) missing(prefix string) []string {
	var errs []string
	if n.ClientID == "" {
		errs = append(errs, prefix+".client_id is required")
	}
	if n.ClientSecret == "" {
		errs = append(errs, prefix+".client_secret is required")
	}
	return errs
}
