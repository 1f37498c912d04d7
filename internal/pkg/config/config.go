package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Initial map view: Gujarat, India.
const (
	DefaultCenterLat = 22.6708
	DefaultCenterLon = 71.5724
	DefaultZoom      = 7.5
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Source    SourceConfig    `mapstructure:"source"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Cluster   ClusterConfig   `mapstructure:"cluster"`
	View      ViewConfig      `mapstructure:"view"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// SourceConfig selects where the record text comes from. Path wins over URL.
type SourceConfig struct {
	URL             string        `mapstructure:"url"`
	Path            string        `mapstructure:"path"`
	TimeoutSeconds  int           `mapstructure:"timeout_seconds"`
	CacheTTLSeconds int           `mapstructure:"cache_ttl_seconds"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`
	IntervalSeconds  int    `mapstructure:"interval_seconds"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

// ValkeyConfig: an empty Addr disables caching.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// NATSConfig: an empty URL disables reload notifications.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ReloadSubject string `mapstructure:"reload_subject"`
}

type ClusterConfig struct {
	DistancePx float64 `mapstructure:"distance_px"`
}

// ViewConfig is the initial view for new sessions and /v1/layer defaults.
type ViewConfig struct {
	CenterLat float64 `mapstructure:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon"`
	Zoom      float64 `mapstructure:"zoom"`
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
}

type TilesConfig struct {
	URL string `mapstructure:"url"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("source.url", "http://localhost:3000/geocoded.csv")
	v.SetDefault("source.path", "")
	v.SetDefault("source.timeout_seconds", 15)
	v.SetDefault("source.cache_ttl_seconds", 300)
	v.SetDefault("source.breaker.max_requests", 1)
	v.SetDefault("source.breaker.interval_seconds", 60)
	v.SetDefault("source.breaker.timeout_seconds", 30)
	v.SetDefault("source.breaker.failure_threshold", 5)
	v.SetDefault("valkey.addr", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.reload_subject", "dropmap.records.updated")
	v.SetDefault("cluster.distance_px", 10)
	v.SetDefault("view.center_lat", DefaultCenterLat)
	v.SetDefault("view.center_lon", DefaultCenterLon)
	v.SetDefault("view.zoom", DefaultZoom)
	v.SetDefault("view.width", 1024)
	v.SetDefault("view.height", 768)
	v.SetDefault("tiles.url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: DROPMAP_SOURCE_URL → source.url
	v.SetEnvPrefix("DROPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	if c.Source.URL == "" && c.Source.Path == "" {
		errs = append(errs, "source.url or source.path is required")
	}
	if c.Source.TimeoutSeconds <= 0 {
		errs = append(errs, "source.timeout_seconds must be positive")
	}
	if c.Source.CacheTTLSeconds < 0 {
		errs = append(errs, "source.cache_ttl_seconds must not be negative")
	}
	if c.Cluster.DistancePx < 0 {
		errs = append(errs, fmt.Sprintf("cluster.distance_px must not be negative, got %v", c.Cluster.DistancePx))
	}
	if c.View.CenterLat < -90 || c.View.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("view.center_lat must be -90..90, got %v", c.View.CenterLat))
	}
	if c.View.CenterLon < -180 || c.View.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("view.center_lon must be -180..180, got %v", c.View.CenterLon))
	}
	if c.View.Zoom < 0 || c.View.Zoom > 28 {
		errs = append(errs, fmt.Sprintf("view.zoom must be 0-28, got %v", c.View.Zoom))
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		errs = append(errs, "view.width and view.height must be positive")
	}
	if c.Tiles.URL == "" {
		errs = append(errs, "tiles.url is required")
	}
	if c.Telemetry.Enabled && c.Telemetry.TempoAddr == "" {
		errs = append(errs, "telemetry.tempo_addr is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
