package domain

import "time"

// Config holds the complete Reefwatch configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Profile determines which backing services are wired in
	Profile Profile `json:"profile"`

	// Analytics thresholds
	Analytics AnalyticsConfig `json:"analytics"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	History    HistoryConfig    `json:"history"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// AnalyticsConfig holds the fixed analytic thresholds.
type AnalyticsConfig struct {
	// MinLifetimeMeetings is the floor below which a vessel is excluded
	// from the selectable vessel universe entirely.
	MinLifetimeMeetings int `json:"minLifetimeMeetings"`

	// Percentile thresholds for the Medium and High suspicion buckets.
	MediumPercentile float64 `json:"mediumPercentile"`
	HighPercentile   float64 `json:"highPercentile"`

	// AlertThreshold is the composite score above which the assessment
	// processor flags a vessel.
	AlertThreshold float64 `json:"alertThreshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// Profile represents the deployment profile.
type Profile string

const (
	// ProfileStandalone runs on SQLite + in-process cache + channel bus
	ProfileStandalone Profile = "standalone"

	// ProfileFleet runs on PostgreSQL + NATS + Redis
	ProfileFleet Profile = "fleet"
)

// DefaultConfig returns a default configuration for the standalone profile.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Profile: ProfileStandalone,
		Analytics: AnalyticsConfig{
			MinLifetimeMeetings: 10,
			MediumPercentile:    0.5,
			HighPercentile:      0.9,
			AlertThreshold:      0.7,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./reefwatch.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		History: HistoryConfig{
			TimeoutSecs:   10,
			MaxWindowDays: 365,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "reefwatch",
		},
	}
}

// FleetConfig returns a configuration for the fleet profile.
func FleetConfig() *Config {
	cfg := DefaultConfig()
	cfg.Profile = ProfileFleet
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "reefwatch",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
