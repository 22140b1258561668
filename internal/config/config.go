package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Verifier VerifierConfig `mapstructure:"verifier"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port               string `mapstructure:"port"`
	Mode               string `mapstructure:"mode"`
	Host               string `mapstructure:"host"`
	EnableRateLimit    bool   `mapstructure:"enable_rate_limit"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int    `mapstructure:"rate_limit_burst"`
}

// VerifierConfig holds every knob the verification engine consumes.
type VerifierConfig struct {
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	TableTimeout    time.Duration `mapstructure:"table_timeout"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxTableWorkers int           `mapstructure:"max_table_workers"`
	Parallel        bool          `mapstructure:"parallel"`
	SampleSize      int           `mapstructure:"sample_size"`
	SchemaCacheTTL  time.Duration `mapstructure:"schema_cache_ttl"`
	NetworkIdleTTL  time.Duration `mapstructure:"network_idle_ttl"`
	FileIdleTTL     time.Duration `mapstructure:"file_idle_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and environment
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.enable_rate_limit", false)
	viper.SetDefault("server.rate_limit_per_minute", 60)
	viper.SetDefault("server.rate_limit_burst", 10)

	// Verifier defaults
	viper.SetDefault("verifier.connect_timeout", "30s")
	viper.SetDefault("verifier.query_timeout", "60s")
	viper.SetDefault("verifier.table_timeout", "30s")
	viper.SetDefault("verifier.max_connections", 10)
	viper.SetDefault("verifier.max_table_workers", 5)
	viper.SetDefault("verifier.parallel", true)
	viper.SetDefault("verifier.sample_size", 5)
	viper.SetDefault("verifier.schema_cache_ttl", "300s")
	viper.SetDefault("verifier.network_idle_ttl", "300s")
	viper.SetDefault("verifier.file_idle_ttl", "30s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Default returns the engine defaults without consulting viper. Tests and
// embedded callers use this to avoid global viper state.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "debug", Host: "0.0.0.0", RateLimitPerMinute: 60, RateLimitBurst: 10},
		Verifier: VerifierConfig{
			ConnectTimeout:  30 * time.Second,
			QueryTimeout:    60 * time.Second,
			TableTimeout:    30 * time.Second,
			MaxConnections:  10,
			MaxTableWorkers: 5,
			Parallel:        true,
			SampleSize:      5,
			SchemaCacheTTL:  5 * time.Minute,
			NetworkIdleTTL:  5 * time.Minute,
			FileIdleTTL:     30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}
