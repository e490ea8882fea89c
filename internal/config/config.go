package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// DatabaseURL is optional; without it ingested batches are not archived.
	DatabaseURL string `env:"DATABASE_URL"`

	MaxRecords         int           `env:"MAX_RECORDS" default:"1000"`
	SampleRecordCount  int           `env:"SAMPLE_RECORD_COUNT" default:"100"`
	EnableSimulation   bool          `env:"ENABLE_SIMULATION" default:"true"`
	SimulationInterval time.Duration `env:"SIMULATION_INTERVAL" default:"2s"`
	SimulationWarmup   time.Duration `env:"SIMULATION_WARMUP" default:"3s"`

	MaxUploadBytes          int64   `env:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB
	UploadRatePerSecond     float64 `env:"UPLOAD_RATE_PER_SECOND" default:"1"`
	UploadRateBurst         int     `env:"UPLOAD_RATE_BURST" default:"5"`
	MaxWebSocketConnections int     `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAMLFile(path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadYAMLFile seeds the environment from a flat YAML mapping of
// variable names to values. Variables already set keep their value, so
// the file acts as defaults like a .env file does.
func loadYAMLFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to apply config file value %s: %w", key, err)
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.MaxRecords <= 0 {
		return fmt.Errorf("MAX_RECORDS must be positive, got %d", cfg.MaxRecords)
	}
	if cfg.SampleRecordCount <= 0 {
		return fmt.Errorf("SAMPLE_RECORD_COUNT must be positive, got %d", cfg.SampleRecordCount)
	}
	if cfg.SimulationInterval <= 0 {
		return fmt.Errorf("SIMULATION_INTERVAL must be positive, got %s", cfg.SimulationInterval)
	}
	if cfg.SimulationWarmup < 0 {
		return fmt.Errorf("SIMULATION_WARMUP must not be negative, got %s", cfg.SimulationWarmup)
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if cfg.UploadRatePerSecond <= 0 {
		return fmt.Errorf("UPLOAD_RATE_PER_SECOND must be positive, got %g", cfg.UploadRatePerSecond)
	}
	if cfg.UploadRateBurst <= 0 {
		return fmt.Errorf("UPLOAD_RATE_BURST must be positive, got %d", cfg.UploadRateBurst)
	}
	if cfg.MaxWebSocketConnections <= 0 {
		return fmt.Errorf("MAX_WEBSOCKET_CONNECTIONS must be positive, got %d", cfg.MaxWebSocketConnections)
	}
	return nil
}
