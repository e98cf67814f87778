package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Monitor  MonitorConfig
	Imagery  ImageryConfig
	Evidence EvidenceConfig
	Ledger   LedgerConfig
	Alerts   AlertsConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type MonitorConfig struct {
	Interval            time.Duration
	LookbackDays        int
	ChangeThreshold     float64
	SignificancePercent float64
	ToleranceDegrees    float64
	RegionsPath         string
}

// ImageryConfig holds imagery gateway access. Credentials are optional;
// without them every fetch reports insufficient data.
type ImageryConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// EvidenceConfig holds pinning service access. Optional; without keys,
// evidence publication is skipped.
type EvidenceConfig struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

// LedgerConfig holds ledger gateway access. SigningKey is optional;
// without it, reads work but events are not notarized.
type LedgerConfig struct {
	GatewayURL      string
	SigningKey      string
	ReporterAddress string
	Timeout         time.Duration
}

type AlertsConfig struct {
	CallbackURL string
	Workers     int
	BufferSize  int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Monitor: MonitorConfig{
			Interval:            getEnvDuration("MONITOR_INTERVAL", 24*time.Hour),
			LookbackDays:        getEnvInt("MONITOR_LOOKBACK_DAYS", 1),
			ChangeThreshold:     getEnvFloat("MONITOR_CHANGE_THRESHOLD", 0.3),
			SignificancePercent: getEnvFloat("MONITOR_SIGNIFICANCE_PERCENT", 5.0),
			ToleranceDegrees:    getEnvFloat("MONITOR_TOLERANCE_DEGREES", 0.01),
			RegionsPath:         getEnv("MONITOR_REGIONS_PATH", "./regions.yaml"),
		},
		Imagery: ImageryConfig{
			BaseURL:      getEnv("SENTINEL_BASE_URL", "https://services.sentinel-hub.com"),
			ClientID:     getEnv("SENTINEL_CLIENT_ID", ""),
			ClientSecret: getEnv("SENTINEL_CLIENT_SECRET", ""),
			Timeout:      getEnvDuration("SENTINEL_TIMEOUT", 30*time.Second),
		},
		Evidence: EvidenceConfig{
			BaseURL:   getEnv("PINATA_BASE_URL", "https://api.pinata.cloud"),
			APIKey:    getEnv("PINATA_API_KEY", ""),
			SecretKey: getEnv("PINATA_SECRET_API_KEY", ""),
			Timeout:   getEnvDuration("PINATA_TIMEOUT", 60*time.Second),
		},
		Ledger: LedgerConfig{
			GatewayURL:      getEnv("LEDGER_GATEWAY_URL", "http://localhost:8545"),
			SigningKey:      getEnv("LEDGER_SIGNING_KEY", ""),
			ReporterAddress: getEnv("LEDGER_REPORTER_ADDRESS", ""),
			Timeout:         getEnvDuration("LEDGER_TIMEOUT", 120*time.Second),
		},
		Alerts: AlertsConfig{
			CallbackURL: getEnv("ALERT_CALLBACK_URL", ""),
			Workers:     getEnvInt("ALERT_WORKERS", 2),
			BufferSize:  getEnvInt("ALERT_BUFFER_SIZE", 20),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/forest-watch.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Monitor.Interval < time.Minute {
		return fmt.Errorf("monitor interval must be at least 1 minute")
	}
	if c.Monitor.LookbackDays < 1 {
		return fmt.Errorf("lookback must be at least 1 day")
	}
	if c.Monitor.ChangeThreshold <= 0 || c.Monitor.ChangeThreshold >= 2 {
		return fmt.Errorf("change threshold must be in (0, 2): %v", c.Monitor.ChangeThreshold)
	}
	if c.Monitor.SignificancePercent < 0 || c.Monitor.SignificancePercent > 100 {
		return fmt.Errorf("significance percent must be in [0, 100]: %v", c.Monitor.SignificancePercent)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
