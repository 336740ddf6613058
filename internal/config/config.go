package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Predictor  ServiceConfig
	MarketData MarketDataConfig
	Kafka      KafkaConfig
	Backtest   BacktestConfig
	Logging    LoggingConfig
	ServiceKey string
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServiceConfig holds configuration for external services
type ServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// MarketDataConfig holds market data provider configuration
type MarketDataConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// BacktestConfig holds backtest engine configuration
type BacktestConfig struct {
	MinBars int
	Workers int
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "30m")

	// Predictor service defaults
	v.SetDefault("predictor.url", "http://predictor:5000")
	v.SetDefault("predictor.timeout", "120s")

	// Market data provider defaults
	v.SetDefault("marketData.requestsPerMinute", 5)

	// Kafka defaults
	v.SetDefault("kafka.clientID", "smart-stock-trader")

	// Backtest defaults
	v.SetDefault("backtest.minBars", 100)
	v.SetDefault("backtest.workers", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("serviceKey", "smart-stock-trader-key")
}
