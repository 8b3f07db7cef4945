package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service reads at startup. All values have
// working defaults; any of them can be overridden through REORDER_-prefixed
// environment variables (REORDER_SERVER_ADDR, REORDER_PIPELINE_EPOCHS, ...)
// or an optional reorder.yaml in the working directory.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"` // empty disables Redis
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"` // empty selects the in-memory repositories
}

// PipelineConfig carries the fixed knobs of the reorder-signal pipeline.
type PipelineConfig struct {
	BatchSize           int           `mapstructure:"batch_size"`
	Epochs              int           `mapstructure:"epochs"`
	LearningRate        float64       `mapstructure:"learning_rate"`
	LowStockProbability float64       `mapstructure:"low_stock_probability"`
	SafetyFactor        float64       `mapstructure:"safety_factor"`
	DecisionThreshold   float64       `mapstructure:"decision_threshold"`
	FetchDelay          time.Duration `mapstructure:"fetch_delay"`
}

// Load reads configuration with viper, applying defaults, the optional
// config file and environment overrides, in that order.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_secret", "super-secret-key") // move to env in prod
	v.SetDefault("redis.addr", "")
	v.SetDefault("database.url", "")
	v.SetDefault("pipeline.batch_size", 100)
	v.SetDefault("pipeline.epochs", 50)
	v.SetDefault("pipeline.learning_rate", 0.05)
	v.SetDefault("pipeline.low_stock_probability", 0.6)
	v.SetDefault("pipeline.safety_factor", 0.5)
	v.SetDefault("pipeline.decision_threshold", 0.5)
	v.SetDefault("pipeline.fetch_delay", 800*time.Millisecond)

	v.SetConfigName("reorder")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:      v.GetString("server.addr"),
			JWTSecret: v.GetString("server.jwt_secret"),
		},
		Redis: RedisConfig{
			Addr: v.GetString("redis.addr"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		Pipeline: PipelineConfig{
			BatchSize:           v.GetInt("pipeline.batch_size"),
			Epochs:              v.GetInt("pipeline.epochs"),
			LearningRate:        v.GetFloat64("pipeline.learning_rate"),
			LowStockProbability: v.GetFloat64("pipeline.low_stock_probability"),
			SafetyFactor:        v.GetFloat64("pipeline.safety_factor"),
			DecisionThreshold:   v.GetFloat64("pipeline.decision_threshold"),
			FetchDelay:          v.GetDuration("pipeline.fetch_delay"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	p := c.Pipeline
	if p.Epochs <= 0 {
		return fmt.Errorf("pipeline epochs must be positive, got %d", p.Epochs)
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("pipeline learning rate must be positive, got %v", p.LearningRate)
	}
	if p.LowStockProbability < 0 || p.LowStockProbability > 1 {
		return fmt.Errorf("low-stock probability must be in [0,1], got %v", p.LowStockProbability)
	}
	if p.SafetyFactor < 0 {
		return fmt.Errorf("safety factor cannot be negative, got %v", p.SafetyFactor)
	}
	if p.DecisionThreshold < 0 || p.DecisionThreshold > 1 {
		return fmt.Errorf("decision threshold must be in [0,1], got %v", p.DecisionThreshold)
	}
	// BatchSize may be zero or negative: the pipeline treats that as an
	// empty batch rather than a startup failure.
	return nil
}
