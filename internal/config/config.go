// Package config loads application configuration from config.yaml and
// LEADOPS_* environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Forge     ForgeConfig     `yaml:"forge" mapstructure:"forge"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the board persistence backend.
type StoreConfig struct {
	// Driver is one of: memory, sqlite, postgres, redis.
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the database file for the sqlite driver.
	Path string `yaml:"path" mapstructure:"path"`
	// DatabaseURL is the DSN for the postgres and redis drivers.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	HaikuModel string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// ForgeConfig configures strategy/narrative generation.
type ForgeConfig struct {
	// Version is the monotonic generation-recipe tag. Bump it whenever
	// the prompts change; leads with older payloads regenerate on their
	// next STRATEGIZE entry.
	Version     int `yaml:"version" mapstructure:"version"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DiscoveryConfig configures candidate ingestion.
type DiscoveryConfig struct {
	// FetchRatePerSec limits homepage fetches during audits.
	FetchRatePerSec float64 `yaml:"fetch_rate_per_sec" mapstructure:"fetch_rate_per_sec"`
	// Audit enables the Claude sub-score audit after normalization.
	Audit bool `yaml:"audit" mapstructure:"audit"`
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range Defaults() {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Defaults returns the default configuration values, keyed by viper path.
func Defaults() map[string]any {
	return map[string]any{
		"store.driver":                "sqlite",
		"store.path":                  "leadops.db",
		"anthropic.haiku_model":       "claude-haiku-4-5-20251001",
		"anthropic.sonnet_model":      "claude-sonnet-4-5-20250929",
		"forge.version":               1,
		"forge.timeout_secs":          120,
		"discovery.fetch_rate_per_sec": 2.0,
		"discovery.audit":             false,
		"server.port":                 8080,
		"log.level":                   "info",
		"log.format":                  "json",
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
