// Package config loads settings from .env, an optional config.yaml and
// DIALER_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"dialer-insights-go/internal/logger"
)

type Config struct {
	Environment string         `yaml:"environment" mapstructure:"environment"`
	Server      ServerConfig   `yaml:"server" mapstructure:"server"`
	Store       StoreConfig    `yaml:"store" mapstructure:"store"`
	Analysis    AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Watch       WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Log         LogConfig      `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	UploadRate  float64  `yaml:"upload_rate" mapstructure:"upload_rate"`
	UploadBurst int      `yaml:"upload_burst" mapstructure:"upload_burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// StoreConfig selects the analysis store. DSN is a file path for sqlite and
// a connection string for postgres.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

type AnalysisConfig struct {
	Timezone      string `yaml:"timezone" mapstructure:"timezone"`
	PrefixCatalog string `yaml:"prefix_catalog" mapstructure:"prefix_catalog"`
}

type WatchConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	MaxWaitSecs int    `yaml:"max_wait_secs" mapstructure:"max_wait_secs"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads the configuration. A missing config.yaml or .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIALER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// unprefixed names kept for existing deployments
	_ = v.BindEnv("environment", "DIALER_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("log.level", "DIALER_LOG_LEVEL", "LOG_LEVEL")

	v.SetDefault("environment", "local")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.upload_rate", 2)
	v.SetDefault("server.upload_burst", 4)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("analysis.timezone", "UTC")
	v.SetDefault("analysis.prefix_catalog", "")
	v.SetDefault("watch.dir", "./inbox")
	v.SetDefault("watch.max_wait_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return eris.Errorf("config: server.max_upload_mb must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Location resolves analysis.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Analysis.Timezone)
	}
	return loc, nil
}

func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Watch.MaxWaitSecs) * time.Second
}

// LoggerOptions maps the log settings onto the logger package.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:       c.Log.Level,
		Format:      c.Log.Format,
		Environment: c.Environment,
	}
}
