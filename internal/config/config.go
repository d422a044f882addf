package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	ThousandEyes ThousandEyesConfig `mapstructure:"thousandeyes"`
	Webex        WebexConfig        `mapstructure:"webex"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type ThousandEyesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WebexConfig struct {
	APIBase        string `mapstructure:"api_base"`
	Token          string `mapstructure:"token"`
	BotEmail       string `mapstructure:"bot_email"`
	WebhookBaseURL string `mapstructure:"webhook_base_url"`
}

// CacheConfig controls the optional redis-backed agent lookup cache.
// An empty Addr disables caching entirely.
type CacheConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Warn("config file not found, using defaults")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Info("configuration loaded successfully")
	return &config, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "netpulse")
	viper.SetDefault("app.version", "1.0.0")

	// Server defaults
	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.mode", "debug")

	// ThousandEyes defaults
	viper.SetDefault("thousandeyes.base_url", "https://api.thousandeyes.com/v6")
	viper.SetDefault("thousandeyes.token", "")
	viper.SetDefault("thousandeyes.timeout", "15s")

	// Webex defaults
	viper.SetDefault("webex.api_base", "https://webexapis.com/v1")
	viper.SetDefault("webex.token", "")
	viper.SetDefault("webex.bot_email", "")
	viper.SetDefault("webex.webhook_base_url", "")

	// Cache defaults (disabled until an address is configured)
	viper.SetDefault("cache.addr", "")
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", "1h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	if cfg.Server.Mode != "debug" && cfg.Server.Mode != "release" {
		return fmt.Errorf("invalid server mode %s", cfg.Server.Mode)
	}

	if cfg.ThousandEyes.BaseURL == "" {
		return errors.New("thousandeyes base URL is required")
	}

	if cfg.ThousandEyes.Token == "" {
		return errors.New("thousandeyes token is required")
	}

	if cfg.Webex.Token == "" {
		return errors.New("webex bot token is required")
	}

	if cfg.Webex.BotEmail == "" {
		return errors.New("webex bot email is required")
	}

	if cfg.Webex.WebhookBaseURL == "" {
		return errors.New("webex webhook base URL is required")
	}

	return nil
}

// GetRedisOptions returns client options for the lookup cache.
func (c *CacheConfig) GetRedisOptions() *redis.Options {
	return &redis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		DisableIdentity: true,
	}
}

// Enabled reports whether the lookup cache has been configured.
func (c *CacheConfig) Enabled() bool {
	return c.Addr != ""
}
