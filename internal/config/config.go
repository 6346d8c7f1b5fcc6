// Package config loads server and CLI settings.
//
// Sources, lowest precedence first: built-in defaults, an optional config file
// (YAML, TOML or JSON, picked by extension), then environment variables. Every
// key's variable is its upper-cased name: db_path → DB_PATH. A .env file in the
// working directory is loaded into the environment by the binaries before Load
// runs.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved settings.
type Config struct {
	Port            int           `mapstructure:"port"`
	DBPath          string        `mapstructure:"db_path"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// JWTSecret enables bearer auth on write endpoints when set.
	JWTSecret string `mapstructure:"jwt_secret"`

	GitHubToken     string        `mapstructure:"github_token"`
	GitHubBaseURL   string        `mapstructure:"github_base_url"`
	GitHubRPS       float64       `mapstructure:"github_rps"`
	GitHubMaxRepos  int           `mapstructure:"github_max_repos"`
	UpstreamTTL     time.Duration `mapstructure:"upstream_ttl"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`

	GenerationTTL       time.Duration `mapstructure:"generation_ttl"`
	GenerationCacheSize int           `mapstructure:"generation_cache_size"`
	GenerationTimeout   time.Duration `mapstructure:"generation_timeout"`
	Debounce            time.Duration `mapstructure:"debounce"`
	MaxPreviews         int           `mapstructure:"max_previews"`
	PreviewIdle         time.Duration `mapstructure:"preview_idle"`

	// WidgetMaxAge is the Cache-Control max-age of widget responses.
	WidgetMaxAge time.Duration `mapstructure:"widget_max_age"`

	EnhanceURL    string `mapstructure:"enhance_url"`
	EnhanceAPIKey string `mapstructure:"enhance_api_key"`
	EnhanceRPM    int    `mapstructure:"enhance_rpm"`
}

var defaults = map[string]any{
	"port":             8080,
	"db_path":          "data/widgets.db",
	"public_base_url":  "http://localhost:8080",
	"log_level":        "info",
	"shutdown_timeout": 30 * time.Second,

	"jwt_secret": "",

	"github_token":     "",
	"github_base_url":  "https://api.github.com",
	"github_rps":       10.0,
	"github_max_repos": 100,
	"upstream_ttl":     5 * time.Minute,
	"upstream_timeout": 10 * time.Second,

	"generation_ttl":        10 * time.Minute,
	"generation_cache_size": 256,
	"generation_timeout":    10 * time.Second,
	"debounce":              400 * time.Millisecond,
	"max_previews":          256,
	"preview_idle":          15 * time.Minute,

	"widget_max_age": 30 * time.Minute,

	"enhance_url":     "",
	"enhance_api_key": "",
	"enhance_rpm":     30,
}

// Load resolves the configuration. file may be empty.
func Load(file string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	u, err := url.Parse(c.PublicBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: public_base_url %q must be an absolute http(s) URL", c.PublicBaseURL)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: jwt_secret must be at least 16 characters")
	}
	if c.GenerationTTL <= 0 || c.UpstreamTTL <= 0 {
		return fmt.Errorf("config: cache TTLs must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel is LogLevel as a slog.Level. Validate has already vetted it.
func (c Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel accepts debug, info, warn and error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
	return level, nil
}
