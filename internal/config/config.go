// Package config provides configuration management for the playground
// engine using Viper: a YAML file, PATTERNLAB_-prefixed environment
// variables, and command-line flag bindings, with security validation
// of the loaded values.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full engine configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Playground PlaygroundConfig `yaml:"playground" mapstructure:"playground"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit" mapstructure:"ratelimit"`
	Patterns   PatternsConfig   `yaml:"patterns" mapstructure:"patterns"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Environment    string   `yaml:"environment" mapstructure:"environment"`
}

// PlaygroundConfig holds visitor-session settings.
type PlaygroundConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// RateLimitConfig holds the per-IP endpoint limiter settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxClients        int  `yaml:"max_clients" mapstructure:"max_clients"`
}

// PatternsConfig holds the catalog overlay settings.
type PatternsConfig struct {
	File  string `yaml:"file" mapstructure:"file"`
	Watch bool   `yaml:"watch" mapstructure:"watch"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SetDefaults registers every default value on the viper instance.
// Called once from the CLI before binding flags.
func SetDefaults() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.allowed_origins", []string{})
	viper.SetDefault("server.environment", "development")

	viper.SetDefault("playground.session_ttl", 30*time.Minute)
	viper.SetDefault("playground.sweep_interval", time.Minute)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests_per_minute", 60)
	viper.SetDefault("ratelimit.max_clients", 10000)

	viper.SetDefault("patterns.file", "")
	viper.SetDefault("patterns.watch", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// Load unmarshals the viper state into a validated Config.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Playground.SessionTTL <= 0 {
		config.Playground.SessionTTL = 30 * time.Minute
	}
	if config.Playground.SweepInterval <= 0 {
		config.Playground.SweepInterval = time.Minute
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Address returns the host:port pair the server binds.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// validateConfig validates configuration values for security and
// correctness.
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateRateLimitConfig(&config.RateLimit); err != nil {
		return fmt.Errorf("ratelimit config: %w", err)
	}
	if err := validatePatternsConfig(&config.Patterns); err != nil {
		return fmt.Errorf("patterns config: %w", err)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Port 0 is allowed so tests can bind system-assigned ports.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	switch strings.ToLower(config.Environment) {
	case "", "development", "staging", "production":
	default:
		return fmt.Errorf("unknown environment %q", config.Environment)
	}

	return nil
}

func validateRateLimitConfig(config *RateLimitConfig) error {
	if config.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	if config.MaxClients < 0 {
		return fmt.Errorf("max_clients must not be negative")
	}
	return nil
}

func validatePatternsConfig(config *PatternsConfig) error {
	if config.File == "" {
		if config.Watch {
			return fmt.Errorf("watch requires a patterns file")
		}
		return nil
	}

	cleanPath := filepath.Clean(config.File)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("patterns file contains path traversal: %s", config.File)
	}
	return nil
}
