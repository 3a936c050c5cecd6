package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Engine is "external" or "pdfcpu".
	Engine string `yaml:"engine,omitempty"`

	// External merge tool
	Tool    string        `yaml:"tool,omitempty"`
	Style   string        `yaml:"style,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	Verify bool `yaml:"verify,omitempty"`

	// Logging
	LogFile  string     `yaml:"logFile,omitempty"`
	LogLevel slog.Level `yaml:"-"`
	Level    string     `yaml:"logLevel,omitempty"`
}

const (
	EngineExternal = "external"
	EnginePdfcpu   = "pdfcpu"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine:   EngineExternal,
		Tool:     "qpdf",
		Style:    "qpdf",
		Timeout:  5 * time.Minute,
		LogLevel: slog.LevelInfo,
		Level:    "INFO",
	}
}

// Load resolves configuration from the defaults, the optional YAML file at
// path (or PDFMERGE_CONFIG) and the environment, later layers winning.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PDFMERGE_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Engine = getEnv("PDFMERGE_ENGINE", cfg.Engine)
	cfg.Tool = getEnv("PDFMERGE_TOOL", cfg.Tool)
	cfg.Style = getEnv("PDFMERGE_STYLE", cfg.Style)
	cfg.LogFile = getEnv("PDFMERGE_LOG_FILE", cfg.LogFile)
	cfg.Level = getEnv("PDFMERGE_LOG_LEVEL", cfg.Level)

	if v := os.Getenv("PDFMERGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse PDFMERGE_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("PDFMERGE_VERIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse PDFMERGE_VERIFY: %w", err)
		}
		cfg.Verify = b
	}

	cfg.LogLevel = ParseLogLevel(cfg.Level)
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects values no engine can run with.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineExternal:
		if c.Tool == "" {
			return fmt.Errorf("no merge tool configured")
		}
	case EnginePdfcpu:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineExternal, EnginePdfcpu)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
