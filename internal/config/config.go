// Package config manages application configuration.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/logging"
)

// Config represents the application configuration.
type Config struct {
	Resize    ResizeConfig    `yaml:"resize"`
	Probe     ProbeConfig     `yaml:"probe"`
	Resources ResourcesConfig `yaml:"resources"`
	Log       LogConfig       `yaml:"log"`
}

// ResizeConfig holds the resize dialog preferences.
type ResizeConfig struct {
	DefaultMode       string  `yaml:"default_mode" validate:"required,oneof=percentage absolute"`
	HTMLStyle         string  `yaml:"html_style" validate:"required,oneof=width width_height"`
	DefaultPercentage float64 `yaml:"default_percentage" validate:"gte=1,lte=1000"`
}

// ProbeConfig controls how remote images are measured.
type ProbeConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=120"`
	UserAgent      string `yaml:"user_agent"`
}

// ResourcesConfig locates resource files. An empty Dir means the
// _resources directory next to the document.
type ResourcesConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig contains logging options.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Resize: ResizeConfig{
			DefaultMode:       string(ir.ModePercentage),
			HTMLStyle:         string(ir.StyleWidthAndHeight),
			DefaultPercentage: 100,
		},
		Probe: ProbeConfig{
			TimeoutSeconds: 10,
			UserAgent:      "mdimg",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ResizeMode returns the default resize mode.
func (c *Config) ResizeMode() ir.ResizeMode {
	m, err := ir.ParseResizeMode(c.Resize.DefaultMode)
	if err != nil {
		return ir.ModePercentage
	}
	return m
}

// HTMLStyle returns the HTML emission style.
func (c *Config) HTMLStyle() ir.HTMLStyle {
	s, err := ir.ParseHTMLStyle(c.Resize.HTMLStyle)
	if err != nil {
		return ir.StyleWidthAndHeight
	}
	return s
}

// ProbeTimeout returns the external probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// Logging converts the log section into a logger configuration.
func (c *Config) Logging() (logging.Config, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{Level: level, Format: logging.Format(c.Log.Format)}, nil
}

// Keys lists the settable configuration keys.
func Keys() []string {
	return []string{
		"resize.default_mode",
		"resize.html_style",
		"resize.default_percentage",
		"probe.timeout_seconds",
		"probe.user_agent",
		"resources.dir",
		"log.level",
		"log.format",
	}
}

// Get returns the value of a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "resize.default_mode":
		return c.Resize.DefaultMode, nil
	case "resize.html_style":
		return c.Resize.HTMLStyle, nil
	case "resize.default_percentage":
		return strconv.FormatFloat(c.Resize.DefaultPercentage, 'f', -1, 64), nil
	case "probe.timeout_seconds":
		return strconv.Itoa(c.Probe.TimeoutSeconds), nil
	case "probe.user_agent":
		return c.Probe.UserAgent, nil
	case "resources.dir":
		return c.Resources.Dir, nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set assigns a dotted key and validates the result. On error c is unchanged.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case "resize.default_mode":
		next.Resize.DefaultMode = value
	case "resize.html_style":
		next.Resize.HTMLStyle = value
	case "resize.default_percentage":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		next.Resize.DefaultPercentage = v
	case "probe.timeout_seconds":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		next.Probe.TimeoutSeconds = v
	case "probe.user_agent":
		next.Probe.UserAgent = value
	case "resources.dir":
		next.Resources.Dir = value
	case "log.level":
		next.Log.Level = value
	case "log.format":
		next.Log.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
