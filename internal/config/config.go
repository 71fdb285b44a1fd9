// Package config loads the attention guard configuration: a YAML file,
// an optional .env file and ATTENTION_* environment overrides, applied in
// that order on top of the package defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-attention/pkg/alert"
	"github.com/teslashibe/go-attention/pkg/attention"
	"github.com/teslashibe/go-attention/pkg/history"
	"github.com/teslashibe/go-attention/pkg/session"
	"github.com/teslashibe/go-attention/pkg/web"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ATTENTION_"

// DefaultFiles are searched in order when no path is given.
var DefaultFiles = []string{"attention.yaml", "attention.yml", "config/attention.yaml"}

// Config is the full application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Preset selects a threshold baseline: "default", "sensitive" or "relaxed".
	// Explicit threshold fields still override it.
	Preset     string           `yaml:"preset"`
	Thresholds attention.Config `yaml:"thresholds"`
	Session    session.Config   `yaml:"session"`
	Alert      alert.Config     `yaml:"alert"`
	Server     web.Config       `yaml:"server"`
	History    history.Config   `yaml:"history"`

	// Source is the file this configuration was read from, if any.
	Source string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Preset:     "default",
		Thresholds: attention.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Alert:      alert.DefaultConfig(),
		Server:     web.DefaultConfig(),
		History:    history.DefaultConfig(),
	}
}

// Load reads path, or the first default file found when path is empty.
// A missing default file is not an error. The .env file in the working
// directory is loaded when present; variables already set win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	data, source, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := cfg.applyYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", source, err)
		}
		cfg.Source = source
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", path, err)
		}
		return data, path, nil
	}
	for _, name := range DefaultFiles {
		if data, err := os.ReadFile(name); err == nil {
			return data, name, nil
		}
	}
	return nil, "", nil
}

// applyYAML resolves the preset first so explicit thresholds override it.
func (c *Config) applyYAML(data []byte) error {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Preset != "" {
		th, err := presetThresholds(head.Preset)
		if err != nil {
			return err
		}
		c.Preset = head.Preset
		c.Thresholds = th
	}
	return yaml.Unmarshal(data, c)
}

func presetThresholds(name string) (attention.Config, error) {
	switch strings.ToLower(name) {
	case "default", "":
		return attention.DefaultConfig(), nil
	case "sensitive":
		return attention.SensitiveConfig(), nil
	case "relaxed":
		return attention.RelaxedConfig(), nil
	}
	return attention.Config{}, fmt.Errorf("unknown preset %q", name)
}

// applyEnv applies ATTENTION_* overrides using lookup.
func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	float := func(key string, dst *float64) {
		if v := getenv(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	if p := getenv(EnvPrefix + "PRESET"); p != "" {
		th, err := presetThresholds(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPRESET: %w", EnvPrefix, err))
		} else {
			c.Preset = p
			c.Thresholds = th
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	float("EAR_DROWSY", &c.Thresholds.EARDrowsy)
	float("EAR_BLINK", &c.Thresholds.EARBlink)
	integer("DROWSY_CONSEC_FRAMES", &c.Thresholds.DrowsyConsecFrames)
	float("CENTER_TOLERANCE_X", &c.Thresholds.CenterToleranceX)
	float("CENTER_TOLERANCE_Y", &c.Thresholds.CenterToleranceY)
	duration("DISTRACTION_GRACE", &c.Thresholds.DistractionGrace)
	str("SESSION_DIR", &c.Session.Dir)
	duration("TICK_INTERVAL", &c.Session.TickInterval)
	boolean("CHART", &c.Session.Chart)
	boolean("MUTED", &c.Alert.Muted)
	duration("ALERT_COOLDOWN", &c.Alert.Cooldown)
	if v := getenv(EnvPrefix + "ALERT_COMMAND"); v != "" {
		c.Alert.Command = strings.Fields(v)
	}
	str("ADDR", &c.Server.Addr)
	boolean("DRAW_MESH", &c.Server.DrawMesh)
	str("HISTORY_BACKEND", &c.History.Backend)
	str("HISTORY_PATH", &c.History.Path)

	return errors.Join(errs...)
}

// Validate checks every section.
func (c *Config) Validate() error {
	return errors.Join(
		c.Thresholds.Validate(),
		c.Session.Validate(),
		c.Alert.Validate(),
		c.History.Validate(),
	)
}
