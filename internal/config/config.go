package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Source  SourceConfig  `toml:"source"`
	Display DisplayConfig `toml:"display"`
	Storage StorageConfig `toml:"storage"`
	Metrics MetricsConfig `toml:"metrics"`
}

type SourceConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	AppType        string `toml:"app_type"`
}

type DisplayConfig struct {
	ValueWarnLevel     int `toml:"value_warn_level"`
	ValueBadLevel      int `toml:"value_bad_level"`
	DefaultPastMinutes int `toml:"default_past_minutes"`
	SearchMinLength    int `toml:"search_min_length"`
}

type StorageConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

var knownTopLevel = map[string]bool{
	"source":  true,
	"display": true,
	"storage": true,
	"metrics": true,
}

// DefaultPath is ~/.config/scopetop/config.toml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scopetop", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	result, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

func LoadFromString(data string) (*LoadResult, error) {
	if data == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	result, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

func parse(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, err
	}

	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, err
	}

	mergeFromRaw(&result.Config, &tf, raw)
	return result, nil
}

type tomlFile struct {
	Source  *SourceConfig  `toml:"source"`
	Display *DisplayConfig `toml:"display"`
	Storage *StorageConfig `toml:"storage"`
	Metrics *MetricsConfig `toml:"metrics"`
}

// mergeFromRaw copies only the keys actually present in the file so that
// explicit zero values override defaults and absent keys do not.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Source != nil {
		if section, ok := rawSection(raw, "source"); ok {
			if _, exists := section["base_url"]; exists {
				cfg.Source.BaseURL = tf.Source.BaseURL
			}
			if _, exists := section["timeout_seconds"]; exists {
				cfg.Source.TimeoutSeconds = tf.Source.TimeoutSeconds
			}
			if _, exists := section["app_type"]; exists {
				cfg.Source.AppType = tf.Source.AppType
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["value_warn_level"]; exists {
				cfg.Display.ValueWarnLevel = tf.Display.ValueWarnLevel
			}
			if _, exists := section["value_bad_level"]; exists {
				cfg.Display.ValueBadLevel = tf.Display.ValueBadLevel
			}
			if _, exists := section["default_past_minutes"]; exists {
				cfg.Display.DefaultPastMinutes = tf.Display.DefaultPastMinutes
			}
			if _, exists := section["search_min_length"]; exists {
				cfg.Display.SearchMinLength = tf.Display.SearchMinLength
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.Storage.RetentionDays = tf.Storage.RetentionDays
			}
		}
	}
	if tf.Metrics != nil {
		if section, ok := rawSection(raw, "metrics"); ok {
			if _, exists := section["listen"]; exists {
				cfg.Metrics.Listen = tf.Metrics.Listen
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func validate(cfg *Config) error {
	var errs []string

	u, err := url.Parse(cfg.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("source base_url must be an http(s) URL, got %q", cfg.Source.BaseURL))
	}
	if cfg.Source.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("source timeout_seconds must be positive, got %d", cfg.Source.TimeoutSeconds))
	}

	if cfg.Display.ValueWarnLevel < 1 {
		errs = append(errs, fmt.Sprintf("value_warn_level must be positive, got %d", cfg.Display.ValueWarnLevel))
	}
	if cfg.Display.ValueBadLevel <= cfg.Display.ValueWarnLevel {
		errs = append(errs, fmt.Sprintf("value_bad_level must be greater than value_warn_level (%d), got %d",
			cfg.Display.ValueWarnLevel, cfg.Display.ValueBadLevel))
	}
	if cfg.Display.DefaultPastMinutes < 1 {
		errs = append(errs, fmt.Sprintf("default_past_minutes must be positive, got %d", cfg.Display.DefaultPastMinutes))
	}
	if cfg.Display.SearchMinLength < 0 {
		errs = append(errs, fmt.Sprintf("search_min_length must not be negative, got %d", cfg.Display.SearchMinLength))
	}

	if cfg.Storage.RetentionDays < 0 {
		errs = append(errs, fmt.Sprintf("storage retention_days must not be negative, got %d", cfg.Storage.RetentionDays))
	}

	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			errs = append(errs, fmt.Sprintf("metrics listen must be host:port, got %q", cfg.Metrics.Listen))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
