package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			BaseURL:        "http://localhost:8080/endoscope",
			TimeoutSeconds: 30,
		},
		Display: DisplayConfig{
			ValueWarnLevel:     1000,
			ValueBadLevel:      3000,
			DefaultPastMinutes: 60,
			SearchMinLength:    2,
		},
		Storage: StorageConfig{
			DBPath:        "~/.local/share/scopetop/settings.db",
			RetentionDays: 180,
		},
	}
}

// Timeout is the per-request timeout for the stats API.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// DefaultPast is the rolling window used before any settings are saved.
func (c Config) DefaultPast() time.Duration {
	return time.Duration(c.Display.DefaultPastMinutes) * time.Minute
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path unless a file is
// already there. written reports whether a new file was created.
func WriteDefault(path string) (written bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	data, err := Encode(DefaultConfig())
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return false, fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("renaming config file: %w", err)
	}
	return true, nil
}
