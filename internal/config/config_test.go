package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigParser_Defaults(t *testing.T) {
	result, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing config file, got: %v", err)
	}

	cfg := result.Config

	if cfg.Source.BaseURL != "http://localhost:8080/endoscope" {
		t.Errorf("default base_url: got %s", cfg.Source.BaseURL)
	}
	if cfg.Source.TimeoutSeconds != 30 {
		t.Errorf("default timeout_seconds: want 30, got %d", cfg.Source.TimeoutSeconds)
	}
	if cfg.Source.AppType != "" {
		t.Errorf("default app_type: want empty, got %q", cfg.Source.AppType)
	}
	if cfg.Display.ValueWarnLevel != 1000 {
		t.Errorf("default value_warn_level: want 1000, got %d", cfg.Display.ValueWarnLevel)
	}
	if cfg.Display.ValueBadLevel != 3000 {
		t.Errorf("default value_bad_level: want 3000, got %d", cfg.Display.ValueBadLevel)
	}
	if cfg.Display.DefaultPastMinutes != 60 {
		t.Errorf("default default_past_minutes: want 60, got %d", cfg.Display.DefaultPastMinutes)
	}
	if cfg.Display.SearchMinLength != 2 {
		t.Errorf("default search_min_length: want 2, got %d", cfg.Display.SearchMinLength)
	}
	if cfg.Storage.DBPath != "~/.local/share/scopetop/settings.db" {
		t.Errorf("default db_path: got %s", cfg.Storage.DBPath)
	}
	if cfg.Storage.RetentionDays != 180 {
		t.Errorf("default retention_days: want 180, got %d", cfg.Storage.RetentionDays)
	}
	if cfg.Metrics.Listen != "" {
		t.Errorf("default metrics listen: want empty, got %q", cfg.Metrics.Listen)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout: got %s", cfg.Timeout())
	}
	if cfg.DefaultPast() != time.Hour {
		t.Errorf("DefaultPast: got %s", cfg.DefaultPast())
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestConfigParser_PartialConfig(t *testing.T) {
	tomlData := `
[source]
base_url = "https://stats.internal/endoscope"
app_type = "web"

[display]
value_bad_level = 5000
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := result.Config
	if cfg.Source.BaseURL != "https://stats.internal/endoscope" {
		t.Errorf("base_url: got %s", cfg.Source.BaseURL)
	}
	if cfg.Source.AppType != "web" {
		t.Errorf("app_type: got %s", cfg.Source.AppType)
	}
	if cfg.Source.TimeoutSeconds != 30 {
		t.Errorf("timeout_seconds should keep default, got %d", cfg.Source.TimeoutSeconds)
	}
	if cfg.Display.ValueBadLevel != 5000 {
		t.Errorf("value_bad_level: want 5000, got %d", cfg.Display.ValueBadLevel)
	}
	if cfg.Display.ValueWarnLevel != 1000 {
		t.Errorf("value_warn_level should keep default, got %d", cfg.Display.ValueWarnLevel)
	}
}

func TestConfigParser_InvalidValue(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{
			name: "relative base_url",
			toml: `[source]
base_url = "/endoscope"`,
		},
		{
			name: "ftp base_url",
			toml: `[source]
base_url = "ftp://host/endoscope"`,
		},
		{
			name: "zero timeout",
			toml: `[source]
timeout_seconds = 0`,
		},
		{
			name: "warn above bad",
			toml: `[display]
value_warn_level = 4000`,
		},
		{
			name: "warn equals bad",
			toml: `[display]
value_warn_level = 3000
value_bad_level = 3000`,
		},
		{
			name: "zero default window",
			toml: `[display]
default_past_minutes = 0`,
		},
		{
			name: "negative retention",
			toml: `[storage]
retention_days = -1`,
		},
		{
			name: "metrics without port",
			toml: `[metrics]
listen = "localhost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.toml)
			if err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigParser_ValidationAggregates(t *testing.T) {
	_, err := LoadFromString(`
[source]
timeout_seconds = 0

[display]
default_past_minutes = 0
`)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "config validation error: ") {
		t.Errorf("prefix: %s", msg)
	}
	if !strings.Contains(msg, "timeout_seconds") || !strings.Contains(msg, "default_past_minutes") {
		t.Errorf("both problems should be reported: %s", msg)
	}
}

func TestConfigParser_UnknownKey(t *testing.T) {
	tomlData := `
[source]
timeout_seconds = 5

[mysterious_section]
foo = "bar"
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unknown keys should not cause errors, got: %v", err)
	}

	found := false
	for _, w := range result.Warnings {
		if w == `unknown config key: "mysterious_section"` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning for mysterious_section, got %v", result.Warnings)
	}

	if result.Config.Source.TimeoutSeconds != 5 {
		t.Errorf("timeout_seconds should still be loaded: want 5, got %d", result.Config.Source.TimeoutSeconds)
	}
}

func TestConfigParser_EmptyDBPath(t *testing.T) {
	result, err := LoadFromString(`[storage]
db_path = ""`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Storage.DBPath != "" {
		t.Errorf("explicit empty db_path should override default, got %q", result.Config.Storage.DBPath)
	}
}

func TestConfigParser_FileLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	tomlContent := `
[metrics]
listen = "127.0.0.1:9464"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("writing test config file: %v", err)
	}

	result, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Metrics.Listen != "127.0.0.1:9464" {
		t.Errorf("listen from file: got %q", result.Config.Metrics.Listen)
	}
}

func TestConfigParser_Malformed(t *testing.T) {
	if _, err := LoadFromString("[source\nbase_url = "); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	written, err := WriteDefault(path)
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if !written {
		t.Fatal("expected a new file")
	}

	result, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("written default does not load: %v", err)
	}
	if result.Config != DefaultConfig() {
		t.Errorf("round trip changed config: %+v", result.Config)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings on default file: %v", result.Warnings)
	}

	written, err = WriteDefault(path)
	if err != nil || written {
		t.Errorf("existing file should be left alone: written=%v err=%v", written, err)
	}
}
