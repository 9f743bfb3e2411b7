package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := defaultConfig()

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.ScanWorkers != 0 {
		t.Errorf("ScanWorkers = %d, want 0 (auto)", config.ScanWorkers)
	}
	if !config.MetricsEnabled || !config.SkipHidden {
		t.Error("metrics and hidden-file skipping should default on")
	}
	if config.WatchEnabled {
		t.Error("watching should default off")
	}
	if config.WatchDebounce != 2*time.Second {
		t.Errorf("WatchDebounce = %v, want 2s", config.WatchDebounce)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
port = "9999"
scan_workers = 4
watch_enabled = true
watch_debounce = "500ms"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != "9999" {
		t.Errorf("Port = %q, want 9999", config.Port)
	}
	if config.ScanWorkers != 4 {
		t.Errorf("ScanWorkers = %d, want 4", config.ScanWorkers)
	}
	if !config.WatchEnabled {
		t.Error("WatchEnabled should be true from file")
	}
	if config.WatchDebounce != 500*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 500ms", config.WatchDebounce)
	}
	// File left the default for this one.
	if !config.MetricsEnabled {
		t.Error("MetricsEnabled should keep its default")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`port = "9999"`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7777")
	t.Setenv("SCAN_WORKERS", "8")
	t.Setenv("WATCH_ENABLED", "true")

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != "7777" {
		t.Errorf("Port = %q, env should override file", config.Port)
	}
	if config.ScanWorkers != 8 {
		t.Errorf("ScanWorkers = %d, want 8", config.ScanWorkers)
	}
	if !config.WatchEnabled {
		t.Error("WATCH_ENABLED=true should enable watching")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", config.Port)
	}
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
	t.Setenv("PORT", "not-a-port")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	if got := getEnv("TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv unset = %q, want fallback", got)
	}

	t.Setenv("TEST_INT", "12")
	if got := getEnvInt("TEST_INT", 3); got != 12 {
		t.Errorf("getEnvInt = %d, want 12", got)
	}
	t.Setenv("TEST_INT", "nope")
	if got := getEnvInt("TEST_INT", 3); got != 3 {
		t.Errorf("getEnvInt invalid = %d, want fallback 3", got)
	}

	t.Setenv("TEST_BOOL", "true")
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool true not honored")
	}
	t.Setenv("TEST_BOOL", "maybe")
	if !getEnvBool("TEST_BOOL", true) {
		t.Error("getEnvBool invalid should keep fallback")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" {
		t.Error("build info missing version fields")
	}
}
