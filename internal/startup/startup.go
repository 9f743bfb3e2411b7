package startup

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"dicom-browser/internal/logging"

	"github.com/pelletier/go-toml/v2"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration. Values come from an optional
// TOML file, overridden by environment variables.
type Config struct {
	Port              string `toml:"port"`
	ScanWorkers       int    `toml:"scan_workers"`
	PixelCacheEntries int    `toml:"pixel_cache_entries"`
	WatchEnabled      bool   `toml:"watch_enabled"`
	WatchDebounceRaw  string `toml:"watch_debounce"`
	MetricsEnabled    bool   `toml:"metrics_enabled"`
	LogHealthChecks   bool   `toml:"log_health_checks"`
	SkipHidden        bool   `toml:"skip_hidden"`

	// Parsed from WatchDebounceRaw.
	WatchDebounce time.Duration `toml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		Port:              "8080",
		ScanWorkers:       0, // auto
		PixelCacheEntries: 128,
		WatchEnabled:      false,
		WatchDebounce:     2 * time.Second,
		MetricsEnabled:    true,
		LogHealthChecks:   false,
		SkipHidden:        true,
	}
}

// LoadConfig loads configuration from the file named by CONFIG_FILE (or
// dicom-browser.toml when present), then applies environment overrides.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config := defaultConfig()

	path := getEnv("CONFIG_FILE", "dicom-browser.toml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		logging.Info("Loaded configuration from %s", path)
	case os.IsNotExist(err):
		logging.Debug("No configuration file at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnvOverrides(config)

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  SCAN_WORKERS:        %s", autoString(config.ScanWorkers))
	logging.Info("  PIXEL_CACHE_ENTRIES: %d", config.PixelCacheEntries)
	logging.Info("  WATCH_ENABLED:       %v", config.WatchEnabled)
	logging.Info("  WATCH_DEBOUNCE:      %s", config.WatchDebounce)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  SKIP_HIDDEN:         %v", config.SkipHidden)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("")

	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, fmt.Errorf("invalid port %q", config.Port)
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	config.Port = getEnv("PORT", config.Port)
	config.ScanWorkers = getEnvInt("SCAN_WORKERS", config.ScanWorkers)
	config.PixelCacheEntries = getEnvInt("PIXEL_CACHE_ENTRIES", config.PixelCacheEntries)
	config.WatchEnabled = getEnvBool("WATCH_ENABLED", config.WatchEnabled)
	config.MetricsEnabled = getEnvBool("METRICS_ENABLED", config.MetricsEnabled)
	config.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", config.LogHealthChecks)
	config.SkipHidden = getEnvBool("SKIP_HIDDEN", config.SkipHidden)
	config.WatchDebounceRaw = getEnv("WATCH_DEBOUNCE", config.WatchDebounceRaw)

	if config.WatchDebounceRaw != "" {
		if d, err := time.ParseDuration(config.WatchDebounceRaw); err == nil && d > 0 {
			config.WatchDebounce = d
		} else {
			logging.Warn("Invalid watch_debounce %q, keeping %s", config.WatchDebounceRaw, config.WatchDebounce)
		}
	}
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config *Config, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", startupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:         http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:     http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:     DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ___  _                    ___
   / _ \(_)______  __ _      / _ )_______ _    _____ ___ ____
  / // / / __/ _ \/  ' \    / _  / __/ _ \ |/|/ (_-</ -_) __/
 /____/_/\__/\___/_/_/_/   /____/_/  \___/__,__/___/\__/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	logging.Info("")
}

func autoString(n int) string {
	if n < 1 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid %s %q, keeping %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid %s %q, keeping %v", key, value, fallback)
		return fallback
	}
	return b
}
