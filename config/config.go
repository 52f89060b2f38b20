package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

const (
	// APIKeyEnv overrides apis.openweather when set
	APIKeyEnv = "OPENWEATHER_API_KEY"

	DefaultConfigFile  = "config.toml"
	DefaultCountry     = "US"
	DefaultBaseURL     = "https://api.openweathermap.org/data/2.5"
	DefaultGeoBaseURL  = "https://api.openweathermap.org/geo/1.0"
	DefaultTimeout     = 10
	DefaultRateLimit   = 50 // requests per minute, under the free tier's 60
	minAPIKeyLength    = 16
	maxTimeoutSeconds  = 120
	maxRequestsPerMin  = 600
	defaultLoggingFile = "pdi-weather-YYYYMMDD.log"
)

// APIs contains API key configuration
type APIs struct {
	OpenWeather string `toml:"openweather"`
}

// Weather contains location defaults and provider endpoints
type Weather struct {
	Country    string `toml:"country"`      // Country used when none is given on the command line
	BaseURL    string `toml:"base_url"`     // Current weather API root
	GeoBaseURL string `toml:"geo_base_url"` // Geocoding API root
}

// HTTP contains transport settings shared by both endpoints
type HTTP struct {
	TimeoutSeconds    int `toml:"timeout_seconds"`
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// Logging contains logging configuration
type Logging struct {
	Enabled         bool   `toml:"enabled"`          // Enable file logging
	Directory       string `toml:"directory"`        // Log directory (relative or absolute)
	FilenamePattern string `toml:"filename_pattern"` // Log filename with date patterns
	Level           string `toml:"level"`            // Log level: debug, info, warn, error
	ConsoleOutput   bool   `toml:"console_output"`   // Also write file log lines to stderr

	File string `toml:"-"` // Literal log file path from -log-file; overrides Directory and FilenamePattern
}

// Config represents the complete application configuration
type Config struct {
	APIs    APIs    `toml:"apis"`
	Weather Weather `toml:"weather"`
	HTTP    HTTP    `toml:"http"`
	Logging Logging `toml:"logging"`

	// Source is the file the configuration was read from, empty when the
	// defaults and environment were used alone.
	Source string `toml:"-"`
}

// ConfigNotFoundError represents an explicitly requested configuration file
// that does not exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s (run %s -generate-config to create one)", e.Path, filepath.Base(os.Args[0]))
}

// LoadConfig reads and parses a TOML configuration file, then applies
// defaults and the environment override. A missing file is tolerated unless
// required is set, so the client can run on OPENWEATHER_API_KEY alone.
// All failures are returned as *errorutil.ConfigError.
func LoadConfig(configPath string, required bool) (*Config, error) {
	cleanPath := filepath.Clean(configPath)

	var config Config
	data, err := os.ReadFile(cleanPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, &errorutil.ConfigError{
				Field:   cleanPath,
				Message: "failed to parse TOML configuration",
				Cause:   err,
			}
		}
		config.Source = cleanPath
	case errors.Is(err, os.ErrNotExist):
		if required {
			notFound := &ConfigNotFoundError{Path: cleanPath}
			return nil, &errorutil.ConfigError{Field: "config", Message: notFound.Error(), Cause: notFound}
		}
		logger.Debug("No configuration file at %s, using defaults and environment", cleanPath)
	default:
		return nil, &errorutil.ConfigError{
			Field:   cleanPath,
			Message: "failed to read configuration file",
			Cause:   err,
		}
	}

	config.ApplyDefaults()
	config.ApplyEnv(os.LookupEnv)

	return &config, nil
}

// ApplyDefaults sets default values for optional configuration fields
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Weather.Country) == "" {
		c.Weather.Country = DefaultCountry
	}
	c.Weather.Country = strings.ToUpper(strings.TrimSpace(c.Weather.Country))

	if strings.TrimSpace(c.Weather.BaseURL) == "" {
		c.Weather.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Weather.GeoBaseURL) == "" {
		c.Weather.GeoBaseURL = DefaultGeoBaseURL
	}

	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = DefaultTimeout
	}
	if c.HTTP.RequestsPerMinute == 0 {
		c.HTTP.RequestsPerMinute = DefaultRateLimit
	}

	if strings.TrimSpace(c.Logging.Directory) == "" {
		c.Logging.Directory = "logs"
	}
	if strings.TrimSpace(c.Logging.FilenamePattern) == "" {
		c.Logging.FilenamePattern = defaultLoggingFile
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "warn"
	}
}

// ApplyEnv overrides settings from the environment. lookup is os.LookupEnv
// in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if key, ok := lookup(APIKeyEnv); ok && strings.TrimSpace(key) != "" {
		c.APIs.OpenWeather = strings.TrimSpace(key)
	}
}

// Timeout returns the per-invocation network timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// LoggerConfig converts the logging section for the logger package
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Enabled:         c.Logging.Enabled,
		Directory:       c.Logging.Directory,
		FilenamePattern: c.Logging.FilenamePattern,
		Level:           c.Logging.Level,
		ConsoleOutput:   c.Logging.ConsoleOutput,
		File:            c.Logging.File,
	}
}

// Validate checks the configuration for correctness and completeness.
// Every problem is reported in a single *errorutil.ConfigError.
func (c *Config) Validate() error {
	var errs errorutil.ValidationErrors

	errs.Add(errorutil.ValidateAPIKey("apis.openweather", c.APIs.OpenWeather, minAPIKeyLength))

	errs.Add(errorutil.ValidateCountryCode("weather.country", c.Weather.Country))
	errs.Add(errorutil.ValidateURL("weather.base_url", c.Weather.BaseURL))
	errs.Add(errorutil.ValidateURL("weather.geo_base_url", c.Weather.GeoBaseURL))

	errs.Add(errorutil.ValidateIntRange("http.timeout_seconds", c.HTTP.TimeoutSeconds, 1, maxTimeoutSeconds))
	errs.Add(errorutil.ValidateIntRange("http.requests_per_minute", c.HTTP.RequestsPerMinute, 1, maxRequestsPerMin))

	errs.Add(errorutil.ValidateEnum("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"}))
	if c.Logging.Enabled && c.Logging.File == "" {
		errs.Add(errorutil.ValidateRequired("logging.directory", c.Logging.Directory))
		if err := logger.ValidateFilenamePattern(c.Logging.FilenamePattern); err != nil {
			errs.Add(&errorutil.ValidationError{
				Field:   "logging.filename_pattern",
				Rule:    "filename",
				Message: err.Error(),
			})
		}
	}

	return errs.AsConfigError()
}

const sampleConfig = `# pdi-weather configuration file

[apis]
# Get your OpenWeather API key at: https://openweathermap.org/api
# The OPENWEATHER_API_KEY environment variable takes precedence.
openweather = "your-openweather-api-key-here"

[weather]
# Country used when -country is not given (two-letter ISO 3166 code).
# State qualifiers (-state) are only honored for "US".
country = "US"

# Provider endpoints; change only for testing against a mock server
base_url = "https://api.openweathermap.org/data/2.5"
geo_base_url = "https://api.openweathermap.org/geo/1.0"

[http]
# Timeout covering the whole invocation (geocoding plus weather call)
timeout_seconds = 10

# Client-side rate limit, requests per minute
requests_per_minute = 50

[logging]
# Logs go to stderr; the weather report is the only thing on stdout
enabled = false                           # Also write a log file
directory = "logs"                        # Log directory (relative or absolute)
filename_pattern = "pdi-weather-YYYYMMDD.log"
level = "warn"                            # debug, info, warn, error
console_output = false                    # Mirror file log lines to stderr
`

// GenerateSampleConfig creates a sample configuration file at the specified path
func GenerateSampleConfig(configPath string) error {
	if err := errorutil.WriteFileAtomic(logger.Slog(), configPath, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}
	return nil
}
