package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"exif-fixer/internal/metadata"
)

// Log formats.
const (
	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

var offsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

type Config struct {
	SkipIfPresent    bool   `yaml:"skip"`              // Leave files that already have a capture time alone
	StartFrom        int    `yaml:"start_from"`        // 1-based position to resume from; 0 starts at the beginning
	SyncModifiedDate bool   `yaml:"fix_modified_date"` // Set the file modified time to the capture time
	DefaultOffset    string `yaml:"default_offset"`    // Format: "+09:00"
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	PreviewSize      int    `yaml:"preview_size"` // Longest edge of the viewer preview, in pixels
}

// NewDefaultConfig returns a Config with the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		DefaultOffset: metadata.DefaultOffset,
		LogLevel:      "info",
		LogFormat:     LogFormatAuto,
		PreviewSize:   1600,
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then the .env file and environment variables.
// Returns an error if the file is unreadable or the result is invalid.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := NewDefaultConfig()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.SkipIfPresent = getBoolEnv("FIX_EXIF_SKIP", cfg.SkipIfPresent)
	cfg.StartFrom = getIntEnv("FIX_EXIF_START_FROM", cfg.StartFrom)
	cfg.SyncModifiedDate = getBoolEnv("FIX_EXIF_FIX_MODIFIED_DATE", cfg.SyncModifiedDate)
	cfg.DefaultOffset = getEnv("FIX_EXIF_DEFAULT_OFFSET", cfg.DefaultOffset)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.PreviewSize = getIntEnv("FIX_EXIF_PREVIEW_SIZE", cfg.PreviewSize)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StartFrom, validation.Min(0)),
		validation.Field(&c.DefaultOffset, validation.Required,
			validation.Match(offsetPattern).Error("must look like +09:00")),
		validation.Field(&c.LogFormat, validation.Required,
			validation.In(LogFormatAuto, LogFormatConsole, LogFormatJSON)),
		validation.Field(&c.PreviewSize, validation.Required, validation.Min(1)),
	)
}

// StartIndex converts StartFrom into a 0-based index.
func (c *Config) StartIndex() int {
	if c.StartFrom > 0 {
		return c.StartFrom - 1
	}
	return 0
}

// Retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// Retrieves an integer from environment variable or returns a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Retrieves a boolean from environment variable or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
