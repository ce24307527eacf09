package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/csv-marshal-kit/pkg/csvutil"
	"github.com/yourorg/csv-marshal-kit/pkg/errors"
	"github.com/yourorg/csv-marshal-kit/pkg/marshaller"
)

// ConfigSource defines an interface for loading configuration from various sources.
type ConfigSource interface {
	Get(key string) (string, bool)
	GetWithDefault(key, defaultValue string) string
}

// EnvConfigSource loads configuration from environment variables.
type EnvConfigSource struct{}

// Get retrieves an environment variable.
func (e *EnvConfigSource) Get(key string) (string, bool) {
	val := os.Getenv(key)
	return val, val != ""
}

// GetWithDefault retrieves an environment variable or returns a default value.
func (e *EnvConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := e.Get(key); ok {
		return val
	}
	return defaultValue
}

// FileConfigSource loads configuration from a JSON or YAML file.
type FileConfigSource struct {
	data map[string]interface{}
}

// NewFileConfigSource creates a new file-based config source.
// Supports both JSON and YAML files based on file extension.
func NewFileConfigSource(filePath string) (*FileConfigSource, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data := make(map[string]interface{})
	switch {
	case strings.HasSuffix(filePath, ".yaml"), strings.HasSuffix(filePath, ".yml"):
		if err := yaml.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case strings.HasSuffix(filePath, ".json"):
		if err := json.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format, use .json, .yaml, or .yml")
	}

	return &FileConfigSource{data: data}, nil
}

// Get retrieves a value using dot notation (e.g., "csv.delimiter").
// Keys are matched case-insensitively, so CSV_DELIMITER style lookups also
// find "csv_delimiter" entries.
func (f *FileConfigSource) Get(key string) (string, bool) {
	var current interface{} = f.data

	for _, k := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		val, exists := lookupFold(m, k)
		if !exists {
			return "", false
		}
		current = val
	}

	if str, ok := current.(string); ok {
		return str, true
	}
	return fmt.Sprintf("%v", current), true
}

func lookupFold(m map[string]interface{}, key string) (interface{}, bool) {
	if val, ok := m[key]; ok {
		return val, true
	}
	for k, val := range m {
		if strings.EqualFold(k, key) {
			return val, true
		}
	}
	return nil, false
}

// GetWithDefault retrieves a value from the config file or returns a default.
func (f *FileConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := f.Get(key); ok {
		return val
	}
	return defaultValue
}

// CompositeConfigSource checks multiple config sources in order.
type CompositeConfigSource struct {
	sources []ConfigSource
}

// NewCompositeConfigSource creates a source that consults sources in order.
func NewCompositeConfigSource(sources ...ConfigSource) *CompositeConfigSource {
	return &CompositeConfigSource{sources: sources}
}

// Get retrieves a value from the first source that has it.
func (c *CompositeConfigSource) Get(key string) (string, bool) {
	for _, source := range c.sources {
		if val, ok := source.Get(key); ok {
			return val, true
		}
	}
	return "", false
}

// GetWithDefault retrieves a value from sources or returns default.
func (c *CompositeConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := c.Get(key); ok {
		return val
	}
	return defaultValue
}

// Config holds application configuration.
type Config struct {
	// CSV format
	CSVDelimiter      string
	CSVQualifier      string
	CSVQuoteMode      string // all, minimal
	CSVLineTerminator string // lf, crlf

	// Export destinations
	BlobStorageAccountName string
	BlobStorageAccountKey  string
	BlobContainer          string
	ServiceBusNamespace    string
	ServiceBusKeyName      string
	ServiceBusKeyValue     string
	ServiceBusQueue        string

	// HTTP Server configuration
	HTTPPort         int
	HTTPReadTimeout  int // seconds
	HTTPWriteTimeout int // seconds
	HTTPIdleTimeout  int // seconds
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxBodySize      int64 // bytes

	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console

	// Application configuration
	AppName     string
	AppVersion  string
	Environment string // dev, staging, prod
}

// LoadConfig loads configuration from the provided source.
func LoadConfig(source ConfigSource) (*Config, error) {
	cfg := &Config{}

	getInt := func(key string, defaultValue int) int {
		val, err := strconv.Atoi(source.GetWithDefault(key, strconv.Itoa(defaultValue)))
		if err != nil {
			return defaultValue
		}
		return val
	}
	getFloat := func(key string, defaultValue float64) float64 {
		val, err := strconv.ParseFloat(source.GetWithDefault(key, ""), 64)
		if err != nil {
			return defaultValue
		}
		return val
	}

	cfg.CSVDelimiter = source.GetWithDefault("CSV_DELIMITER", string(marshaller.DefaultDelimiter))
	cfg.CSVQualifier = source.GetWithDefault("CSV_QUALIFIER", string(marshaller.DefaultQualifier))
	cfg.CSVQuoteMode = source.GetWithDefault("CSV_QUOTE_MODE", marshaller.QuoteAll.String())
	cfg.CSVLineTerminator = source.GetWithDefault("CSV_LINE_TERMINATOR", "lf")

	cfg.BlobStorageAccountName = source.GetWithDefault("BLOB_STORAGE_ACCOUNT_NAME", "")
	cfg.BlobStorageAccountKey = source.GetWithDefault("BLOB_STORAGE_ACCOUNT_KEY", "")
	cfg.BlobContainer = source.GetWithDefault("BLOB_CONTAINER", "csv-exports")
	cfg.ServiceBusNamespace = source.GetWithDefault("SERVICE_BUS_NAMESPACE", "")
	cfg.ServiceBusKeyName = source.GetWithDefault("SERVICE_BUS_KEY_NAME", "")
	cfg.ServiceBusKeyValue = source.GetWithDefault("SERVICE_BUS_KEY_VALUE", "")
	cfg.ServiceBusQueue = source.GetWithDefault("SERVICE_BUS_QUEUE", "csv-exports")

	cfg.HTTPPort = getInt("HTTP_PORT", 8080)
	cfg.HTTPReadTimeout = getInt("HTTP_READ_TIMEOUT", 30)
	cfg.HTTPWriteTimeout = getInt("HTTP_WRITE_TIMEOUT", 30)
	cfg.HTTPIdleTimeout = getInt("HTTP_IDLE_TIMEOUT", 120)
	cfg.RateLimitRPS = getFloat("RATE_LIMIT_RPS", 0)
	cfg.RateLimitBurst = getInt("RATE_LIMIT_BURST", 10)
	cfg.MaxBodySize = int64(getInt("MAX_BODY_SIZE", 10<<20))

	cfg.LogLevel = source.GetWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = source.GetWithDefault("LOG_FORMAT", "json")

	cfg.AppName = source.GetWithDefault("APP_NAME", "csv-marshal-service")
	cfg.AppVersion = source.GetWithDefault("APP_VERSION", "1.0.0")
	cfg.Environment = source.GetWithDefault("ENVIRONMENT", "dev")

	if _, err := cfg.CSVFormat(); err != nil {
		return nil, err
	}
	if _, err := cfg.LineTerminator(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
func LoadConfigFromEnv() (*Config, error) {
	return LoadConfig(&EnvConfigSource{})
}

// LoadConfigFromFile loads configuration from a JSON or YAML file.
// Environment variables override file values.
func LoadConfigFromFile(filePath string) (*Config, error) {
	fileSource, err := NewFileConfigSource(filePath)
	if err != nil {
		return nil, err
	}
	return LoadConfig(NewCompositeConfigSource(&EnvConfigSource{}, fileSource))
}

// CSVFormat converts the CSV settings into a validated format.
func (c *Config) CSVFormat() (marshaller.Format, error) {
	delimiter, err := ParseRune("CSV_DELIMITER", c.CSVDelimiter)
	if err != nil {
		return marshaller.Format{}, err
	}
	qualifier, err := ParseRune("CSV_QUALIFIER", c.CSVQualifier)
	if err != nil {
		return marshaller.Format{}, err
	}
	mode, err := marshaller.ParseQuoteMode(c.CSVQuoteMode)
	if err != nil {
		return marshaller.Format{}, err
	}

	format := marshaller.Format{Delimiter: delimiter, Qualifier: qualifier, QuoteMode: mode}
	if err := format.Validate(); err != nil {
		return marshaller.Format{}, err
	}
	return format, nil
}

// LineTerminator returns the terminator the line writer appends.
func (c *Config) LineTerminator() (string, error) {
	switch strings.ToLower(c.CSVLineTerminator) {
	case "", "lf":
		return csvutil.LF, nil
	case "crlf":
		return csvutil.CRLF, nil
	default:
		return "", errors.NewInvalidArgumentError(fmt.Sprintf("CSV_LINE_TERMINATOR must be lf or crlf, got %q", c.CSVLineTerminator))
	}
}

// ParseRune accepts one character, or the escapes \t and tab. key names
// the setting in the error message.
func ParseRune(key, value string) (rune, error) {
	switch value {
	case `\t`, "tab":
		return '\t', nil
	}
	if !utf8.ValidString(value) {
		return 0, errors.NewInvalidArgumentError(fmt.Sprintf("%s must be valid UTF-8, got %q", key, value))
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, errors.NewInvalidArgumentError(fmt.Sprintf("%s must be a single character, got %q", key, value))
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
