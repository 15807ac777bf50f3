// Package core provides the per-entity episodic memory client and its configuration.
package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oceanbase/episodic-go/pkg/intelligence"
	"github.com/oceanbase/episodic-go/pkg/memory"
	"github.com/oceanbase/episodic-go/pkg/metrics"
)

// Config contains the complete configuration for an episodic memory client.
//
// It includes settings for:
//   - Memory: species time scale, salience half-life, retrieval defaults
//   - Maintenance: promotion thresholds, consolidation windows, purge threshold
//   - Logging: zap level and encoding
//   - Metrics: Prometheus recorder
//
// Example:
//
//	config := core.DefaultConfig()
//	config.Memory.TimeScale = 7.0 // a species that lives seven times faster
//	config.Logging.Level = "debug"
type Config struct {
	// Memory contains the memory model configuration.
	Memory MemoryConfig `json:"memory" yaml:"memory"`

	// Maintenance contains the promotion and decay policy.
	Maintenance intelligence.Config `json:"maintenance" yaml:"maintenance"`

	// Logging contains logger configuration.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// MemoryConfig contains configuration for the memory model.
type MemoryConfig struct {
	// TimeScale is the species time-scale multiplier applied to elapsed days
	// when decaying salience. Must be positive. Default: 1.0
	TimeScale float64 `json:"time_scale" yaml:"time_scale"`

	// SalienceHalfLifeDays is the half-life of salience decay in days.
	// Default: 30
	SalienceHalfLifeDays float64 `json:"salience_half_life_days" yaml:"salience_half_life_days"`

	// RetrievalLimit is the default limit for scored retrieval. Default: 10
	RetrievalLimit int `json:"retrieval_limit" yaml:"retrieval_limit"`
}

// LoggingConfig contains configuration for the zap logger.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error. Default: info
	Level string `json:"level" yaml:"level"`

	// Encoding is json or console. Default: json
	Encoding string `json:"encoding" yaml:"encoding"`

	// Development enables zap's development mode (stack traces on warn,
	// DPanic panics).
	Development bool `json:"development,omitempty" yaml:"development,omitempty"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled indicates whether the client records metrics.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace prefixes every metric name. Default: episodic
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Memory: MemoryConfig{
			TimeScale:            1.0,
			SalienceHalfLifeDays: 30,
			RetrievalLimit:       memory.DefaultRetrievalLimit,
		},
		Maintenance: *intelligence.DefaultConfig(),
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Namespace: metrics.DefaultNamespace,
		},
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Overlays the EPISODIC_* variables on DefaultConfig
//
// Supported environment variables:
//   - EPISODIC_TIME_SCALE, EPISODIC_SALIENCE_HALF_LIFE_DAYS, EPISODIC_RETRIEVAL_LIMIT
//   - EPISODIC_THRESHOLD_SHORT_TERM, EPISODIC_THRESHOLD_LONG_TERM, EPISODIC_THRESHOLD_LEGACY
//   - EPISODIC_WINDOW_IMMEDIATE, EPISODIC_WINDOW_SHORT_TERM (Go durations, e.g. "1h")
//   - EPISODIC_DECAY_THRESHOLD, EPISODIC_TRAUMA_BOOST, EPISODIC_MAINTENANCE_INTERVAL
//   - EPISODIC_LOG_LEVEL, EPISODIC_LOG_ENCODING, EPISODIC_LOG_DEVELOPMENT
//   - EPISODIC_METRICS_ENABLED, EPISODIC_METRICS_NAMESPACE
//
// Returns a Config instance, or an error if a variable is malformed.
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	config := DefaultConfig()
	env := envReader{}

	config.Memory.TimeScale = env.getFloat("EPISODIC_TIME_SCALE", config.Memory.TimeScale)
	config.Memory.SalienceHalfLifeDays = env.getFloat("EPISODIC_SALIENCE_HALF_LIFE_DAYS", config.Memory.SalienceHalfLifeDays)
	config.Memory.RetrievalLimit = env.getInt("EPISODIC_RETRIEVAL_LIMIT", config.Memory.RetrievalLimit)

	m := &config.Maintenance
	m.ImmediateToShortTerm = env.getFloat("EPISODIC_THRESHOLD_SHORT_TERM", m.ImmediateToShortTerm)
	m.ShortTermToLongTerm = env.getFloat("EPISODIC_THRESHOLD_LONG_TERM", m.ShortTermToLongTerm)
	m.LongTermToLegacy = env.getFloat("EPISODIC_THRESHOLD_LEGACY", m.LongTermToLegacy)
	m.ImmediateWindow = env.getDuration("EPISODIC_WINDOW_IMMEDIATE", m.ImmediateWindow)
	m.ShortTermWindow = env.getDuration("EPISODIC_WINDOW_SHORT_TERM", m.ShortTermWindow)
	m.DecayThreshold = env.getFloat("EPISODIC_DECAY_THRESHOLD", m.DecayThreshold)
	m.TraumaBoost = env.getFloat("EPISODIC_TRAUMA_BOOST", m.TraumaBoost)
	m.Interval = env.getDuration("EPISODIC_MAINTENANCE_INTERVAL", m.Interval)

	config.Logging.Level = getEnvOrDefault("EPISODIC_LOG_LEVEL", config.Logging.Level)
	config.Logging.Encoding = getEnvOrDefault("EPISODIC_LOG_ENCODING", config.Logging.Encoding)
	config.Logging.Development = env.getBool("EPISODIC_LOG_DEVELOPMENT", config.Logging.Development)

	config.Metrics.Enabled = env.getBool("EPISODIC_METRICS_ENABLED", config.Metrics.Enabled)
	config.Metrics.Namespace = getEnvOrDefault("EPISODIC_METRICS_NAMESPACE", config.Metrics.Namespace)

	if env.err != nil {
		return nil, NewMemoryError("LoadConfigFromEnv", env.err)
	}
	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Fields missing from the file keep their DefaultConfig values. Durations
// are integer nanoseconds.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return config, nil
}

// LoadConfigFromYAML loads configuration from a YAML file.
//
// Fields missing from the file keep their DefaultConfig values. Durations
// may be written as Go duration strings ("1h", "24h").
//
// Example file:
//
//	memory:
//	  time_scale: 1.0
//	  salience_half_life_days: 30
//	maintenance:
//	  immediate_window: 1h
//	  short_term_window: 24h
//	logging:
//	  level: debug
func LoadConfigFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromYAML", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, NewMemoryError("LoadConfigFromYAML", err)
	}

	return config, nil
}

// Validate validates the configuration.
//
// Checks that:
//   - the time scale and salience half-life are positive
//   - the retrieval limit is positive
//   - the maintenance policy is consistent
//   - the log level and encoding are recognized
//
// Returns an error wrapping ErrInvalidConfig if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.Memory.TimeScale <= 0 {
		return invalidConfig("memory.time_scale must be positive, got %g", c.Memory.TimeScale)
	}
	if c.Memory.SalienceHalfLifeDays <= 0 {
		return invalidConfig("memory.salience_half_life_days must be positive, got %g", c.Memory.SalienceHalfLifeDays)
	}
	if c.Memory.RetrievalLimit <= 0 {
		return invalidConfig("memory.retrieval_limit must be positive, got %d", c.Memory.RetrievalLimit)
	}
	if err := c.Maintenance.Validate(); err != nil {
		return invalidConfig("maintenance: %v", err)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return invalidConfig("logging.level: %v", err)
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return invalidConfig("logging.encoding must be json or console, got %q", c.Logging.Encoding)
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return NewMemoryError("Validate", fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed environment variables, keeping the first error.
type envReader struct {
	err error
}

func (r *envReader) getFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return v
}

func (r *envReader) getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return v
}

func (r *envReader) getBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return v
}

func (r *envReader) getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return v
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 5; i++ {
		for _, name := range []string{".env", ".env.example"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
