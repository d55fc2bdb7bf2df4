// Package config loads flowkit configuration from YAML files with
// environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("flowkit.yaml").
//	    WithEnvPrefix("FLOWKIT").
//	    Load()
//
// Precedence: defaults → YAML file → environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete flowkit configuration.
type Config struct {
	// Log configures the execution log sink and engine diagnostics.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry configures OpenTelemetry span emission.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Store configures durable run-trace persistence.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Redis configures the optional Redis log sink.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// LogConfig controls the execution log.
type LogConfig struct {
	// Dir is the directory holding the execution log file.
	Dir string `yaml:"dir" env:"DIR"`
	// File is the log file name within Dir.
	File string `yaml:"file" env:"FILE"`
	// Verbose echoes task log lines to the structured logger.
	Verbose bool `yaml:"verbose" env:"VERBOSE"`
	// Level is the zap log level for engine diagnostics.
	Level string `yaml:"level" env:"LEVEL"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// Addr is the listen address of the /metrics endpoint.
	Addr string `yaml:"addr" env:"ADDR"`
}

// TelemetryConfig controls OpenTelemetry instrumentation.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// StoreConfig controls run-trace persistence.
type StoreConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// DSN is the SQLite data source name (a file path, or :memory:).
	DSN string `yaml:"dsn" env:"DSN"`
}

// RedisConfig controls the Redis log sink.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
	DB      int    `yaml:"db" env:"DB"`
	// Key is the Redis list receiving log lines.
	Key string `yaml:"key" env:"KEY"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Dir:   "logs",
			File:  "workflow.log",
			Level: "info",
		},
		Metrics: MetricsConfig{
			Namespace: "flowkit",
			Addr:      ":9091",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "flowkit",
		},
		Store: StoreConfig{
			DSN: "flowkit.db",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			Key:  "flowkit:log",
		},
	}
}

// Loader loads configuration using the builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the default FLOWKIT env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "FLOWKIT",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration: defaults, then YAML, then env overrides.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile merges the YAML file into cfg. A missing file is not an
// error; defaults apply.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// setFieldsFromEnv walks the struct recursively, overriding any field whose
// env-tagged variable is set.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
