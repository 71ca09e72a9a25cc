// Package config loads the harness run configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/kvconform/pkg/conformance"
)

// Config is the harness run configuration. Zero values fall back to the
// canonical scenario defaults.
type Config struct {
	// Endpoint is the target store's endpoint descriptor
	Endpoint string `yaml:"endpoint" validate:"required"`

	// Connection-wide options
	TransactionTimeoutMS int64 `yaml:"transaction_timeout_ms" validate:"gte=0"`
	RetryLimit           int64 `yaml:"transaction_retry_limit" validate:"gte=0"`

	// Scenario values
	ValueSize        int   `yaml:"value_size" validate:"gte=0"`
	DatabaseLimit    int64 `yaml:"database_limit" validate:"gte=0"`
	GenerousLimit    int64 `yaml:"generous_limit" validate:"gte=0"`
	TransactionLimit int64 `yaml:"transaction_limit" validate:"gte=0"`

	// ExistingKeys decides how a dirty store is handled: "fail" or "overwrite"
	ExistingKeys string `yaml:"existing_keys" validate:"omitempty,oneof=fail overwrite"`

	// MetricsAddr serves Prometheus metrics when set (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns a configuration carrying the canonical scenario values
// for the given endpoint.
func Default(endpoint string) Config {
	opts := conformance.DefaultOptions()
	return Config{
		Endpoint:             endpoint,
		TransactionTimeoutMS: opts.TransactionTimeoutMS,
		RetryLimit:           opts.RetryLimit,
		ValueSize:            opts.ValueSize,
		DatabaseLimit:        opts.DatabaseLimit,
		GenerousLimit:        opts.GenerousLimit,
		TransactionLimit:     opts.TransactionLimit,
		ExistingKeys:         string(opts.ExistingKeys),
		LogLevel:             "info",
	}
}

// Load reads a YAML configuration file. Fields absent from the file keep
// the canonical defaults. Callers validate after merging in flag overrides,
// so a file may leave the endpoint to the command line.
func Load(path string) (Config, error) {
	cfg := Default("")

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration, both the struct tags and the
// cross-field scenario constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	opts := c.ScenarioOptions()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid scenario configuration: %w", err)
	}
	return nil
}

// ScenarioOptions converts the configuration into conformance options,
// filling unset fields with the canonical defaults.
func (c *Config) ScenarioOptions() conformance.Options {
	opts := conformance.DefaultOptions()
	if c.TransactionTimeoutMS > 0 {
		opts.TransactionTimeoutMS = c.TransactionTimeoutMS
	}
	if c.RetryLimit > 0 {
		opts.RetryLimit = c.RetryLimit
	}
	if c.ValueSize > 0 {
		opts.ValueSize = c.ValueSize
	}
	if c.DatabaseLimit > 0 {
		opts.DatabaseLimit = c.DatabaseLimit
	}
	if c.GenerousLimit > 0 {
		opts.GenerousLimit = c.GenerousLimit
	}
	if c.TransactionLimit > 0 {
		opts.TransactionLimit = c.TransactionLimit
	}
	if c.ExistingKeys != "" {
		opts.ExistingKeys = conformance.ExistingKeyPolicy(c.ExistingKeys)
	}
	return opts
}
