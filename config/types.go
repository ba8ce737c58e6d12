package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support human readable strings in both
// YAML and TOML files.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	return d.UnmarshalText([]byte(value.Value))
}

// UnmarshalText is used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := string(text)
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration in time.Duration notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// MarshalYAML keeps generated YAML files readable.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// SolverConfig bounds the chain walk.
type SolverConfig struct {
	// MaxSteps rejects length words above this value. Zero disables the guard.
	MaxSteps uint64 `yaml:"max_steps" toml:"max_steps"`
}

// SimulationConfig describes the generated puzzle used by the memory and
// leveldb backends. Unset fields get defaults; an explicit zero is kept.
type SimulationConfig struct {
	Length *int   `yaml:"length" toml:"length"`
	Seed   *int64 `yaml:"seed" toml:"seed"`
}

// Params returns the puzzle length and seed, falling back to the defaults
// for unset fields.
func (s SimulationConfig) Params() (length int, seed int64) {
	length, seed = defaultSimulationLen, defaultSimulationSeed
	if s.Length != nil {
		length = *s.Length
	}
	if s.Seed != nil {
		seed = *s.Seed
	}
	return length, seed
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// TelemetryConfig points the OTLP exporters at a collector.
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	Insecure bool   `yaml:"insecure" toml:"insecure"`
	Traces   bool   `yaml:"traces" toml:"traces"`
	Metrics  bool   `yaml:"metrics" toml:"metrics"`
	// Headers uses the OTEL_EXPORTER_OTLP_HEADERS syntax: k=v,k2=v2.
	Headers     string  `yaml:"headers" toml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`
}

// MetricsConfig configures the Prometheus push gateway used at exit.
type MetricsConfig struct {
	PushGateway string `yaml:"push_gateway" toml:"push_gateway"`
	Job         string `yaml:"job" toml:"job"`
}
