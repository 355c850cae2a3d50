package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file.
//
//	engine: sqlite
//	hash_threshold: 0
//	on_unknown_record: abort
//	engines:
//	  clickhouse:
//	    connection: clickhouse://127.0.0.1:9000/default
//
// Command-line flags override every value.
type Config struct {
	Engine          string                  `yaml:"engine"`
	HashThreshold   *int                    `yaml:"hash_threshold"`
	OnUnknownRecord string                  `yaml:"on_unknown_record"`
	Engines         map[string]EngineConfig `yaml:"engines"`
}

// EngineConfig holds per-engine settings.
type EngineConfig struct {
	Connection string `yaml:"connection"`
}

// LoadConfig reads and parses the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration. Unknown keys are rejected so a
// misspelled setting is not silently ignored.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.HashThreshold != nil && *cfg.HashThreshold < 0 {
		return nil, fmt.Errorf("parse config: hash_threshold must not be negative, got %d", *cfg.HashThreshold)
	}
	return &cfg, nil
}

// Connection returns the configured connection string for engine, matched
// case-insensitively, or "" when none is set.
func (c *Config) Connection(engine string) string {
	if c == nil {
		return ""
	}
	for name, ec := range c.Engines {
		if strings.EqualFold(name, engine) {
			return ec.Connection
		}
	}
	return ""
}
