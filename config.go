package gradsync

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gradsync/gradsync/topology"
)

// Config is the serialisable bootstrap configuration: everything Service
// needs that the teacher's Config would call environment/topology inputs
// (spec §6). The zero-value topology section inherits topology.DefaultConfig.
type Config struct {
	Topology *topology.Config `json:"topology" yaml:"topology"`

	// ServiceName/ServiceVersion label the OpenTelemetry resource that
	// tracing spans are attributed to.
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
}

// DefaultConfig returns a Config for a single-node, single-device,
// non-distributed deployment.
func DefaultConfig() *Config {
	return &Config{
		Topology:       topology.DefaultConfig(),
		ServiceName:    "gradsync",
		ServiceVersion: "dev",
	}
}

// Validate returns an error describing the first invalid setting, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Topology.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DecodeYAML parses a Config from YAML bytes. Unset fields keep the values
// from DefaultConfig, the same "decode over defaults" convention the
// teacher's workflow config loader uses.
func DecodeYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
