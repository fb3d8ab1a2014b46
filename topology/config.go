package topology

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the topology inputs. It can be
// populated from a YAML file, environment variables, or process bootstrap
// code — the module does not care which, it only consumes the result.
type Config struct {
	Rank              int  `json:"rank" yaml:"rank"`
	LocalRank         int  `json:"localRank" yaml:"localRank"`
	Size              int  `json:"size" yaml:"size"`
	LocalSize         int  `json:"localSize" yaml:"localSize"`
	WorkerID          int  `json:"workerID" yaml:"workerID"`
	PartitionBound    int  `json:"partitionBound" yaml:"partitionBound"`
	IsDistributed     bool `json:"isDistributed" yaml:"isDistributed"`
	IsRootDevice      bool `json:"isRootDevice" yaml:"isRootDevice"`
	IsCrossPCIeSwitch bool `json:"isCrossPcieSwitch" yaml:"isCrossPcieSwitch"`
	NCCLIsSignalRoot  bool `json:"ncclIsSignalRoot" yaml:"ncclIsSignalRoot"`
	SwitchCount       int  `json:"switchCount" yaml:"switchCount"`
}

// DefaultConfig returns a Config describing a single-node, single-device,
// non-distributed deployment — the zero-cost default.
func DefaultConfig() *Config {
	return &Config{
		Size:              1,
		LocalSize:         1,
		PartitionBound:    4 * 1024 * 1024,
		IsDistributed:     false,
		IsRootDevice:      true,
		IsCrossPCIeSwitch: false,
		NCCLIsSignalRoot:  true,
	}
}

// Validate returns an error describing the first invalid setting, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.PartitionBound <= 0 {
		return fmt.Errorf("topology: partitionBound must be > 0")
	}
	if c.Size <= 0 {
		return fmt.Errorf("topology: size must be > 0")
	}
	if c.LocalSize <= 0 {
		return fmt.Errorf("topology: localSize must be > 0")
	}
	return nil
}

// DecodeYAML parses a topology Config from YAML bytes, the same way the
// teacher decodes its workflow definitions.
func DecodeYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode topology config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToTopology converts the serialisable Config into the runtime Topology
// value used by the engine.
func (c *Config) ToTopology() *Topology {
	return &Topology{
		Flags: Flags{
			IsDistributed:     c.IsDistributed,
			IsRootDevice:      c.IsRootDevice,
			IsCrossPCIeSwitch: c.IsCrossPCIeSwitch,
			NCCLIsSignalRoot:  c.NCCLIsSignalRoot,
		},
		Rank:           c.Rank,
		LocalRank:      c.LocalRank,
		Size:           c.Size,
		LocalSize:      c.LocalSize,
		WorkerID:       c.WorkerID,
		PartitionBound: c.PartitionBound,
		SwitchCount:    c.SwitchCount,
	}
}
