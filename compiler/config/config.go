// Package config loads optional project-level codegen settings from a YAML
// file, forming the non-flag half of compile.PipelineOptions: settings a
// project wants to pin once rather than repeat on every invocation.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of a project's basicc.yaml.
type Config struct {
	// BoundsCheck turns array bounds checking on or off by default; a CLI
	// flag can still override it per invocation.
	BoundsCheck bool `yaml:"bounds_check"`

	// Target is an informational target triple. It is loaded from the file,
	// but nothing in the compiler reads it and generated IL does not
	// mention it.
	Target string `yaml:"target"`

	// MergeBlocks toggles the Phase 5 block-merging optimization pass.
	// Currently a no-op in the CFG builder (see cfgbuild's doc comment on
	// why merging is intentionally skipped), kept here so a future pass has
	// somewhere to read its switch from.
	MergeBlocks bool `yaml:"merge_blocks"`
}

// Default returns the configuration used when no project file is present:
// bounds checks on, no merge pass, no target annotation.
func Default() *Config {
	return &Config{
		BoundsCheck: true,
		Target:      "",
		MergeBlocks: false,
	}
}

// Load reads and parses a YAML config file at path. A missing file is not
// an error; Default() is returned instead, so a project without a config
// file behaves exactly as before one was introduced.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
