package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the depmap.yaml configuration.
type Config struct {
	// Root is the package directory to analyze.
	Root string `yaml:"root"`
	// Ext is the source file extension to collect.
	Ext string `yaml:"ext"`
	// IncludeGlobals adds top-level assignments as graph units.
	IncludeGlobals bool         `yaml:"include_globals"`
	Output         OutputConfig `yaml:"output"`
	Git            GitConfig    `yaml:"git"`
}

// OutputConfig controls where output artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// GitConfig controls the change-history analysis.
type GitConfig struct {
	Enabled bool `yaml:"enabled"`
	// Since restricts the mined history (git date syntax).
	Since string `yaml:"since"`
	// NormGlobal normalizes co-change weights against the repository-wide
	// commit ceiling instead of per file.
	NormGlobal bool `yaml:"norm_global"`
	// Scale is the factor applied to normalized co-change weights.
	Scale float64 `yaml:"scale"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Root: ".",
		Ext:  ".py",
		Output: OutputConfig{
			Dir: "data",
		},
		Git: GitConfig{
			Enabled:    true,
			Since:      "1 year ago",
			NormGlobal: true,
			Scale:      0.7,
		},
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Ensure required defaults
	if cfg.Ext == "" {
		cfg.Ext = ".py"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data"
	}
	if cfg.Git.Since == "" {
		cfg.Git.Since = "1 year ago"
	}
	if cfg.Git.Scale == 0 {
		cfg.Git.Scale = 0.7
	}

	return cfg, nil
}
