package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig describes one planner invocation: where the catalogue and rule
// and similarity configuration documents live, how long the planner may
// run, and where the provenance log and result output should be written.
type RunConfig struct {
	CataloguePath        string `yaml:"catalogue_path"`
	RuleConfigPath       string `yaml:"rule_config_path"`
	SimilarityConfigPath string `yaml:"similarity_config_path"`
	ProvenancePath       string `yaml:"provenance_path"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	OutputPath           string `yaml:"output_path"`
}

// Timeout returns the configured timeout as a time.Duration, defaulting to
// 30 seconds when unset or non-positive.
func (c RunConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func loadRunConfig(path string) (RunConfig, error) {
	var cfg RunConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read run config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse run config: %w", err)
	}
	if cfg.CataloguePath == "" {
		return cfg, fmt.Errorf("run config missing catalogue_path")
	}
	return cfg, nil
}

// readOptional returns the contents of path, or nil if path is empty.
// Missing-but-named files are still an error, since an operator who named a
// rule config path almost certainly expects it to exist.
func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return data, nil
}
