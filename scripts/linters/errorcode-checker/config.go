package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the ErrorCode checker configuration
type Config struct {
	ExcludePaths      []string `yaml:"exclude_paths"`
	ForbiddenPatterns []string `yaml:"forbidden_patterns"`
	ExitOnUnused      bool     `yaml:"exit_on_unused"`
	ExitOnDuplicate   bool     `yaml:"exit_on_duplicate"`
	ExitOnViolation   bool     `yaml:"exit_on_violation"`
	Verbose           bool     `yaml:"verbose"`
}

// loadConfig loads configuration from file or uses defaults
func loadConfig(configPath string) (*Config, error) {
	config := &Config{
		ExcludePaths:      []string{"_examples/", "scripts/", "testdata/", "vendor/", ".git/"},
		ForbiddenPatterns: []string{`fmt\.Errorf\(.*%w`},
		ExitOnUnused:      true,
		ExitOnDuplicate:   true,
		ExitOnViolation:   true,
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}
