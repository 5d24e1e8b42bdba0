// Package config loads regconsole settings from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all regconsole configuration.
type Config struct {
	// Origin is the hosting origin regulations.json is resolved against.
	// Empty means the resource is read from the working directory.
	Origin   string         `yaml:"origin"`
	Resource string         `yaml:"resource"`
	DataPath string         `yaml:"data_path"`
	Listen   string         `yaml:"listen"`
	Format   string         `yaml:"format"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Generate GenerateConfig `yaml:"generate"`
}

// ScrapeConfig controls source page fetching.
type ScrapeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Source  string        `yaml:"source"`
}

// GenerateConfig controls record assembly.
type GenerateConfig struct {
	Status    string `yaml:"status"`
	Extractor string `yaml:"extractor"`
	// LLMRate caps llm extractor calls per second; 0 is unlimited.
	LLMRate float64 `yaml:"llm_rps"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Resource == "" {
		c.Resource = "regulations.json"
	}
	if c.DataPath == "" {
		c.DataPath = "regulations.json"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Format == "" {
		c.Format = "html"
	}
	if c.Scrape.Timeout <= 0 {
		c.Scrape.Timeout = 10 * time.Second
	}
	if c.Scrape.Source == "" {
		c.Scrape.Source = "Unknown"
	}
	if c.Generate.Status == "" {
		c.Generate.Status = "final"
	}
	if c.Generate.Extractor == "" {
		c.Generate.Extractor = "heuristic"
	}
}

// Load reads a YAML config file and applies defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
