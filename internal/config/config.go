// Package config loads and saves run configuration files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPopulationSize = 100
	DefaultGenerations    = 50
	DefaultDimensions     = 4
	DefaultThreshold      = 1.0
	DefaultMaxSpecies     = 40
	DefaultStagnation     = 15
	DefaultMutationSigma  = 0.1
	DefaultSurvivalRate   = 0.5
	DefaultInitBound      = 5.0
)

type Config struct {
	RunID          string  `yaml:"run_id"`
	Objective      string  `yaml:"objective"`
	PopulationSize int     `yaml:"population_size"`
	Generations    int     `yaml:"generations"`
	Dimensions     int     `yaml:"dimensions"`
	Seed           int64   `yaml:"seed"`
	Speciation     Knobs   `yaml:"speciation"`
	MutationSigma  float64 `yaml:"mutation_sigma"`
	SurvivalRate   float64 `yaml:"survival_rate"`
	InitBound      float64 `yaml:"init_bound"`
}

// Knobs are the engine's settable configuration values.
type Knobs struct {
	Threshold  float64 `yaml:"threshold"`
	MaxSpecies int     `yaml:"max_species"`
	Stagnation int     `yaml:"stagnation"`
}

func DefaultConfig() *Config {
	return &Config{
		Objective:      "sphere",
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		Dimensions:     DefaultDimensions,
		Speciation: Knobs{
			Threshold:  DefaultThreshold,
			MaxSpecies: DefaultMaxSpecies,
			Stagnation: DefaultStagnation,
		},
		MutationSigma: DefaultMutationSigma,
		SurvivalRate:  DefaultSurvivalRate,
		InitBound:     DefaultInitBound,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0")
	}
	if c.Generations <= 0 {
		return fmt.Errorf("generations must be > 0")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be > 0")
	}
	if c.Speciation.Threshold <= 0 {
		return fmt.Errorf("speciation threshold must be > 0")
	}
	if c.SurvivalRate <= 0 || c.SurvivalRate > 1 {
		return fmt.Errorf("survival rate must be in (0, 1]")
	}
	return nil
}
