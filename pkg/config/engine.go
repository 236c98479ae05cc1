// Package config loads engine settings and project files.
package config

import (
	"fmt"
	"os"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EngineConfig represents the structure of the engine YAML file.
type EngineConfig struct {
	Parallel bool                `yaml:"parallel"`
	Workers  int                 `yaml:"workers" validate:"min=1,max=256"`
	Balance  calc.BalanceOptions `yaml:"balance"`
}

// DefaultEngineConfig evaluates sequentially with the default balancer settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers: 4,
		Balance: calc.DefaultBalanceOptions(),
	}
}

// LoadEngineConfig loads engine configuration from a YAML file. Missing keys keep their defaults.
func LoadEngineConfig(filepath string) (EngineConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	config := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := ValidateEngineConfig(config); err != nil {
		return EngineConfig{}, err
	}

	return config, nil
}

// LoadEngineConfigOrDefault attempts to load engine config from file,
// falling back to the default configuration when it cannot be read.
func LoadEngineConfigOrDefault(filepath string) EngineConfig {
	if filepath == "" {
		return DefaultEngineConfig()
	}

	config, err := LoadEngineConfig(filepath)
	if err != nil {
		return DefaultEngineConfig()
	}

	return config
}

// ValidateEngineConfig validates the engine configuration.
func ValidateEngineConfig(config EngineConfig) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	return nil
}

// Options converts the configuration into executor options.
func (c EngineConfig) Options() []engine.Option {
	opts := []engine.Option{engine.WithBalanceOptions(c.Balance)}

	if c.Parallel {
		opts = append(opts, engine.WithParallel(c.Workers))
	}

	return opts
}
