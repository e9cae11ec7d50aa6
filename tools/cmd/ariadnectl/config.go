package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

// loadConfig reads path over the defaults. An empty path is the defaults.
func loadConfig(path string) (*ariadne.Config, error) {
	config := ariadne.NewConfig()
	if path == "" {
		return config, config.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("config `%s': %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config `%s': %w", path, err)
	}
	return config, nil
}
