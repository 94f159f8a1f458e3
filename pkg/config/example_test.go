package config_test

import (
	"fmt"

	"github.com/newer-zhu/investment/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Dataset mode: %s\n", cfg.Data.Mode)
	fmt.Printf("Output dir: %s\n", cfg.OutputDir)
}
