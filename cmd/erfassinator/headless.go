package main

import (
	"context"
	"fmt"

	appconfig "github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/config"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/executor/headless"
)

// runHeadless executes the headless mode
func runHeadless(ctx context.Context, config *Config) error {
	// Load and validate configuration
	execConfig, err := loadAndValidateConfig(config)
	if err != nil {
		return err
	}

	// The run file wins over the settings file, command line flags win over both
	section := appconfig.GetPortal()
	if execConfig.Portal.BaseURL != "" {
		section.SetBaseURL(execConfig.Portal.BaseURL)
	}
	if config.BaseURL != "" {
		section.SetBaseURL(config.BaseURL)
	}
	execConfig.Portal.BaseURL = section.GetBaseURL()

	backend, err := newBackend(section, config.Mock)
	if err != nil {
		return err
	}

	executor, err := headless.NewExecutor(backend, execConfig)
	if err != nil {
		return fmt.Errorf("failed to create headless executor: %w", err)
	}

	return executor.Run(ctx)
}

// loadAndValidateConfig loads the run file and applies command line overrides
func loadAndValidateConfig(config *Config) (*headless.Config, error) {
	execConfig, err := headless.LoadConfig(config.HeadlessConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load headless config: %w", err)
	}

	if config.Username != "" {
		execConfig.Portal.Username = config.Username
	}
	if execConfig.Portal.Username == "" {
		execConfig.Portal.Username = appconfig.GetPortal().GetUsername()
	}

	if err := execConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid headless config: %w", err)
	}
	return execConfig, nil
}
