// Package main provides the Erfassinator application. It logs in to the
// FW portal, lists Einsatzberichte and confirms them, either interactively
// in the terminal or unattended from a YAML run file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/config"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/executor/headless"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/executor/tui"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
)

const version = "0.1.0" // Version of Erfassinator

// Config holds the application configuration
type Config struct {
	BaseURL        string
	Username       string
	ConfigPath     string
	Mock           bool
	ShowVersion    bool
	Headless       bool
	HeadlessConfig string
}

func main() {
	// Parse command line flags
	config := parseFlags()

	// Show version if requested
	if config.ShowVersion {
		fmt.Printf("Erfassinator v%s\n", version)
		return
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Run the application
	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags and environment variables
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.BaseURL, "base-url", os.Getenv("ERFASSINATOR_BASE_URL"), "FW portal base URL (or set ERFASSINATOR_BASE_URL env var)")
	flag.StringVar(&config.Username, "user", "", "Portal username (prefills the login form)")
	flag.StringVar(&config.ConfigPath, "config", "", "Path to the settings file (default: ~/.erfassinator/config.json)")
	flag.BoolVar(&config.Mock, "mock", false, "Use the built-in demo backend instead of the portal")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")
	flag.BoolVar(&config.Headless, "headless", false, "Run in headless mode (non-interactive)")
	flag.StringVar(&config.HeadlessConfig, "headless-config", "", "Path to headless mode configuration file (YAML)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Erfassinator - FW Portal Berichte erfassen\n\n")
		fmt.Fprintf(os.Stderr, "Usage: erfassinator [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ERFASSINATOR_BASE_URL    Portal base URL\n")
		fmt.Fprintf(os.Stderr, "  %s    Portal password (headless mode)\n", headless.DefaultPasswordEnv)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # TUI Mode (default)\n")
		fmt.Fprintf(os.Stderr, "  erfassinator -base-url https://portal.example -user kommandant\n")
		fmt.Fprintf(os.Stderr, "  erfassinator -mock                       # Demo data, login admin/admin\n")
		fmt.Fprintf(os.Stderr, "\n  # Headless Mode\n")
		fmt.Fprintf(os.Stderr, "  erfassinator -headless -headless-config run.yaml\n")
	}

	flag.Parse()
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	// Headless mode requires config file
	if c.Headless && c.HeadlessConfig == "" {
		return fmt.Errorf("headless mode requires a configuration file (use -headless-config flag)")
	}
	if c.BaseURL != "" {
		if err := portal.DefaultEndpoints(c.BaseURL).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Check if headless mode is requested
	if config.Headless {
		return runHeadless(ctx, config)
	}

	// Run TUI mode (default)
	return runTUI(ctx, config)
}

// runTUI executes the TUI mode
func runTUI(ctx context.Context, config *Config) error {
	section := appconfig.GetPortal()
	if config.BaseURL != "" {
		section.SetBaseURL(config.BaseURL)
	}
	if config.Username != "" {
		section.SetUsername(config.Username)
	}

	backend, err := newBackend(section, config.Mock)
	if err != nil {
		return err
	}

	// Remember the portal and user given on the command line
	if !config.Mock && (config.BaseURL != "" || config.Username != "") {
		if saveErr := appconfig.Global().SaveAll(); saveErr != nil {
			log.Printf("Warning: failed to save settings: %v", saveErr)
		}
	}

	executor := tui.NewExecutor(
		backend,
		tui.WithUISettings(appconfig.GetUI()),
		tui.WithUsername(section.GetUsername()),
	)
	return executor.Run(ctx)
}

// newBackend returns the demo backend or an HTTP client for the portal
// described by section.
func newBackend(section *appconfig.PortalSection, mock bool) (portal.Backend, error) {
	if mock {
		return portal.NewMemoryBackend(), nil
	}
	if section.GetBaseURL() == "" {
		return nil, fmt.Errorf("portal base URL is required. Use -base-url or set portal.base_url in the settings file")
	}

	client, err := portal.NewClient(section.Endpoints(), portal.WithTimeout(section.Timeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to create portal client: %w", err)
	}
	return client, nil
}
