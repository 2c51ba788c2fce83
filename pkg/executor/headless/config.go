package headless

import (
	"fmt"
	"os"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"gopkg.in/yaml.v3"
)

// DefaultPasswordEnv is read for the portal password unless the config
// names another variable.
const DefaultPasswordEnv = "ERFASSINATOR_PASSWORD"

// Config represents the configuration for a headless run
type Config struct {
	// Portal connection
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Which reports to confirm
	Selection SelectionConfig `yaml:"selection" json:"selection"`

	// DryRun lists and selects but confirms nothing
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// Timeout bounds the whole run; zero means no limit
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PortalConfig names the portal and the account. The password itself is
// never part of the file; it is read from the environment variable
// PasswordEnv.
type PortalConfig struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	Username    string `yaml:"username" json:"username"`
	PasswordEnv string `yaml:"password_env" json:"password_env"`
}

// SelectionConfig decides which listed reports are confirmed.
type SelectionConfig struct {
	// IDs selects reports explicitly. Takes precedence over AllPending.
	IDs []int `yaml:"ids" json:"ids"`

	// AllPending selects every listed report whose status is PendingStatus.
	AllPending    bool   `yaml:"all_pending" json:"all_pending"`
	PendingStatus string `yaml:"pending_status" json:"pending_status"`

	// Include and Exclude are glob patterns over report titles. Exclude
	// wins over Include.
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// Validate validates the configuration and fills in defaults for empty
// optional fields.
func (c *Config) Validate() error {
	if c.Portal.Username == "" {
		return fmt.Errorf("portal.username is required")
	}
	if c.Portal.BaseURL != "" {
		if err := portal.DefaultEndpoints(c.Portal.BaseURL).Validate(); err != nil {
			return err
		}
	}
	if c.Portal.PasswordEnv == "" {
		c.Portal.PasswordEnv = DefaultPasswordEnv
	}

	if len(c.Selection.IDs) == 0 && !c.Selection.AllPending {
		return fmt.Errorf("selection needs ids or all_pending")
	}
	for _, id := range c.Selection.IDs {
		if id <= 0 {
			return fmt.Errorf("invalid report id %d", id)
		}
	}
	if c.Selection.PendingStatus == "" {
		c.Selection.PendingStatus = portal.StatusPending
	}
	if _, err := NewSelector(c.Selection); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// Password reads the portal password from the configured environment
// variable.
func (c *Config) Password() (string, error) {
	env := c.Portal.PasswordEnv
	if env == "" {
		env = DefaultPasswordEnv
	}
	password := os.Getenv(env)
	if password == "" {
		return "", fmt.Errorf("portal password not set: environment variable %s is empty", env)
	}
	return password, nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			PasswordEnv: DefaultPasswordEnv,
		},
		Selection: SelectionConfig{
			PendingStatus: portal.StatusPending,
		},
		Timeout: 10 * time.Minute,
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".erfassinator/artifacts",
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// LoadConfig reads a YAML run description on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
