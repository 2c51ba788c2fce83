package headless

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Portal.BaseURL = "https://portal.example"
	cfg.Portal.Username = "admin"
	cfg.Selection.AllPending = true
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"explicit ids", func(c *Config) { c.Selection.AllPending = false; c.Selection.IDs = []int{1, 2} }, false},
		{"no base url", func(c *Config) { c.Portal.BaseURL = "" }, false},
		{"missing username", func(c *Config) { c.Portal.Username = "" }, true},
		{"invalid base url", func(c *Config) { c.Portal.BaseURL = "portal.example" }, true},
		{"nothing selected", func(c *Config) { c.Selection.AllPending = false }, true},
		{"non-positive id", func(c *Config) { c.Selection.IDs = []int{3, 0} }, true},
		{"invalid include glob", func(c *Config) { c.Selection.Include = []string{"[Brand"} }, true},
		{"invalid exclude glob", func(c *Config) { c.Selection.Exclude = []string{"[Brand"} }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Minute }, true},
		{"artifacts without dir", func(c *Config) { c.Artifacts.OutputDir = "" }, true},
		{"artifacts disabled without dir", func(c *Config) { c.Artifacts.Enabled = false; c.Artifacts.OutputDir = "" }, false},
		{"invalid verbosity", func(c *Config) { c.Logging.Verbosity = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	cfg := &Config{
		Portal:    PortalConfig{Username: "admin"},
		Selection: SelectionConfig{AllPending: true},
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultPasswordEnv, cfg.Portal.PasswordEnv)
	assert.Equal(t, portal.StatusPending, cfg.Selection.PendingStatus)
	assert.Equal(t, "normal", cfg.Logging.Verbosity)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultPasswordEnv, config.Portal.PasswordEnv)
	assert.Equal(t, portal.StatusPending, config.Selection.PendingStatus)
	assert.Equal(t, 10*time.Minute, config.Timeout)
	assert.True(t, config.Artifacts.Enabled)
	assert.Equal(t, ".erfassinator/artifacts", config.Artifacts.OutputDir)
	assert.Equal(t, "normal", config.Logging.Verbosity)
	assert.False(t, config.DryRun)
}

func TestConfig_Password(t *testing.T) {
	cfg := validConfig()

	t.Setenv(DefaultPasswordEnv, "")
	_, err := cfg.Password()
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultPasswordEnv)

	t.Setenv(DefaultPasswordEnv, "geheim")
	password, err := cfg.Password()
	require.NoError(t, err)
	assert.Equal(t, "geheim", password)

	cfg.Portal.PasswordEnv = "FW_PORTAL_PASSWORD"
	t.Setenv("FW_PORTAL_PASSWORD", "anders")
	password, err = cfg.Password()
	require.NoError(t, err)
	assert.Equal(t, "anders", password)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `portal:
  base_url: https://portal.example
  username: wehrfuehrer
selection:
  ids: [3, 1]
  exclude: ["Fehlalarm*"]
dry_run: true
timeout: 2m
artifacts:
  output_dir: out
logging:
  verbosity: verbose
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example", cfg.Portal.BaseURL)
	assert.Equal(t, "wehrfuehrer", cfg.Portal.Username)
	assert.Equal(t, []int{3, 1}, cfg.Selection.IDs)
	assert.Equal(t, []string{"Fehlalarm*"}, cfg.Selection.Exclude)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "verbose", cfg.Logging.Verbosity)

	// Unset keys keep their defaults
	assert.True(t, cfg.Artifacts.Enabled)
	assert.Equal(t, "out", cfg.Artifacts.OutputDir)
	assert.Equal(t, DefaultPasswordEnv, cfg.Portal.PasswordEnv)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("portal: [unclosed"), 0600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
