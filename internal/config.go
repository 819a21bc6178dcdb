package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/canvasnest/internal/workspace"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Journal   JournalConfig     `yaml:"journal"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// LockPath guards against two daemons relocating in the same vault.
	LockPath string `yaml:"lock_path"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LockPath, validation.Required),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// WorkspaceConfig selects where open panes are read from.
//
// Source is one of:
//   - "layout" (default): the host's layout file, re-read on every event.
//   - "registry": panes reported through the HTTP API.
type WorkspaceConfig struct {
	Source     string `yaml:"source"`
	LayoutFile string `yaml:"layout_file"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	if c.Source == "" {
		c.Source = workspace.SourceLayout
	}
	if c.LayoutFile == "" {
		c.LayoutFile = workspace.DefaultLayoutFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required, validation.In(workspace.SourceLayout, workspace.SourceRegistry)),
	)
}

// LayoutPath resolves the layout file against the vault directory.
func (c *WorkspaceConfig) LayoutPath(vaultDir string) string {
	if filepath.IsAbs(c.LayoutFile) {
		return c.LayoutFile
	}
	return filepath.Join(vaultDir, filepath.FromSlash(c.LayoutFile))
}

// JournalConfig holds the relocation history database path.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8090,
			},
			LockPath: "./canvasnest.lock",
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Workspace: WorkspaceConfig{
			Source:     workspace.SourceLayout,
			LayoutFile: workspace.DefaultLayoutFile,
		},
		Journal: JournalConfig{
			Path: "./canvasnest.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
