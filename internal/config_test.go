package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/canvasnest/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestWorkspaceConfig_Defaults(t *testing.T) {
	cfg := WorkspaceConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty workspace config should default: %v", err)
	}
	if cfg.Source != "layout" || cfg.LayoutFile != ".obsidian/workspace.json" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if got := cfg.LayoutPath("/vault"); got != filepath.Join("/vault", ".obsidian", "workspace.json") {
		t.Errorf("LayoutPath = %q", got)
	}
}

func TestWorkspaceConfig_InvalidSource(t *testing.T) {
	cfg := WorkspaceConfig{Source: "telepathy"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown source should fail validation")
	}
}

func TestFullConfig_JournalRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Journal.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty journal path should fail")
	}
}

func TestLoadYAMLWithEnv(t *testing.T) {
	t.Setenv("CANVASNEST_TEST_VAULT", "/data/vault")
	p := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
  http:
    port: 9000
  lock_path: /tmp/canvasnest.lock
vault:
  path: ${CANVASNEST_TEST_VAULT}
workspace:
  source: registry
journal:
  path: /tmp/canvasnest.db
`
	if err := os.WriteFile(p, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(p, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Path != "/data/vault" {
		t.Errorf("vault path = %q", cfg.Vault.Path)
	}
	if cfg.App.HTTP.Port != 9000 || cfg.Workspace.Source != "registry" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Workspace.LayoutFile != ".obsidian/workspace.json" {
		t.Errorf("layout default lost: %q", cfg.Workspace.LayoutFile)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("auth mode = %q", cfg.Auth.Mode)
	}
}
