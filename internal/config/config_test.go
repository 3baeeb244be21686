package config

import (
	"os"
	"path/filepath"
	"testing"
)

// =========================================================================
// DEFAULTS / FILE / ENV LAYERING TESTS
// =========================================================================

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/snipstash.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.TagScope != TagScopeOwner {
		t.Errorf("TagScope = %q, want owner", cfg.TagScope)
	}
	if cfg.TokenTTLMinutes != 60 {
		t.Errorf("TokenTTLMinutes = %d, want 60", cfg.TokenTTLMinutes)
	}
	if cfg.GitHubEnabled() {
		t.Error("GitHubEnabled() = true without credentials")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
port: 9090
log_level: debug
tag_scope: global
github:
  client_id: abc
  client_secret: def
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.TagScope != TagScopeGlobal {
		t.Errorf("TagScope = %q, want global", cfg.TagScope)
	}
	if !cfg.GitHubEnabled() {
		t.Error("GitHubEnabled() = false with both credentials set")
	}
	// File did not set db_path; the default must survive the merge.
	if cfg.DBPath != "data/snipstash.db" {
		t.Errorf("DBPath = %q, want the default", cfg.DBPath)
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("SNIPSTASH_PORT", "3000")
	t.Setenv("SNIPSTASH_JWT_SECRET", "env-secret-16-characters")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want env override 3000", cfg.Port)
	}
	if cfg.JWTSecret != "env-secret-16-characters" {
		t.Errorf("JWTSecret = %q, want env value", cfg.JWTSecret)
	}
}

// TestLoad_EnvOverridesFile: env beats file beats default.
func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9090\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("SNIPSTASH_PORT", "3000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000 (env wins)", cfg.Port)
	}
}

func TestLoad_BrokenFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [not yaml"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() accepted a broken config file")
	}
}

// =========================================================================
// VALIDATION TESTS
// =========================================================================

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SNIPSTASH_PORT": "70000"}},
		{"bad tag scope", map[string]string{"SNIPSTASH_TAG_SCOPE": "per-team"}},
		{"zero ttl", map[string]string{"SNIPSTASH_TOKEN_TTL_MINUTES": "0"}},
		{"bcrypt cost too low", map[string]string{"SNIPSTASH_BCRYPT_COST": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Errorf("Load() accepted %v", tt.env)
			}
		})
	}
}
