package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROJECTID", "FIREBASEAPIKEY", "APIKEYSECRET", "KMSKEYNAME", "LOGLEVEL",
		"DATADIR", "LISTENADDR", "RESETREDIRECTURL", "REQUIREEMAILVERIFICATION", "MERGEPARTIALFETCH",
	} {
		t.Setenv(key, "")
	}
}

func TestNewSubstitutesPlaceholders(t *testing.T) {
	clearEnv(t)

	cfg := New()
	if cfg.ProjectID != PlaceholderProjectID || cfg.FirebaseAPIKey != PlaceholderAPIKey {
		t.Fatalf("expected placeholders, got %q / %q", cfg.ProjectID, cfg.FirebaseAPIKey)
	}
	if cfg.Configured() {
		t.Fatalf("config without project id or key should not be configured")
	}

	d := cfg.Diagnostics()
	if d.HasProjectID || d.HasAPIKey || d.ProjectIDValid {
		t.Fatalf("unexpected diagnostics: %+v", d)
	}
}

func TestNewReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECTID", "savvi-prod")
	t.Setenv("FIREBASEAPIKEY", "AIza-test")
	t.Setenv("MERGEPARTIALFETCH", "true")
	t.Setenv("DATADIR", t.TempDir())

	cfg := New()
	if !cfg.Configured() {
		t.Fatalf("expected configured")
	}
	if !cfg.MergePartialFetch {
		t.Fatalf("MERGEPARTIALFETCH not applied")
	}
	if !cfg.Diagnostics().ProjectIDValid {
		t.Fatalf("savvi-prod should be a valid project id")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoadLayersFileUnderEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
project_id = "from-file"
log_level = "debug"
listen_addr = "127.0.0.1:9000"
require_email_verification = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LISTENADDR", "127.0.0.1:9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ProjectID != "from-file" || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ListenAddr != "127.0.0.1:9100" {
		t.Fatalf("env should override file, got %s", cfg.ListenAddr)
	}
	if !cfg.RequireEmailVerification {
		t.Fatalf("require_email_verification not applied")
	}
	if cfg.Configured() {
		t.Fatalf("no api key supplied, should not be configured")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != defaultListenAddr {
		t.Fatalf("ListenAddr = %s, want default", cfg.ListenAddr)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Fatalf("DataDir should be expanded, got %s", cfg.DataDir)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTENADDR", "nope")
	t.Setenv("RESETREDIRECTURL", "ftp://example.test")
	t.Setenv("PROJECTID", "Bad_Project")

	err := New().Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"listen address", "reset redirect", "project id"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("validation error %q missing %q", err, want)
		}
	}
}
