package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Clients.DefaultTimeout != 300 {
		t.Errorf("expected default timeout 300, got %d", cfg.Clients.DefaultTimeout)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json logging, got %s", cfg.Logging.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentlink.yaml")
	yaml := `
server:
  port: 9090
clients:
  builtin_dir: /opt/agentlink/clients
  default_timeout: 60
prompts:
  cache_ttl: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Clients.BuiltinDir != "/opt/agentlink/clients" {
		t.Errorf("unexpected builtin_dir: %s", cfg.Clients.BuiltinDir)
	}
	if cfg.Clients.DefaultTimeout != 60 {
		t.Errorf("expected timeout 60, got %d", cfg.Clients.DefaultTimeout)
	}
	if cfg.Prompts.CacheTTL != 30*time.Second {
		t.Errorf("expected 30s cache TTL, got %s", cfg.Prompts.CacheTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Clients.MaxTimeout != 1800 {
		t.Errorf("expected default max_timeout, got %d", cfg.Clients.MaxTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentlink.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENTLINK_SERVER__PORT", "7070")
	t.Setenv("AGENTLINK_SERVER__AUTH_TOKEN", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("env should override file, got port %d", cfg.Server.Port)
	}
	if cfg.Server.AuthToken != "secret" {
		t.Errorf("expected auth token from env, got %q", cfg.Server.AuthToken)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("/nonexistent/agentlink.yaml")
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidateTimeouts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentlink.yaml")
	yaml := "clients:\n  default_timeout: 600\n  max_timeout: 60\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "max_timeout") {
		t.Fatalf("expected max_timeout validation error, got %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/clients"); got != filepath.Join(home, "clients") {
		t.Errorf("ExpandHome(~/clients) = %s", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path should be unchanged, got %s", got)
	}
	if got := ExpandHome("relative"); got != "relative" {
		t.Errorf("relative path should be unchanged, got %s", got)
	}
}
