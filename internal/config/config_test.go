package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "server.yaml")
	content := `
server:
  port: 9090
  read_timeout: 10s
  write_timeout: 60s
data_dir: /tmp/emulator-data
backend_base_url: http://localhost:9999/v1
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.DataDir != "/tmp/emulator-data" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.BackendBaseURL != "http://localhost:9999/v1" {
		t.Errorf("unexpected backend base url %q", cfg.BackendBaseURL)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 11434 {
		t.Errorf("expected default port 11434, got %d", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 120*time.Second {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.DataDir != "config" {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_DATA_DIR", "/var/emu")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(configPath, []byte("data_dir: ${TEST_DATA_DIR}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/var/emu" {
		t.Errorf("expected expanded data dir, got %q", cfg.DataDir)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 99999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
