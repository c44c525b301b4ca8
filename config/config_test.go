package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/config"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", dir)

	cfg, err := config.Load([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != 4711 {
		t.Fatalf("expected default port 4711, got %d", cfg.ServerPort)
	}
	if cfg.SchedulerProcessLimit != 4 {
		t.Fatalf("expected default process limit 4, got %d", cfg.SchedulerProcessLimit)
	}
	if cfg.SchedulerSleep != 1000*time.Millisecond {
		t.Fatalf("expected default sleep 1s, got %s", cfg.SchedulerSleep)
	}

	if _, err := filepath.Abs(filepath.Join(dir, ".config", "spanners", "server.cfg")); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SPANNERS_SERVER_PORT", "9000")
	if err := os.MkdirAll(filepath.Join(dir, "spanners"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "spanners", "server.cfg"), []byte("server-port: 8000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != 9000 {
		t.Fatalf("expected env override 9000, got %d", cfg.ServerPort)
	}
}

func TestLoadCLIOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SPANNERS_SERVER_PORT", "9000")

	cfg, err := config.Load([]string{"--server-port", "1234"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != 1234 {
		t.Fatalf("expected CLI override 1234, got %d", cfg.ServerPort)
	}
}

func TestRetentionDisabledByDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", dir)

	cfg, err := config.Load([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RetentionEnabled {
		t.Fatal("expected retention to be disabled by default")
	}
	if cfg.RetentionInterval != time.Hour {
		t.Fatalf("expected default retention interval 1h, got %s", cfg.RetentionInterval)
	}
}

func TestRetentionEnabledViaCLI(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := config.Load([]string{"--retention-enabled", "--retention-max-age", "48h"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.RetentionEnabled {
		t.Fatal("expected retention to be enabled")
	}
	if cfg.RetentionMaxAge != 48*time.Hour {
		t.Fatalf("expected max age 48h, got %s", cfg.RetentionMaxAge)
	}
}
