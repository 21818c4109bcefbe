package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "model:\n  path: ./models/bank.json\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != defaultPort {
		t.Fatalf("expected port %d, got %d", defaultPort, cfg.Http.Port)
	}
	if cfg.Http.Timeout != defaultTimeout {
		t.Fatalf("expected timeout %s, got %s", defaultTimeout, cfg.Http.Timeout)
	}
	if cfg.Model.Path != "./models/bank.json" {
		t.Fatalf("unexpected model path: %s", cfg.Model.Path)
	}
	if cfg.Model.PositiveLabel != "yes" {
		t.Fatalf("unexpected positive label: %s", cfg.Model.PositiveLabel)
	}
	if cfg.Database.Path != "" {
		t.Fatalf("expected history disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 8081
  timeout: 5s
log:
  level: debug
model:
  cache: true
database:
  path: history.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 8081 || cfg.Http.Timeout != 5*time.Second {
		t.Fatalf("unexpected http config: %+v", cfg.Http)
	}
	if !cfg.Model.Cache {
		t.Fatalf("unexpected model config: %+v", cfg.Model)
	}
	if cfg.Database.Path != "history.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "http:\n  port: 70000\n"},
		{"level", "log:\n  level: verbose\n"},
		{"timeout", "http:\n  timeout: -5s\n"},
		{"yaml", "http: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
