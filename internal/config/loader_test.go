package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voxteller/voxteller/internal/config"
)

func TestLoad_File(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "voxteller.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Collaborators.Transcribe.BaseURL != "ws://transcribe:9007/stream" {
		t.Errorf("transcribe.base_url: got %q", cfg.Collaborators.Transcribe.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidConfigNamesPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "voxteller.yaml")
	if err := os.WriteFile(path, []byte("server:\n  log_level: loud\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
}
