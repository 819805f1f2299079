package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8000" {
		t.Errorf("expected default addr ':8000', got %q", cfg.Server.Addr)
	}

	if cfg.Server.MaxUploadBytes != 10_000_000 {
		t.Errorf("expected max upload 10000000, got %d", cfg.Server.MaxUploadBytes)
	}

	if cfg.Pipeline.MaxParallel != 4 {
		t.Errorf("expected max_parallel 4, got %d", cfg.Pipeline.MaxParallel)
	}

	if cfg.Pipeline.DefaultMode != "full" {
		t.Errorf("expected default mode 'full', got %q", cfg.Pipeline.DefaultMode)
	}

	if cfg.Document.ReadAttempts != 3 {
		t.Errorf("expected read attempts 3, got %d", cfg.Document.ReadAttempts)
	}

	if cfg.Document.ReadBackoff != 100*time.Millisecond {
		t.Errorf("expected read backoff 100ms, got %v", cfg.Document.ReadBackoff)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-opus-4-20250514
serper:
  api_key: serper-key
server:
  addr: ":9100"
  data_dir: /tmp/uploads
  max_upload_bytes: 5000000
pipeline:
  max_parallel: 2
  default_mode: medical
document:
  read_attempts: 5
  read_backoff: 250ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Isolate from any ambient API key; env takes precedence over the file.
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("api_key = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.Model != "claude-opus-4-20250514" {
		t.Errorf("model = %q", cfg.Anthropic.Model)
	}
	if cfg.Serper.APIKey != "serper-key" {
		t.Errorf("serper api_key = %q", cfg.Serper.APIKey)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 5_000_000 {
		t.Errorf("max_upload_bytes = %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Pipeline.MaxParallel != 2 {
		t.Errorf("max_parallel = %d", cfg.Pipeline.MaxParallel)
	}
	if cfg.Pipeline.DefaultMode != "medical" {
		t.Errorf("default_mode = %q", cfg.Pipeline.DefaultMode)
	}
	if cfg.Document.ReadAttempts != 5 {
		t.Errorf("read_attempts = %d", cfg.Document.ReadAttempts)
	}
	if cfg.Document.ReadBackoff != 250*time.Millisecond {
		t.Errorf("read_backoff = %v", cfg.Document.ReadBackoff)
	}
}

func TestLoadFromPathFillsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("serper:\n  api_key: k\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("addr default not applied, got %q", cfg.Server.Addr)
	}
	if cfg.Document.ReadAttempts != 3 {
		t.Errorf("read_attempts default not applied, got %d", cfg.Document.ReadAttempts)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestAPIKeyEnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: ${LABCREW_TEST_KEY}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Isolate from any ambient API key; env takes precedence over the file.
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("LABCREW_TEST_KEY", "expanded-key")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Anthropic.APIKey != "expanded-key" {
		t.Errorf("api_key = %q, want expanded-key", cfg.Anthropic.APIKey)
	}
}
