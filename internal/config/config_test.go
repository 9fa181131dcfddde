package config

import (
	"os"
	"path/filepath"
	"testing"
)

// hogcheckEnvVars lists every env var the loader reads, for clearing.
var hogcheckEnvVars = []string{
	"HOGCHECK_API_BASE", "HOGCHECK_SMTP_ADDR", "HOGCHECK_COUNT",
	"HOGCHECK_IMAGE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range hogcheckEnvVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBase != "http://localhost:8025" {
		t.Errorf("APIBase: got %q, want %q", cfg.APIBase, "http://localhost:8025")
	}
	if cfg.SMTPAddr != "localhost:1025" {
		t.Errorf("SMTPAddr: got %q, want %q", cfg.SMTPAddr, "localhost:1025")
	}
	if cfg.Count != 1 {
		t.Errorf("Count: got %d, want 1", cfg.Count)
	}
	if cfg.Image != "" {
		t.Errorf("Image: got %q, want empty", cfg.Image)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("HOGCHECK_API_BASE", "http://capture.test:9025")
	t.Setenv("HOGCHECK_SMTP_ADDR", "capture.test:2525")
	t.Setenv("HOGCHECK_COUNT", "7")
	t.Setenv("HOGCHECK_IMAGE", "mailhog/mailhog:v1.0.0")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBase != "http://capture.test:9025" {
		t.Errorf("APIBase: got %q, want %q", cfg.APIBase, "http://capture.test:9025")
	}
	if cfg.SMTPAddr != "capture.test:2525" {
		t.Errorf("SMTPAddr: got %q, want %q", cfg.SMTPAddr, "capture.test:2525")
	}
	if cfg.Count != 7 {
		t.Errorf("Count: got %d, want 7", cfg.Count)
	}
	if cfg.Image != "mailhog/mailhog:v1.0.0" {
		t.Errorf("Image: got %q, want %q", cfg.Image, "mailhog/mailhog:v1.0.0")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q (lowered)", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidCountIgnored(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "many"},
		{"zero", "0"},
		{"negative", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOGCHECK_COUNT", tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Count != 1 {
				t.Errorf("Count: got %d, want default 1", cfg.Count)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	yamlContent := `
api_base: "http://yaml.test:8025"
smtp_addr: "yaml.test:1025"
count: 5
image: "mailhog/mailhog:v1.0.1"
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBase != "http://yaml.test:8025" {
		t.Errorf("APIBase: got %q, want %q", cfg.APIBase, "http://yaml.test:8025")
	}
	if cfg.SMTPAddr != "yaml.test:1025" {
		t.Errorf("SMTPAddr: got %q, want %q", cfg.SMTPAddr, "yaml.test:1025")
	}
	if cfg.Count != 5 {
		t.Errorf("Count: got %d, want 5", cfg.Count)
	}
	if cfg.Image != "mailhog/mailhog:v1.0.1" {
		t.Errorf("Image: got %q, want %q", cfg.Image, "mailhog/mailhog:v1.0.1")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	yamlContent := `
api_base: "http://yaml.test:8025"
smtp_addr: "yaml.test:1025"
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv("HOGCHECK_API_BASE", "http://env.test:9025")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env var should override YAML
	if cfg.APIBase != "http://env.test:9025" {
		t.Errorf("APIBase: got %q, want %q (env should override YAML)", cfg.APIBase, "http://env.test:9025")
	}
	// Empty env var should NOT override YAML value
	if cfg.SMTPAddr != "yaml.test:1025" {
		t.Errorf("SMTPAddr: got %q, want %q (empty env should not override YAML)", cfg.SMTPAddr, "yaml.test:1025")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level: got %q, want %q (env should override YAML)", cfg.Logging.Level, "error")
	}
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("api_base: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}
