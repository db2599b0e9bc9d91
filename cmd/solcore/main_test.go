package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("SOLCORE_CONFIG")
	defer os.Setenv("SOLCORE_CONFIG", originalEnv)

	os.Setenv("SOLCORE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidRegistryConfig verifies run fails when a client is
// provisioned without an auth key.
func TestRun_InvalidRegistryConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
site:
  id: test-site

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "test-client"

gemini:
  api_key: "test-key"

registry:
  clients:
    - id: esp32_test
      name: Test Controller
      location: Test Room
      devices:
        - id: light1
          name: Test Light
          type: light

logging:
  level: error
  format: text
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatal(err)
	}

	originalEnv := os.Getenv("SOLCORE_CONFIG")
	defer os.Setenv("SOLCORE_CONFIG", originalEnv)
	os.Setenv("SOLCORE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when a client has no auth key")
	}
}

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("SOLCORE_CONFIG")
	defer os.Setenv("SOLCORE_CONFIG", originalEnv)

	os.Setenv("SOLCORE_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("SOLCORE_CONFIG", "/tmp/custom.yaml")
	if got := getConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}
