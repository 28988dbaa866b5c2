package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainconfig "github.com/voxmind/voxmind/domain/config"
)

const testYAML = `
name: voxmind-agent
version: "1"
agent:
  id: crew-1
  stack_depth: 1
planner:
  provider: ollama
  model: llama3.2
  batch_window: 50ms
cache:
  backend: memory
  ttl: 5m
logging:
  level: info
`

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoader_LoadFileYAML(t *testing.T) {
	path := writeConfigFile(t, "agent.yaml", testYAML)

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Name != "voxmind-agent" {
		t.Errorf("Name = %s, want voxmind-agent", cfg.Name)
	}
	if cfg.Planner.BatchWindow.Duration() != 50*time.Millisecond {
		t.Errorf("BatchWindow = %v, want 50ms", cfg.Planner.BatchWindow.Duration())
	}
}

func TestLoader_LoadFileJSON(t *testing.T) {
	content := `{
  "name": "voxmind-agent",
  "version": "1",
  "agent": {"id": "crew-1"},
  "cache": {"backend": "memory", "ttl": "5m"}
}`
	path := writeConfigFile(t, "agent.json", content)

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Cache.TTL.Duration() != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL.Duration())
	}
}

func TestLoader_FileNotFound(t *testing.T) {
	_, err := NewLoader().LoadFile("/nonexistent/agent.yaml")
	if !errors.Is(err, domainconfig.ErrConfigNotFound) {
		t.Errorf("LoadFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoader_UnsupportedExtension(t *testing.T) {
	path := writeConfigFile(t, "agent.toml", "name = 'x'")

	_, err := NewLoader().LoadFile(path)
	if !errors.Is(err, domainconfig.ErrUnsupportedFormat) {
		t.Errorf("LoadFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "agent.yaml", "name: [unclosed")

	_, err := NewLoader().LoadFile(path)
	if !errors.Is(err, domainconfig.ErrInvalidFormat) {
		t.Errorf("LoadFile() error = %v, want ErrInvalidFormat", err)
	}
}

func TestLoader_ValidationFailure(t *testing.T) {
	content := `
name: voxmind-agent
version: "1"
cache:
  backend: etcd
`
	path := writeConfigFile(t, "agent.yaml", content)

	_, err := NewLoader().LoadFile(path)
	if !errors.Is(err, domainconfig.ErrValidationFailed) {
		t.Errorf("LoadFile() error = %v, want ErrValidationFailed", err)
	}
}

func TestLoader_ValidationDisabled(t *testing.T) {
	content := `
name: voxmind-agent
version: "1"
cache:
  backend: etcd
`
	path := writeConfigFile(t, "agent.yaml", content)

	loader := NewLoaderWithOptions(WithValidation(false))
	if _, err := loader.LoadFile(path); err != nil {
		t.Errorf("LoadFile() error = %v, want validation skipped", err)
	}
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("VOX_TEST_AGENT_ID", "crew-42")

	content := `
name: voxmind-agent
version: "1"
agent:
  id: ${VOX_TEST_AGENT_ID}
`
	path := writeConfigFile(t, "agent.yaml", content)

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Agent.ID != "crew-42" {
		t.Errorf("Agent.ID = %s, want crew-42", cfg.Agent.ID)
	}
}

func TestLoader_LoadString(t *testing.T) {
	cfg, err := NewLoader().LoadString(testYAML, FormatYAML)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want info", cfg.Logging.Level)
	}
}
