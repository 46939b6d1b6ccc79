package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/idom/pkg/idom"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Serve.Port != DefaultPort {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, DefaultPort)
	}
	if cfg.Serve.Host != DefaultHost {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, DefaultHost)
	}
	if cfg.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultMetricsNamespace)
	}
	if cfg.Output.Color != ColorAuto {
		t.Errorf("Output.Color = %q, want %q", cfg.Output.Color, ColorAuto)
	}
	if cfg.KeyAttributeName() != DefaultKeyAttribute {
		t.Errorf("KeyAttributeName = %q, want %q", cfg.KeyAttributeName(), DefaultKeyAttribute)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "E302") {
		t.Errorf("Expected E302 for missing config, got: %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "debug": true,
  "keyAttribute": "data-key",
  "serve": {
    "port": 8080,
    "host": "0.0.0.0",
    "allowedOrigins": ["http://localhost:5173"],
    "sessionTTL": "5m"
  },
  "metrics": {
    "enabled": true
  },
  "output": {
    "pretty": true,
    "color": "never"
  }
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.KeyAttributeName() != "data-key" {
		t.Errorf("KeyAttributeName = %q, want %q", cfg.KeyAttributeName(), "data-key")
	}
	if cfg.Serve.Port != 8080 {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, 8080)
	}
	if cfg.Serve.Host != "0.0.0.0" {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, "0.0.0.0")
	}
	if len(cfg.Serve.AllowedOrigins) != 1 {
		t.Errorf("Serve.AllowedOrigins len = %d, want 1", len(cfg.Serve.AllowedOrigins))
	}
	if cfg.SessionTTLDuration() != 5*time.Minute {
		t.Errorf("SessionTTLDuration = %v, want 5m", cfg.SessionTTLDuration())
	}
	if cfg.Serve.MaxSessions != DefaultMaxSessions {
		t.Errorf("Serve.MaxSessions = %d, want default %d", cfg.Serve.MaxSessions, DefaultMaxSessions)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if !cfg.Output.Pretty || cfg.Output.Color != ColorNever {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestKeyAttributeSetting(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"unset", `{}`, DefaultKeyAttribute},
		{"named", `{"keyAttribute": "data-key"}`, "data-key"},
		{"empty disables", `{"keyAttribute": ""}`, ""},
		{"null disables", `{"keyAttribute": null}`, ""},
		{"null with spacing", `{"debug": true, "keyAttribute" :  null }`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(configPath, []byte(tt.json), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadFile(configPath)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if cfg.KeyAttributeName() != tt.want {
				t.Errorf("KeyAttributeName = %q, want %q", cfg.KeyAttributeName(), tt.want)
			}
		})
	}
}

func TestKeyAttributeNullSurvivesSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte(`{"keyAttribute": null}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if reloaded.KeyAttributeName() != "" {
		t.Errorf("KeyAttributeName after save = %q, want empty", reloaded.KeyAttributeName())
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	// Write invalid JSON
	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E301") {
		t.Errorf("Expected E301 error, got: %v", err)
	}
}

func TestLoadFile_InvalidValue(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(`{"output": {"color": "sometimes"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil || !strings.Contains(err.Error(), "E303") {
		t.Errorf("Expected E303 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Serve.Port = 9000
	cfg.Debug = true

	// Save should fail without configPath set
	err := cfg.Save()
	if err == nil {
		t.Error("Expected error when saving without path")
	}

	// SaveTo should work
	err = cfg.SaveTo(configPath)
	if err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	// Reload and verify
	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if loaded.Serve.Port != 9000 {
		t.Errorf("Serve.Port = %d, want %d", loaded.Serve.Port, 9000)
	}
	if !loaded.Debug {
		t.Error("Debug should survive a round trip")
	}

	// Now Save should work
	loaded.Serve.Port = 9001
	err = loaded.Save()
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Serve.Port != 9001 {
		t.Errorf("Serve.Port = %d, want %d", reloaded.Serve.Port, 9001)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.Serve.Port = -1 }},
		{"port too large", func(c *Config) { c.Serve.Port = 70000 }},
		{"negative max sessions", func(c *Config) { c.Serve.MaxSessions = -1 }},
		{"bad ttl", func(c *Config) { c.Serve.SessionTTL = "soon" }},
		{"zero ttl", func(c *Config) { c.Serve.SessionTTL = "0s" }},
		{"bad color", func(c *Config) { c.Output.Color = "purple" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), "E303") {
				t.Errorf("Validate = %v, want E303", err)
			}
		})
	}
}

func TestServeAddress(t *testing.T) {
	cfg := New()
	cfg.Serve.Port = 8080
	cfg.Serve.Host = "0.0.0.0"

	if addr := cfg.ServeAddress(); addr != "0.0.0.0:8080" {
		t.Errorf("ServeAddress = %q, want %q", addr, "0.0.0.0:8080")
	}
}

func TestApply(t *testing.T) {
	prevDebug, prevKey := idom.Debug(), idom.KeyAttributeName()
	t.Cleanup(func() {
		idom.SetDebug(prevDebug)
		idom.SetKeyAttributeName(prevKey)
	})

	cfg := New()
	cfg.Debug = true
	name := "data-id"
	cfg.KeyAttribute = &name
	cfg.Apply()

	if !idom.Debug() {
		t.Error("Apply should enable debug mode")
	}
	if idom.KeyAttributeName() != "data-id" {
		t.Errorf("KeyAttributeName = %q, want data-id", idom.KeyAttributeName())
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := FindProjectRoot(nested); err == nil {
		t.Error("Expected error without idom.json")
	}

	if err := New().SaveTo(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	want, _ := filepath.Abs(tmpDir)
	if root != want {
		t.Errorf("FindProjectRoot = %q, want %q", root, want)
	}
	if !Exists(tmpDir) || Exists(nested) {
		t.Error("Exists reports the wrong directories")
	}
}
