package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Source.Mode != "local" {
		t.Errorf("got mode %q, want 'local'", cfg.Source.Mode)
	}
	if cfg.Reload.Debounce.Std() != 200*time.Millisecond {
		t.Errorf("got reload debounce %v, want 200ms", cfg.Reload.Debounce.Std())
	}
	if cfg.Search.Debounce.Std() != 300*time.Millisecond {
		t.Errorf("got search debounce %v, want 300ms", cfg.Search.Debounce.Std())
	}
	if !cfg.UI.ShowFooter {
		t.Error("footer should be on by default")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.json")
	if err != nil {
		t.Errorf("should not error on missing file: %v", err)
	}
	if cfg == nil {
		t.Error("should return default config")
	}
}

func TestLoadFrom_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := []byte(`{
		"source": {
			"mode": "gateway",
			"gatewayUrl": "http://localhost:8080"
		},
		"reload": {
			"debounce": "500ms"
		},
		"ui": {
			"showFooter": false
		}
	}`)

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Source.Mode != "gateway" {
		t.Errorf("got mode %q", cfg.Source.Mode)
	}
	if cfg.Reload.Debounce.Std() != 500*time.Millisecond {
		t.Errorf("got debounce %v, want 500ms", cfg.Reload.Debounce.Std())
	}
	if cfg.UI.ShowFooter {
		t.Error("showFooter should be false")
	}
	// Default values should still be present.
	if cfg.Search.Debounce.Std() != 300*time.Millisecond {
		t.Errorf("search debounce default lost: %v", cfg.Search.Debounce.Std())
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{invalid`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("should error on invalid JSON")
	}
}

func TestLoadFrom_GatewayWithoutURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{"source":{"mode":"gateway"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("gateway mode without URL should fail validation")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input  string
		expect string
	}{
		{"~/.agentview", filepath.Join(home, ".agentview")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tc := range tests {
		got := expandPath(tc.input)
		if got != tc.expect {
			t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.expect)
		}
	}
}

func TestValidateCorrectsDurations(t *testing.T) {
	cfg := Default()
	cfg.Reload.Debounce = -1

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if cfg.Reload.Debounce.Std() != 200*time.Millisecond {
		t.Errorf("got %v, want 200ms after validation", cfg.Reload.Debounce.Std())
	}
}
