package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
world:
  width: 8
  height: 4
  min_resource: 0
  max_resource: 20
  min_regen_rate: 0
  max_regen_rate: 3
  min_agents: 2
  max_agents: 6
  min_consumption_rate: 1
  max_consumption_rate: 4
  agent_hp: 7
  seed: 42
runtime:
  tick_rate_hz: 10
`)
	tn, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := tn.EngineConfig()
	if cfg.Width != 8 || cfg.Height != 4 || cfg.AgentHP != 7 || cfg.Seed != 42 {
		t.Fatalf("engine config not taken from file: %+v", cfg)
	}
	if tn.Runtime.TickRateHz != 10 {
		t.Fatalf("tick rate = %d, want 10", tn.Runtime.TickRateHz)
	}
	// Unset values keep their defaults.
	if tn.Runtime.ListenAddr != Default().Runtime.ListenAddr {
		t.Fatalf("listen addr = %q, want default", tn.Runtime.ListenAddr)
	}
}

func TestLoadRejectsInvalidWorld(t *testing.T) {
	path := writeFile(t, `
world:
  width: 0
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for zero width")
	}
}

func TestLoadRejectsBadYAMLAndMissingFile(t *testing.T) {
	path := writeFile(t, "world: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultEngineConfigValidates(t *testing.T) {
	if err := Default().EngineConfig().Validate(); err != nil {
		t.Fatalf("default tuning must produce a valid engine config: %v", err)
	}
}
