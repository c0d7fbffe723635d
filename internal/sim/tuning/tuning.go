// Package tuning loads the daemon's YAML configuration file. The file
// overlays the documented defaults, so a partial file only overrides what
// it names.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/engine"
)

type Tuning struct {
	World   WorldTuning   `yaml:"world"`
	Runtime RuntimeTuning `yaml:"runtime"`
}

// WorldTuning mirrors engine.Config in YAML form.
type WorldTuning struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	MinResource int `yaml:"min_resource"`
	MaxResource int `yaml:"max_resource"`

	MinRegenRate int `yaml:"min_regen_rate"`
	MaxRegenRate int `yaml:"max_regen_rate"`

	MinAgents int `yaml:"min_agents"`
	MaxAgents int `yaml:"max_agents"`

	MinConsumptionRate int `yaml:"min_consumption_rate"`
	MaxConsumptionRate int `yaml:"max_consumption_rate"`

	AgentHP int `yaml:"agent_hp"`

	Seed int64 `yaml:"seed"`
}

// RuntimeTuning configures the daemon around the engine.
type RuntimeTuning struct {
	TickRateHz int    `yaml:"tick_rate_hz"`
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`
}

// Default returns the tuning the daemon runs with when no file is given.
func Default() Tuning {
	ec := engine.DefaultConfig()
	return Tuning{
		World: WorldTuning{
			Width:              ec.Width,
			Height:             ec.Height,
			MinResource:        ec.MinResource,
			MaxResource:        ec.MaxResource,
			MinRegenRate:       ec.MinRegenRate,
			MaxRegenRate:       ec.MaxRegenRate,
			MinAgents:          ec.MinAgents,
			MaxAgents:          ec.MaxAgents,
			MinConsumptionRate: ec.MinConsumptionRate,
			MaxConsumptionRate: ec.MaxConsumptionRate,
			AgentHP:            ec.AgentHP,
			Seed:               ec.Seed,
		},
		Runtime: RuntimeTuning{
			TickRateHz: 5,
			ListenAddr: ":8080",
			DataDir:    "./data",
		},
	}
}

// Load reads path and overlays it onto the defaults. The resulting engine
// config is validated so a bad file fails at startup, not mid-run.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.EngineConfig().Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if t.Runtime.TickRateHz < 1 {
		return t, fmt.Errorf("tuning %s: tick_rate_hz must be positive, got %d", path, t.Runtime.TickRateHz)
	}
	return t, nil
}

// EngineConfig converts the world section into an engine.Config.
func (t Tuning) EngineConfig() engine.Config {
	w := t.World
	return engine.Config{
		Width:              w.Width,
		Height:             w.Height,
		MinResource:        w.MinResource,
		MaxResource:        w.MaxResource,
		MinRegenRate:       w.MinRegenRate,
		MaxRegenRate:       w.MaxRegenRate,
		MinAgents:          w.MinAgents,
		MaxAgents:          w.MaxAgents,
		MinConsumptionRate: w.MinConsumptionRate,
		MaxConsumptionRate: w.MaxConsumptionRate,
		AgentHP:            w.AgentHP,
		Seed:               w.Seed,
	}
}
