package engine

import "fmt"

// Config declares the ranges a world is built from. Initial cell and agent
// values are sampled uniformly from the inclusive [min, max] ranges;
// AgentHP is a fixed scalar, not a range. Seed fully determines the build.
type Config struct {
	Width  int
	Height int

	// Initial cell resource range. MaxResource doubles as the fixed
	// capacity of every cell.
	MinResource int
	MaxResource int

	// Initial regeneration rate range. MaxRegenRate doubles as the fixed
	// ceiling of every cell.
	MinRegenRate int
	MaxRegenRate int

	// Population size range.
	MinAgents int
	MaxAgents int

	// Per-agent consumption rate range.
	MinConsumptionRate int
	MaxConsumptionRate int

	AgentHP int

	Seed int64
}

// DefaultConfig returns the standard configuration used by the daemon and
// the batch runner when no tuning file overrides it.
func DefaultConfig() Config {
	return Config{
		Width:              24,
		Height:             16,
		MinResource:        0,
		MaxResource:        50,
		MinRegenRate:       0,
		MaxRegenRate:       5,
		MinAgents:          20,
		MaxAgents:          40,
		MinConsumptionRate: 1,
		MaxConsumptionRate: 5,
		AgentHP:            10,
		Seed:               1337,
	}
}

// Validate rejects configurations New cannot build a legal world from.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	if c.MinResource < 0 || c.MaxResource < c.MinResource {
		return fmt.Errorf("invalid resource range [%d, %d]", c.MinResource, c.MaxResource)
	}
	if c.MinRegenRate < 0 || c.MaxRegenRate < c.MinRegenRate {
		return fmt.Errorf("invalid regen rate range [%d, %d]", c.MinRegenRate, c.MaxRegenRate)
	}
	if c.MinAgents < 1 || c.MaxAgents < c.MinAgents {
		return fmt.Errorf("invalid agent count range [%d, %d]", c.MinAgents, c.MaxAgents)
	}
	if c.MinConsumptionRate < 1 || c.MaxConsumptionRate < c.MinConsumptionRate {
		return fmt.Errorf("invalid consumption rate range [%d, %d]", c.MinConsumptionRate, c.MaxConsumptionRate)
	}
	if c.AgentHP < 1 {
		return fmt.Errorf("agent hp must be positive, got %d", c.AgentHP)
	}
	return nil
}
