package engine

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative height", func(c *Config) { c.Height = -1 }},
		{"negative min resource", func(c *Config) { c.MinResource = -1 }},
		{"inverted resource range", func(c *Config) { c.MinResource = 10; c.MaxResource = 5 }},
		{"inverted regen range", func(c *Config) { c.MinRegenRate = 4; c.MaxRegenRate = 2 }},
		{"zero min agents", func(c *Config) { c.MinAgents = 0 }},
		{"inverted agent range", func(c *Config) { c.MinAgents = 10; c.MaxAgents = 5 }},
		{"zero consumption", func(c *Config) { c.MinConsumptionRate = 0 }},
		{"inverted consumption range", func(c *Config) { c.MinConsumptionRate = 6; c.MaxConsumptionRate = 3 }},
		{"zero hp", func(c *Config) { c.AgentHP = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
