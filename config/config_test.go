package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/habitat/traits"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.World.RegionSize != 10 {
		t.Errorf("RegionSize = %d, want 10", cfg.World.RegionSize)
	}
	if cfg.Sim.MaxViewDistance != 10 {
		t.Errorf("MaxViewDistance = %d, want 10", cfg.Sim.MaxViewDistance)
	}
	if cfg.Sim.ForwardProbability != 0.2 || cfg.Sim.WeightingIterations != 3 {
		t.Errorf("weighted walk defaults = (%v, %d), want (0.2, 3)",
			cfg.Sim.ForwardProbability, cfg.Sim.WeightingIterations)
	}
	if cfg.Sim.CriticalPercent != 0.7 {
		t.Errorf("CriticalPercent = %v, want 0.7", cfg.Sim.CriticalPercent)
	}

	plant, ok := cfg.Derived.SpeciesIndex["plant"]
	if !ok {
		t.Fatal("plant species missing")
	}
	rabbit := cfg.Derived.SpeciesIndex["rabbit"]
	fox := cfg.Derived.SpeciesIndex["fox"]

	if !cfg.Derived.Diets[rabbit].Eats(plant) {
		t.Error("rabbit should eat plant")
	}
	if !cfg.Derived.Diets[fox].Eats(rabbit) || cfg.Derived.Diets[fox].Eats(plant) {
		t.Error("fox should eat rabbit only")
	}
	if cfg.Derived.Traits[plant] != traits.Plant {
		t.Errorf("plant traits = %v, want %v", cfg.Derived.Traits[plant], traits.Plant)
	}
	if !cfg.Derived.Traits[rabbit].Has(traits.Consumable) || !cfg.Derived.Traits[rabbit].Has(traits.Mobile) {
		t.Errorf("rabbit traits = %v", cfg.Derived.Traits[rabbit])
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "yaml",
			file:    "overlay.yaml",
			content: "world:\n  size: 20\nsim:\n  move_speed: 3\n",
		},
		{
			name:    "toml",
			file:    "overlay.toml",
			content: "[world]\nsize = 20\n\n[sim]\nmove_speed = 3.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if cfg.World.Size != 20 {
				t.Errorf("Size = %d, want 20", cfg.World.Size)
			}
			if cfg.Sim.MoveSpeed != 3 {
				t.Errorf("MoveSpeed = %v, want 3", cfg.Sim.MoveSpeed)
			}
			// Untouched fields keep defaults
			if cfg.World.RegionSize != 10 {
				t.Errorf("RegionSize = %d, want default 10", cfg.World.RegionSize)
			}
			if len(cfg.Species) != 3 {
				t.Errorf("len(Species) = %d, want 3", len(cfg.Species))
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero size", func(c *Config) { c.World.Size = 0 }},
		{"zero region", func(c *Config) { c.World.RegionSize = 0 }},
		{"bad kind", func(c *Config) { c.Species[0].Kind = "fungus" }},
		{"unknown diet", func(c *Config) { c.Species[1].Diet = []string{"grass"} }},
		{"duplicate", func(c *Config) { c.Species[1].Name = c.Species[0].Name }},
		{"self diet", func(c *Config) { c.Species[1].Diet = []string{"rabbit"} }},
		{"inedible prey", func(c *Config) { c.Species[1].Consumable = false }},
		{"zero dt", func(c *Config) { c.Sim.DT = 0 }},
		{"zero eat duration", func(c *Config) { c.Sim.EatDuration = 0 }},
		{"negative drink duration", func(c *Config) { c.Sim.DrinkDuration = -1 }},
		{"zero hunger lifetime", func(c *Config) { c.Sim.TimeToDeathByHunger = 0 }},
		{"zero thirst lifetime", func(c *Config) { c.Sim.TimeToDeathByThirst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Defaults()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Finalize(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegionsPerAxis(t *testing.T) {
	cfg := &Config{World: WorldConfig{Size: 64, RegionSize: 10}}
	if got := cfg.RegionsPerAxis(); got != 7 {
		t.Errorf("RegionsPerAxis = %d, want 7", got)
	}
	cfg.World.Size = 20
	if got := cfg.RegionsPerAxis(); got != 2 {
		t.Errorf("RegionsPerAxis = %d, want 2", got)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := loadDefaults(t)
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if back.World != cfg.World || back.Sim != cfg.Sim {
		t.Error("snapshot does not reproduce world/sim settings")
	}
}

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}
