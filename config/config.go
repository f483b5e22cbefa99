// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/habitat/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world" toml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain" toml:"terrain"`
	Sim       SimConfig       `yaml:"sim" toml:"sim"`
	Species   []SpeciesConfig `yaml:"species" toml:"species"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Debug     DebugConfig     `yaml:"debug" toml:"debug"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// WorldConfig holds grid dimensions and seeding.
type WorldConfig struct {
	Size       int   `yaml:"size" toml:"size"`               // Grid is Size x Size tiles
	RegionSize int   `yaml:"region_size" toml:"region_size"` // Spatial region edge in tiles
	Seed       int64 `yaml:"seed" toml:"seed"`               // Spawn and terrain seed
}

// TerrainConfig holds heightmap generation parameters.
type TerrainConfig struct {
	Layers          int     `yaml:"layers" toml:"layers"`
	Persistence     float64 `yaml:"persistence" toml:"persistence"`
	Lacunarity      float64 `yaml:"lacunarity" toml:"lacunarity"`
	Scale           float64 `yaml:"scale" toml:"scale"`
	WaterHeight     float64 `yaml:"water_height" toml:"water_height"`         // Heights at or below are water
	TreeProbability float64 `yaml:"tree_probability" toml:"tree_probability"` // Chance a land tile holds a tree
	TileSize        float64 `yaml:"tile_size" toml:"tile_size"`               // World units per tile
}

// SimConfig holds agent behaviour parameters.
type SimConfig struct {
	DT                       float64 `yaml:"dt" toml:"dt"`
	MaxViewDistance          int     `yaml:"max_view_distance" toml:"max_view_distance"`
	TimeBetweenActionChoices float64 `yaml:"time_between_action_choices" toml:"time_between_action_choices"`
	MoveSpeed                float64 `yaml:"move_speed" toml:"move_speed"` // Tiles per second (orthogonal)
	TimeToDeathByHunger      float64 `yaml:"time_to_death_by_hunger" toml:"time_to_death_by_hunger"`
	TimeToDeathByThirst      float64 `yaml:"time_to_death_by_thirst" toml:"time_to_death_by_thirst"`
	EatDuration              float64 `yaml:"eat_duration" toml:"eat_duration"`
	DrinkDuration            float64 `yaml:"drink_duration" toml:"drink_duration"`
	CriticalPercent          float64 `yaml:"critical_percent" toml:"critical_percent"` // Thirst that interrupts eating
	ForwardProbability       float64 `yaml:"forward_probability" toml:"forward_probability"`
	WeightingIterations      int     `yaml:"weighting_iterations" toml:"weighting_iterations"`
	MateThreshold            float64 `yaml:"mate_threshold" toml:"mate_threshold"` // 0 disables mate seeking
	MateCooldown             float64 `yaml:"mate_cooldown" toml:"mate_cooldown"`
}

// SpeciesConfig defines one entry of the ordered spawn list.
type SpeciesConfig struct {
	Name       string   `yaml:"name" toml:"name"`
	Kind       string   `yaml:"kind" toml:"kind"` // "plant" or "animal"
	Count      int      `yaml:"count" toml:"count"`
	Diet       []string `yaml:"diet" toml:"diet"`             // Names of species eaten
	Quantity   float64  `yaml:"quantity" toml:"quantity"`     // Food quantity if consumable
	Consumable bool     `yaml:"consumable" toml:"consumable"` // Animals only; plants always are
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window" toml:"stats_window"` // Seconds of sim time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window" toml:"perf_collector_window"`
	BookmarkHistory     int     `yaml:"bookmark_history" toml:"bookmark_history"`
	HallOfFameSize      int     `yaml:"hall_of_fame_size" toml:"hall_of_fame_size"`
	SnapshotOnBookmark  bool    `yaml:"snapshot_on_bookmark" toml:"snapshot_on_bookmark"`
}

// StorageConfig holds SQLite persistence settings.
type StorageConfig struct {
	Path string `yaml:"path" toml:"path"` // Empty disables persistence
}

// DebugConfig holds debug API settings.
type DebugConfig struct {
	Addr string `yaml:"addr" toml:"addr"` // Empty disables the debug server
}

// Kind values for SpeciesConfig.
const (
	KindPlant  = "plant"
	KindAnimal = "animal"
)

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]traits.Species // name -> index
	Diets        []traits.Diet             // per species
	Traits       []traits.Trait            // per species base trait set
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded defaults without derived values.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Finalize validates the configuration and computes derived values.
// Call it after modifying a Config by hand.
func (c *Config) Finalize() error {
	if err := c.validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

func (c *Config) validate() error {
	if c.World.Size <= 0 {
		return fmt.Errorf("world.size must be positive, got %d", c.World.Size)
	}
	if c.World.RegionSize <= 0 {
		return fmt.Errorf("world.region_size must be positive, got %d", c.World.RegionSize)
	}
	positive := []struct {
		name string
		v    float64
	}{
		{"sim.dt", c.Sim.DT},
		{"sim.move_speed", c.Sim.MoveSpeed},
		{"sim.eat_duration", c.Sim.EatDuration},
		{"sim.drink_duration", c.Sim.DrinkDuration},
		{"sim.time_to_death_by_hunger", c.Sim.TimeToDeathByHunger},
		{"sim.time_to_death_by_thirst", c.Sim.TimeToDeathByThirst},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, p.v)
		}
	}
	if len(c.Species) > traits.MaxSpecies {
		return fmt.Errorf("at most %d species supported, got %d", traits.MaxSpecies, len(c.Species))
	}

	byName := make(map[string]SpeciesConfig, len(c.Species))
	for _, sp := range c.Species {
		if sp.Name == "" {
			return fmt.Errorf("species entry without name")
		}
		if _, dup := byName[sp.Name]; dup {
			return fmt.Errorf("duplicate species %q", sp.Name)
		}
		byName[sp.Name] = sp
		if sp.Kind != KindPlant && sp.Kind != KindAnimal {
			return fmt.Errorf("species %q: unknown kind %q", sp.Name, sp.Kind)
		}
		if sp.Count < 0 {
			return fmt.Errorf("species %q: negative count", sp.Name)
		}
	}
	for _, sp := range c.Species {
		for _, food := range sp.Diet {
			prey, ok := byName[food]
			switch {
			case !ok:
				return fmt.Errorf("species %q: diet names unknown species %q", sp.Name, food)
			case food == sp.Name:
				return fmt.Errorf("species %q: diet names itself", sp.Name)
			case prey.Kind == KindAnimal && !prey.Consumable:
				return fmt.Errorf("species %q: diet names %q, which is not consumable", sp.Name, food)
			}
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SpeciesIndex = make(map[string]traits.Species, len(c.Species))
	for i, sp := range c.Species {
		c.Derived.SpeciesIndex[sp.Name] = traits.Species(i)
	}

	c.Derived.Diets = make([]traits.Diet, len(c.Species))
	c.Derived.Traits = make([]traits.Trait, len(c.Species))
	for i, sp := range c.Species {
		var diet traits.Diet
		for _, food := range sp.Diet {
			diet |= traits.DietOf(c.Derived.SpeciesIndex[food])
		}
		c.Derived.Diets[i] = diet

		t := traits.Plant
		if sp.Kind == KindAnimal {
			t = traits.Animal
			if sp.Consumable {
				t = t.Add(traits.Consumable)
			}
		}
		c.Derived.Traits[i] = t
	}
}

// SpeciesNames returns species names in spawn order.
func (c *Config) SpeciesNames() []string {
	names := make([]string, len(c.Species))
	for i, sp := range c.Species {
		names[i] = sp.Name
	}
	return names
}

// RegionsPerAxis returns ceil(size / region_size).
func (c *Config) RegionsPerAxis() int {
	return (c.World.Size + c.World.RegionSize - 1) / c.World.RegionSize
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
