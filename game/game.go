// Package game wires the grid, spatial indices, sensing and behavior
// systems into a tick-driven simulation world.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/systems"
	"github.com/pthm-cable/habitat/telemetry"
	"github.com/pthm-cable/habitat/traits"
)

// RunSink receives per-window, per-death and final population records,
// e.g. a database.
type RunSink interface {
	WriteWindow(runID string, stats telemetry.WindowStats) error
	WriteDeaths(runID string, events []telemetry.DeathEvent) error
	WriteAgents(runID string, tick int32, agents []telemetry.EntityState) error
}

// Options holds optional world settings.
type Options struct {
	Seed      int64  // 0 = config world.seed
	RunID     string // empty = random UUID
	LogStats  bool   // log window stats via slog
	OutputDir string // CSV and JSON output; empty disables
	Sink      RunSink

	// SkipSpawn leaves the world empty; callers populate it with
	// SpawnPlant and SpawnAnimal.
	SkipSpawn bool

	// StatsCallback is invoked after each stats window flush.
	StatsCallback func(telemetry.WindowStats)
}

// World holds the complete simulation state. It is not safe for
// concurrent use: only the goroutine calling Tick may touch it.
type World struct {
	cfg   *config.Config
	runID string
	seed  int64

	world   *ecs.World
	grid    *systems.Grid
	terrain *systems.TerrainData // nil for caller-supplied grids

	vis      *systems.Visibility
	indices  []*systems.SpatialIndex // by species
	sensing  *systems.Sensing
	planner  *systems.MovementPlanner
	behavior *systems.BehaviorSystem

	spawnRng *rand.Rand

	// Entity mappers
	plantMapper  *ecs.Map4[components.Position, components.Slot, components.Organism, components.Food]
	animalMapper *ecs.Map7[
		components.Position,
		components.Slot,
		components.Organism,
		components.Needs,
		components.Behavior,
		components.Motion,
		components.Genes,
	]
	preyMapper *ecs.Map8[
		components.Position,
		components.Slot,
		components.Organism,
		components.Needs,
		components.Behavior,
		components.Motion,
		components.Genes,
		components.Food,
	]
	orgFilter ecs.Filter2[components.Position, components.Organism]

	// Individual component mappers for lookups
	posMap    *ecs.Map[components.Position]
	orgMap    *ecs.Map[components.Organism]
	needsMap  *ecs.Map[components.Needs]
	behMap    *ecs.Map[components.Behavior]
	motionMap *ecs.Map[components.Motion]
	foodMap   *ecs.Map[components.Food]

	byID     map[uint32]ecs.Entity
	foodDiet traits.Diet // every consumable species

	// State
	tick      int32
	nextID    uint32
	finalized bool

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	hallOfFame    *telemetry.HallOfFame
	outputManager *telemetry.OutputManager
	sink          RunSink
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// New creates a world on generated terrain.
func New(cfg *config.Config, opts Options) (*World, error) {
	seed := resolveSeed(cfg, opts)
	terrain := systems.GenerateTerrain(cfg.Terrain, cfg.World.Size, seed)
	w, err := newWorld(cfg, terrain.Grid, opts)
	if err != nil {
		return nil, err
	}
	w.terrain = terrain
	return w, nil
}

// NewWithGrid creates a world on a caller-supplied grid. cfg.World.Size is
// ignored in favour of the grid's size.
func NewWithGrid(cfg *config.Config, grid *systems.Grid, opts Options) (*World, error) {
	return newWorld(cfg, grid, opts)
}

func resolveSeed(cfg *config.Config, opts Options) int64 {
	if opts.Seed != 0 {
		return opts.Seed
	}
	return cfg.World.Seed
}

func newWorld(cfg *config.Config, grid *systems.Grid, opts Options) (*World, error) {
	if len(cfg.Derived.Traits) != len(cfg.Species) {
		return nil, fmt.Errorf("config not finalized")
	}
	seed := resolveSeed(cfg, opts)
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	if cfg.Terrain.TileSize > 0 {
		grid.SetTileSize(float32(cfg.Terrain.TileSize))
	}

	world := ecs.NewWorld()
	vis := systems.NewVisibility(grid)
	indices := make([]*systems.SpatialIndex, len(cfg.Species))
	for i := range indices {
		indices[i] = systems.NewSpatialIndex(world, grid, vis, cfg.World.RegionSize)
	}
	sensing := systems.NewSensing(world, grid, vis, indices, cfg.Sim.MaxViewDistance)
	planner := systems.NewMovementPlanner(grid, rand.New(rand.NewSource(seed+1)))

	names := cfg.SpeciesNames()
	w := &World{
		cfg:      cfg,
		runID:    runID,
		seed:     seed,
		world:    world,
		grid:     grid,
		vis:      vis,
		indices:  indices,
		sensing:  sensing,
		planner:  planner,
		behavior: systems.NewBehaviorSystem(world, cfg.Sim, vis, sensing, planner, indices),
		spawnRng: rand.New(rand.NewSource(seed)),

		plantMapper:  ecs.NewMap4[components.Position, components.Slot, components.Organism, components.Food](world),
		animalMapper: ecs.NewMap7[
			components.Position,
			components.Slot,
			components.Organism,
			components.Needs,
			components.Behavior,
			components.Motion,
			components.Genes,
		](world),
		preyMapper: ecs.NewMap8[
			components.Position,
			components.Slot,
			components.Organism,
			components.Needs,
			components.Behavior,
			components.Motion,
			components.Genes,
			components.Food,
		](world),
		orgFilter: *ecs.NewFilter2[components.Position, components.Organism](world),
		posMap:    ecs.NewMap[components.Position](world),
		orgMap:    ecs.NewMap[components.Organism](world),
		needsMap:  ecs.NewMap[components.Needs](world),
		behMap:    ecs.NewMap[components.Behavior](world),
		motionMap: ecs.NewMap[components.Motion](world),
		foodMap:   ecs.NewMap[components.Food](world),
		byID:      make(map[uint32]ecs.Entity),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Sim.DT, names),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		hallOfFame:    telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize, names),
		sink:          opts.Sink,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	w.behavior.SetRecorder(w.collector)

	for i, t := range cfg.Derived.Traits {
		if t.Has(traits.Consumable) {
			w.foodDiet |= traits.DietOf(traits.Species(i))
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	w.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	if !opts.SkipSpawn {
		w.spawnInitialPopulation()
	}

	slog.Info("world_created",
		"run_id", runID,
		"seed", seed,
		"size", grid.Size(),
		"land_tiles", len(grid.LandCoords()),
		"species", len(cfg.Species),
	)
	return w, nil
}

// Config returns the world's configuration.
func (w *World) Config() *config.Config {
	return w.cfg
}

// RunID returns the run identifier.
func (w *World) RunID() string {
	return w.runID
}

// Seed returns the seed used for terrain and spawning.
func (w *World) Seed() int64 {
	return w.seed
}

// Grid returns the world's grid.
func (w *World) Grid() *systems.Grid {
	return w.grid
}

// Terrain returns the generated terrain, or nil for caller-supplied grids.
func (w *World) Terrain() *systems.TerrainData {
	return w.terrain
}

// TickCount returns the number of completed ticks.
func (w *World) TickCount() int32 {
	return w.tick
}

// Perf returns the rolling performance stats.
func (w *World) Perf() telemetry.PerfStats {
	return w.perfCollector.Stats()
}

// Close writes end-of-run output and closes output files. Later calls
// are no-ops.
func (w *World) Close() error {
	if w.finalized {
		return nil
	}
	w.finalizeRun()
	return w.outputManager.Close()
}
