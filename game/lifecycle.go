package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/telemetry"
	"github.com/pthm-cable/habitat/traits"
)

// spawnInitialPopulation places every configured species on distinct
// shuffled walkable tiles, in spawn-list order. Spawning stops once every
// land tile is taken.
func (w *World) spawnInitialPopulation() {
	land := w.grid.LandCoords()
	if len(land) == 0 {
		slog.Warn("no walkable tiles, skipping spawn")
		return
	}
	perm := w.spawnRng.Perm(len(land))

	k := 0
	for i, sp := range w.cfg.Species {
		species := traits.Species(i)
		placed := 0
		for ; placed < sp.Count && k < len(land); placed++ {
			c := land[perm[k]]
			k++
			if sp.Kind == config.KindPlant {
				w.SpawnPlant(species, c, sp.Quantity)
			} else {
				w.SpawnAnimal(species, c, components.Needs{})
			}
		}
		if placed < sp.Count {
			slog.Warn("spawn_tiles_exhausted",
				"species", sp.Name,
				"placed", placed,
				"unplaced", sp.Count-placed,
				"land_tiles", len(land),
			)
		}
		slog.Info("population_spawned", "species", sp.Name, "count", placed)
	}
}

// SpawnPlant adds a stationary food source of the given species at c and
// returns its agent ID.
func (w *World) SpawnPlant(species traits.Species, c components.Coord, quantity float64) (uint32, error) {
	if err := w.checkSpawn(species, c); err != nil {
		return 0, err
	}
	org := w.newOrganism(species)
	e := w.plantMapper.NewEntity(
		&components.Position{Coord: c},
		&components.Slot{},
		&org,
		&components.Food{Remaining: quantity},
	)
	w.register(e, org, c)
	return org.ID, nil
}

// SpawnAnimal adds a mobile agent of the given species at c with the given
// starting needs and returns its agent ID. Consumable species also carry
// the configured food quantity.
func (w *World) SpawnAnimal(species traits.Species, c components.Coord, needs components.Needs) (uint32, error) {
	if err := w.checkSpawn(species, c); err != nil {
		return 0, err
	}
	org := w.newOrganism(species)
	genes := w.randomGenes()
	if genes.IsMale {
		org.Traits = org.Traits.Add(traits.Male)
	} else {
		org.Traits = org.Traits.Add(traits.Female)
	}

	pos := components.Position{Coord: c}
	beh := components.Behavior{LastTile: c, TargetCoord: components.InvalidCoord}

	var e ecs.Entity
	if org.Traits.Has(traits.Consumable) {
		e = w.preyMapper.NewEntity(
			&pos,
			&components.Slot{},
			&org,
			&needs,
			&beh,
			&components.Motion{},
			&genes,
			&components.Food{Remaining: w.cfg.Species[species].Quantity},
		)
	} else {
		e = w.animalMapper.NewEntity(
			&pos,
			&components.Slot{},
			&org,
			&needs,
			&beh,
			&components.Motion{},
			&genes,
		)
	}
	w.register(e, org, c)
	return org.ID, nil
}

func (w *World) checkSpawn(species traits.Species, c components.Coord) error {
	if int(species) >= len(w.cfg.Species) {
		return fmt.Errorf("unknown species %d", species)
	}
	if !w.grid.Walkable(c) {
		return fmt.Errorf("tile %v is not walkable", c)
	}
	return nil
}

func (w *World) newOrganism(species traits.Species) components.Organism {
	w.nextID++
	return components.Organism{
		ID:       w.nextID,
		Species:  species,
		Traits:   w.cfg.Derived.Traits[species],
		Diet:     w.cfg.Derived.Diets[species],
		BornTick: w.tick,
	}
}

func (w *World) randomGenes() components.Genes {
	g := components.Genes{IsMale: w.spawnRng.Intn(2) == 0}
	for i := range g.Values {
		g.Values[i] = w.spawnRng.Float32()
	}
	return g
}

func (w *World) register(e ecs.Entity, org components.Organism, c components.Coord) {
	w.indices[org.Species].Add(e, c)
	w.byID[org.ID] = e
	w.collector.Lifetimes().Register(org.ID, org.Species, w.tick)
}

// cleanupDead removes entities killed during the tick from the ECS world
// and records their deaths.
func (w *World) cleanupDead() {
	var dead []ecs.Entity
	query := w.orgFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if org.Dead {
			dead = append(dead, query.Entity())
		}
	}
	if len(dead) == 0 {
		return
	}

	lifetimes := w.collector.Lifetimes()
	dt := w.cfg.Sim.DT
	events := make([]telemetry.DeathEvent, 0, len(dead))
	for _, e := range dead {
		org := w.orgMap.Get(e)
		at := w.posMap.Get(e).Coord

		lifetimes.UpdateSurvivalTime(org.ID, w.tick, dt)
		ev := telemetry.NewDeathEvent(w.tick, org, w.collector.SpeciesName(org.Species), at, lifetimes.Remove(org.ID))
		events = append(events, ev)
		if org.Traits.Has(traits.Mobile) {
			w.hallOfFame.Consider(org.Species, ev, false)
		}
		slog.Debug("death", "event", ev)

		delete(w.byID, org.ID)
		w.world.RemoveEntity(e)
	}

	if err := w.outputManager.WriteDeaths(events); err != nil {
		slog.Error("failed to write deaths", "error", err)
	}
	if w.sink != nil {
		if err := w.sink.WriteDeaths(w.runID, events); err != nil {
			slog.Error("failed to store deaths", "error", err)
		}
	}
}
