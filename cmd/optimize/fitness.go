package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/game"
	"github.com/pthm-cable/habitat/telemetry"
	"github.com/pthm-cable/habitat/traits"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	last           EvalSummary // most recent Evaluate call
}

// EvalSummary averages one evaluation over its seeds.
type EvalSummary struct {
	Fitness     float64
	Quality     float64
	SurvivalSec float64
	FinalCounts []float64 // mean population per species at run end
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// Last returns the summary of the most recent evaluation.
func (fe *FitnessEvaluator) Last() EvalSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Minimum viable population: if an animal species stays below this for
// extinctionGraceSec, it counts as functionally extinct.
const (
	minViablePop       = 2
	extinctionGraceSec = 30.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalSec float64                 // sim time before functional extinction (or the full run)
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	finalCounts []int
	hallOfFame  *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness     float64
	quality     float64
	survivalSec float64
	finalCounts []int
	hallOfFame  *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel; worlds share nothing but cfg, which they
	// only read.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(cfg, s)
			quality := computeQuality(result.windowStats, animalSpecies(cfg))
			results[idx] = seedResult{
				fitness:     computeFitness(result.survivalSec, quality),
				quality:     quality,
				survivalSec: result.survivalSec,
				finalCounts: result.finalCounts,
				hallOfFame:  result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality, totalSurvival float64
	finals := make([]float64, len(cfg.Species))
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalSurvival += r.survivalSec
		for s, c := range r.finalCounts {
			finals[s] += float64(c)
		}
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n
	for s := range finals {
		finals[s] /= n
	}

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.last = EvalSummary{
		Fitness:     avgFitness,
		Quality:     totalQuality / n,
		SurvivalSec: totalSurvival / n,
		FinalCounts: finals,
	}
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
// Runs until an animal species is functionally extinct or maxTicks,
// whichever comes first.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	w, err := game.New(cfg, game.Options{
		Seed:  seed,
		RunID: "optimize",
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return result
	}
	defer w.Close()

	animals := animalSpecies(cfg)
	dt := cfg.Sim.DT
	belowSec := make([]float64, len(cfg.Species))

	// Let the population settle before checking (skip first 5 sim-seconds)
	warmupTicks := int32(5.0 / dt)

	for w.TickCount() < fe.maxTicks {
		w.Step()

		tick := w.TickCount()
		if tick < warmupTicks {
			continue
		}

		counts := w.Counts()
		for _, s := range animals {
			if counts[s] == 0 {
				return fe.finish(result, w, dt)
			}
			if counts[s] < minViablePop {
				belowSec[s] += dt
			} else {
				belowSec[s] = 0
			}
			if belowSec[s] >= extinctionGraceSec {
				return fe.finish(result, w, dt)
			}
		}
	}

	// Survived the full run
	return fe.finish(result, w, dt)
}

func (fe *FitnessEvaluator) finish(r *runResult, w *game.World, dt float64) *runResult {
	r.survivalSec = float64(w.TickCount()) * dt
	r.finalCounts = w.Counts()
	r.hallOfFame = w.HallOfFame()
	return r
}

// copyConfig creates a copy of the base config with outputs disabled.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg, _ := config.Load("")

	cfg.World = fe.baseConfig.World
	cfg.Terrain = fe.baseConfig.Terrain
	cfg.Sim = fe.baseConfig.Sim
	cfg.Species = append([]config.SpeciesConfig(nil), fe.baseConfig.Species...)
	cfg.Telemetry = fe.baseConfig.Telemetry
	cfg.Telemetry.SnapshotOnBookmark = false

	if err := cfg.Finalize(); err != nil {
		panic(err)
	}
	return cfg
}

// animalSpecies returns the indices of mobile species.
func animalSpecies(cfg *config.Config) []traits.Species {
	var out []traits.Species
	for i, t := range cfg.Derived.Traits {
		if t.Has(traits.Mobile) {
			out = append(out, traits.Species(i))
		}
	}
	return out
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalSec × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func computeFitness(survivalSec, quality float64) float64 {
	return -(survivalSec * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightNeeds     = 0.50
	qualityWeightStability = 0.30
	qualityWeightForaging  = 0.20

	qualityWarmupWindows = 3 // skip first N windows (warmup)
	qualityMinPop        = 2 // exclude windows where a species < this
)

// computeQuality computes ecosystem quality in [0, 1] from window stats of
// the given animal species.
func computeQuality(windows []telemetry.WindowStats, animals []traits.Species) float64 {
	if len(windows) <= qualityWarmupWindows || len(animals) == 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var needsSum, forageSum float64
	var needsCount, forageCount int
	series := make([][]float64, len(animals))

	for _, w := range valid {
		for i, s := range animals {
			if int(s) >= len(w.Species) {
				continue
			}
			sp := w.Species[s]
			if sp.Count < qualityMinPop {
				continue
			}
			series[i] = append(series[i], float64(sp.Count))

			// 1. Needs health: median hunger and thirst well below lethal
			hungerH := math.Exp(-math.Pow((sp.HungerP50-0.3)/0.25, 2))
			thirstH := math.Exp(-math.Pow((sp.ThirstP50-0.3)/0.25, 2))
			needsSum += (hungerH + thirstH) / 2
			needsCount++

			// 2. Foraging share: fraction of agents eating or drinking
			forageSum += float64(sp.Eating+sp.Drinking) / float64(sp.Count)
			forageCount++
		}
	}

	if needsCount == 0 {
		return 0
	}
	needsScore := needsSum / float64(needsCount)

	// 3. Population stability (CV across valid windows)
	var cvSq float64
	var cvN int
	for _, s := range series {
		if len(s) >= 2 {
			c := cv(s)
			cvSq += c * c
			cvN++
		}
	}
	stabilityScore := 0.0
	if cvN > 0 {
		stabilityScore = math.Exp(-cvSq / float64(cvN))
	}

	forageScore := 0.0
	if forageCount > 0 {
		forageScore = forageSum / float64(forageCount)
	}

	quality := qualityWeightNeeds*needsScore +
		qualityWeightStability*stabilityScore +
		qualityWeightForaging*forageScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
