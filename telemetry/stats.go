package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SpeciesStats holds one species' aggregates for a time window.
// One CSV row is written per species per window.
type SpeciesStats struct {
	WindowEnd  int32   `csv:"window_end" json:"window_end"`
	SimTimeSec float64 `csv:"sim_time" json:"sim_time"`
	Species    string  `csv:"species" json:"species"`

	// Population at window end
	Count int `csv:"count" json:"count"`

	// Events during window
	DeathsHunger   int     `csv:"deaths_hunger" json:"deaths_hunger"`
	DeathsThirst   int     `csv:"deaths_thirst" json:"deaths_thirst"`
	DeathsEaten    int     `csv:"deaths_eaten" json:"deaths_eaten"`
	Decisions      int     `csv:"decisions" json:"decisions"`
	Moves          int     `csv:"moves" json:"moves"`
	FoodConsumed   float64 `csv:"food_consumed" json:"food_consumed"` // eaten by this species
	BiomassEaten   float64 `csv:"biomass_eaten" json:"biomass_eaten"` // of this species, by others
	WaterDrunk     float64 `csv:"water_drunk" json:"water_drunk"`
	MateEncounters int     `csv:"mate_encounters" json:"mate_encounters"`

	// Need distribution (sampled at window end)
	HungerMean float64 `csv:"hunger_mean" json:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std" json:"hunger_std"`
	HungerP10  float64 `csv:"hunger_p10" json:"hunger_p10"`
	HungerP50  float64 `csv:"hunger_p50" json:"hunger_p50"`
	HungerP90  float64 `csv:"hunger_p90" json:"hunger_p90"`
	ThirstMean float64 `csv:"thirst_mean" json:"thirst_mean"`
	ThirstStd  float64 `csv:"thirst_std" json:"thirst_std"`
	ThirstP10  float64 `csv:"thirst_p10" json:"thirst_p10"`
	ThirstP50  float64 `csv:"thirst_p50" json:"thirst_p50"`
	ThirstP90  float64 `csv:"thirst_p90" json:"thirst_p90"`

	// Action distribution (sampled at window end)
	Exploring        int `csv:"exploring" json:"exploring"`
	GoingToFood      int `csv:"going_to_food" json:"going_to_food"`
	GoingToWater     int `csv:"going_to_water" json:"going_to_water"`
	Eating           int `csv:"eating" json:"eating"`
	Drinking         int `csv:"drinking" json:"drinking"`
	SearchingForMate int `csv:"searching_for_mate" json:"searching_for_mate"`
}

// Deaths returns the total number of deaths in the window.
func (s SpeciesStats) Deaths() int {
	return s.DeathsHunger + s.DeathsThirst + s.DeathsEaten
}

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32          `json:"window_start"`
	WindowEndTick   int32          `json:"window_end"`
	SimTimeSec      float64        `json:"sim_time"`
	Species         []SpeciesStats `json:"species"`
}

// Count returns the population of the named species, or 0.
func (s WindowStats) Count(species string) int {
	for _, sp := range s.Species {
		if sp.Species == species {
			return sp.Count
		}
	}
	return 0
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeNeedStats calculates mean, std, and percentiles from need values.
// The standard deviation is the sample deviation; it is 0 for fewer than two values.
func ComputeNeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpeciesStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Int("deaths_hunger", s.DeathsHunger),
		slog.Int("deaths_thirst", s.DeathsThirst),
		slog.Int("deaths_eaten", s.DeathsEaten),
		slog.Int("moves", s.Moves),
		slog.Float64("food_consumed", s.FoodConsumed),
		slog.Float64("water_drunk", s.WaterDrunk),
		slog.Int("mate_encounters", s.MateEncounters),
		slog.Float64("hunger_mean", s.HungerMean),
		slog.Float64("hunger_p90", s.HungerP90),
		slog.Float64("thirst_mean", s.ThirstMean),
		slog.Float64("thirst_p90", s.ThirstP90),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
	}
	for _, sp := range s.Species {
		attrs = append(attrs, slog.Any(sp.Species, sp))
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	attrs := []any{
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
	}
	for _, sp := range s.Species {
		attrs = append(attrs, sp.Species, sp)
	}
	slog.Info("stats", attrs...)
}
