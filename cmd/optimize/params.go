package main

import (
	"math"

	"github.com/pthm-cable/habitat/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Decision loop
			{Name: "decision_interval", Path: "sim.time_between_action_choices", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "critical_percent", Path: "sim.critical_percent", Min: 0.3, Max: 0.95, Default: 0.7},
			{Name: "view_distance", Path: "sim.max_view_distance", Min: 3, Max: 16, Default: 10, Integer: true},
			// Exploration
			{Name: "forward_probability", Path: "sim.forward_probability", Min: 0.0, Max: 1.0, Default: 0.2},
			{Name: "weighting_iterations", Path: "sim.weighting_iterations", Min: 1, Max: 6, Default: 3, Integer: true},
			// Interaction
			{Name: "eat_duration", Path: "sim.eat_duration", Min: 2, Max: 30, Default: 10},
			{Name: "drink_duration", Path: "sim.drink_duration", Min: 2, Max: 20, Default: 6},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are
// whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Min(math.Max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Sim.TimeBetweenActionChoices = c[0]
	cfg.Sim.CriticalPercent = c[1]
	cfg.Sim.MaxViewDistance = int(c[2])
	cfg.Sim.ForwardProbability = c[3]
	cfg.Sim.WeightingIterations = int(c[4])
	cfg.Sim.EatDuration = c[5]
	cfg.Sim.DrinkDuration = c[6]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Sim.TimeBetweenActionChoices,
		cfg.Sim.CriticalPercent,
		float64(cfg.Sim.MaxViewDistance),
		cfg.Sim.ForwardProbability,
		float64(cfg.Sim.WeightingIterations),
		cfg.Sim.EatDuration,
		cfg.Sim.DrinkDuration,
	}
}
