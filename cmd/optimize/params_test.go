package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/telemetry"
	"github.com/pthm-cable/habitat/traits"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestClampRoundsIntegers(t *testing.T) {
	pv := NewParamVector()
	v := pv.DefaultVector()
	v[2] = 7.6   // view_distance
	v[3] = -0.5  // forward_probability
	v[4] = 100.0 // weighting_iterations

	c := pv.Clamp(v)
	if c[2] != 8 {
		t.Errorf("view_distance = %v, want 8", c[2])
	}
	if c[3] != 0 {
		t.Errorf("forward_probability = %v, want 0", c[3])
	}
	if c[4] != 6 {
		t.Errorf("weighting_iterations = %v, want 6", c[4])
	}
}

func TestApplyExtractRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	want := pv.Clamp([]float64{2.0, 0.5, 6, 0.4, 2, 8, 4})
	pv.ApplyToConfig(cfg, want)
	got := pv.ExtractFromConfig(cfg)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestFitnessPrefersSurvival(t *testing.T) {
	if computeFitness(100, 0) >= computeFitness(50, 1) {
		t.Error("longer survival should beat quality")
	}
	if computeFitness(100, 1) >= computeFitness(100, 0) {
		t.Error("quality should break survival ties")
	}
}

func TestComputeQuality(t *testing.T) {
	animals := []traits.Species{0}
	window := func(count int, hunger float64) telemetry.WindowStats {
		return telemetry.WindowStats{Species: []telemetry.SpeciesStats{{
			Species:   "rabbit",
			Count:     count,
			HungerP50: hunger,
			ThirstP50: hunger,
			Eating:    count / 2,
		}}}
	}

	if q := computeQuality([]telemetry.WindowStats{window(10, 0.3)}, animals); q != 0 {
		t.Errorf("quality during warmup = %v, want 0", q)
	}

	var steady, starving []telemetry.WindowStats
	for i := 0; i < 10; i++ {
		steady = append(steady, window(10, 0.3))
		starving = append(starving, window(10, 0.95))
	}
	qs := computeQuality(steady, animals)
	qh := computeQuality(starving, animals)
	if qs <= qh {
		t.Errorf("steady quality %v <= starving quality %v", qs, qh)
	}
	// Ideal needs and a flat population leave only the foraging share short
	want := qualityWeightNeeds + qualityWeightStability + qualityWeightForaging*0.5
	if math.Abs(qs-want) > 1e-9 {
		t.Errorf("steady quality = %v, want %v", qs, want)
	}
}
