// Command optimize searches behavior parameters with CMA-ES for the settings
// that keep every animal species alive the longest.
//
// Usage: go run ./cmd/optimize -output runs/tune -seeds 4 -max-evals 120
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/habitat/config"
)

type options struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config file, YAML or TOML (empty = use defaults)")
	flag.IntVar(&opts.maxTicks, "max-ticks", 60000, "Maximum simulation duration in ticks per run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Worlds per evaluation, run in parallel")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	// Worlds log at info; keep evaluations quiet
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(opts); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if opts.seeds <= 0 {
		return fmt.Errorf("-seeds must be positive, got %d", opts.seeds)
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()
	species := baseCfg.SpeciesNames()

	params := NewParamVector()
	evalSeeds := make([]int64, opts.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = baseCfg.World.Seed + int64(i)*1000
	}
	evaluator := NewFitnessEvaluator(params, int32(opts.maxTicks), evalSeeds, baseCfg)

	log, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params, species)
	if err != nil {
		return err
	}
	defer log.close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}

	paths := make([]string, len(params.Specs))
	for i, spec := range params.Specs {
		paths[i] = spec.Path
	}
	fmt.Printf("tuning %s\n", strings.Join(paths, ", "))
	fmt.Printf("population=%d max_evals=%d seeds=%v max_ticks=%d (%.0fs sim time)\n",
		popSize, opts.maxEvals, evalSeeds, opts.maxTicks, float64(opts.maxTicks)*baseCfg.Sim.DT)

	var (
		evals      int
		best       = EvalSummary{Fitness: 1e9}
		bestParams []float64
		start      = time.Now()
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evals++

			last := evaluator.Last()
			if fitness < best.Fitness {
				best = last
				bestParams = raw
			}
			if err := log.write(evals, last, raw); err != nil {
				slog.Warn("optimize_log_write_failed", "error", err)
			}

			elapsed := time.Since(start)
			eta := time.Duration(opts.maxEvals-evals) * (elapsed / time.Duration(evals))
			fmt.Printf("eval %d/%d survived=%.0fs quality=%.2f final=[%s] best=%.0fs | %s elapsed, eta %s\n",
				evals, opts.maxEvals, last.SurvivalSec, last.Quality,
				formatCounts(species, last.FinalCounts), best.SurvivalSec,
				formatDuration(elapsed), formatDuration(eta))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	result, err := optimize.Minimize(problem, params.Normalize(params.ExtractFromConfig(baseCfg)), settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\n%d evaluations in %s; best run survived %.0fs on average (quality %.2f, final [%s])\n",
		evals, formatDuration(time.Since(start)), best.SurvivalSec, best.Quality,
		formatCounts(species, best.FinalCounts))
	for i, spec := range params.Specs {
		fmt.Printf("  %-34s %.4f\n", spec.Path, bestParams[i])
	}

	return writeResults(opts, params, bestParams, evaluator)
}

// writeResults saves the tuned config and the best run's hall of fame.
func writeResults(opts options, params *ParamVector, bestParams []float64, evaluator *FitnessEvaluator) error {
	bestCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nbest config: %s\n", configPath)

	hof := evaluator.BestHallOfFame()
	if hof == nil {
		return nil
	}
	data, err := json.MarshalIndent(hof, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	hofPath := filepath.Join(opts.outputDir, "hall_of_fame.json")
	if err := os.WriteFile(hofPath, data, 0644); err != nil {
		return fmt.Errorf("writing hall of fame: %w", err)
	}
	fmt.Printf("hall of fame: %s\n", hofPath)
	return nil
}

// evalLog records one CSV row per evaluation: the seed-averaged outcome,
// the mean final population per species, then the parameter values used.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector, species []string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	header := []string{"eval", "fitness", "survival_sec", "quality"}
	for _, name := range species {
		header = append(header, "final_"+name)
	}
	for _, spec := range params.Specs {
		header = append(header, spec.Path)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *evalLog) write(eval int, s EvalSummary, values []float64) error {
	row := []string{
		strconv.Itoa(eval),
		strconv.FormatFloat(s.Fitness, 'f', 3, 64),
		strconv.FormatFloat(s.SurvivalSec, 'f', 1, 64),
		strconv.FormatFloat(s.Quality, 'f', 4, 64),
	}
	for _, c := range s.FinalCounts {
		row = append(row, strconv.FormatFloat(c, 'f', 2, 64))
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) close() error {
	l.w.Flush()
	return l.f.Close()
}

// formatCounts renders counts as "plant=80.0 rabbit=12.3".
func formatCounts(species []string, counts []float64) string {
	parts := make([]string, 0, len(counts))
	for i, c := range counts {
		if i < len(species) {
			parts = append(parts, fmt.Sprintf("%s=%.1f", species[i], c))
		}
	}
	return strings.Join(parts, " ")
}

// formatDuration formats a duration as 1h02m03s, or 2m03s when under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
