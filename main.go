package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/debugapi"
	"github.com/pthm-cable/habitat/game"
	"github.com/pthm-cable/habitat/storage"
	"github.com/pthm-cable/habitat/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config file, YAML or TOML (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and config snapshot")
	dbPath := flag.String("db", "", "SQLite database for run storage (empty = use config)")
	debugAddr := flag.String("debug-addr", "", "Debug API listen address, e.g. :8080 (empty = use config)")
	seed := flag.Int64("seed", 0, "Spawn and terrain seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	game.SetLogWriter(os.Stderr)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *debugAddr != "" {
		cfg.Debug.Addr = *debugAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *seed, *outputDir, *logStats, *maxTicks); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed int64, outputDir string, logStats bool, maxTicks int) error {
	runID := uuid.NewString()
	if seed == 0 {
		seed = cfg.World.Seed
	}

	var db *storage.DB
	if cfg.Storage.Path != "" {
		var err error
		db, err = storage.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.CreateRun(runID, seed, cfg); err != nil {
			return err
		}
	}

	var debug *debugapi.Server
	if cfg.Debug.Addr != "" {
		debug = debugapi.NewServer(cfg.Debug.Addr)
		go func() {
			if err := debug.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("debug api stopped", "error", err)
			}
		}()
	}

	opts := game.Options{
		Seed:      seed,
		RunID:     runID,
		LogStats:  logStats,
		OutputDir: outputDir,
	}
	if db != nil {
		opts.Sink = db
	}

	var w *game.World
	opts.StatsCallback = func(stats telemetry.WindowStats) {
		if debug != nil {
			debug.Publish(stats)
		}
		if logStats {
			w.LogWorldState()
		}
	}

	w, err := game.New(cfg, opts)
	if err != nil {
		return err
	}

	slog.Info("starting simulation",
		"run_id", runID,
		"seed", seed,
		"max_ticks", maxTicks,
		"output_dir", outputDir,
		"db", cfg.Storage.Path,
		"debug_addr", cfg.Debug.Addr,
	)

	for maxTicks <= 0 || int(w.TickCount()) < maxTicks {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", w.TickCount())
			break
		}
		w.Step()
		if debug != nil {
			debug.Drain(w)
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	if db != nil {
		if err := db.FinishRun(runID, w.TickCount()); err != nil {
			return err
		}
	}
	return nil
}
