package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/monbattle/internal/config"
	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/db"
	"github.com/udisondev/monbattle/internal/game/archive"
	"github.com/udisondev/monbattle/internal/game/engine"
	"github.com/udisondev/monbattle/internal/random"
)

const (
	BattleConfigPath = "config/battleserver.yaml"

	// Время на дозапись архива после сигнала остановки
	shutdownFlushTimeout = 15 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := BattleConfigPath
	if p := os.Getenv("MONBATTLE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadBattleServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading battle server config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("monbattle server starting",
		"log_level", cfg.LogLevel,
		"defender_type_policy", cfg.Battle.DefenderTypePolicy)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	repos := database.Repositories()

	// Static data: catalog goes to the database, type chart stays in memory
	catalog, err := data.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if err := db.SeedCatalog(ctx, repos.Catalog, catalog); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	chart, err := data.LoadTypeChart(cfg.TypeChartPath)
	if err != nil {
		return fmt.Errorf("loading type chart: %w", err)
	}

	var rng random.Source
	if cfg.Battle.Seed != 0 {
		rng = random.New(cfg.Battle.Seed)
		slog.Info("using fixed random seed", "seed", cfg.Battle.Seed)
	}

	eng, err := engine.New(engine.Stores{
		Trainers:  repos.Trainers,
		Creatures: repos.Creatures,
		Catalog:   repos.Catalog,
		Results:   repos.Results,
	}, engine.Options{
		Chart:  chart,
		Policy: cfg.DefenderPolicy(),
		Rand:   rng,
		Archive: archive.Config{
			QueueSize:       cfg.Archive.QueueSize,
			InitialInterval: cfg.Archive.InitialInterval,
			MaxInterval:     cfg.Archive.MaxInterval,
		},
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	slog.Info("battle engine initialized",
		"species", len(catalog.Species),
		"moves", len(catalog.Moves))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting match archive worker",
			"initial_interval", cfg.Archive.InitialInterval,
			"max_interval", cfg.Archive.MaxInterval)
		if err := eng.Run(gctx); err != nil {
			return fmt.Errorf("match archive: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				slog.Info("battle stats",
					"active_sessions", eng.Battles.Count(),
					"archive_pending", eng.Archive.Pending())
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	// Контекст уже отменён, дописываем outbox с отдельным таймаутом
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	defer cancel()
	if err := eng.Shutdown(flushCtx); err != nil {
		slog.Error("engine shutdown", "pending", eng.Archive.Pending(), "error", err)
		return err
	}
	slog.Info("match archive flushed")

	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
