package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/estaciones/internal/config"
	"github.com/JonMunkholm/estaciones/internal/core"
	"github.com/JonMunkholm/estaciones/internal/core/feeds" // Register feed layouts
	"github.com/JonMunkholm/estaciones/internal/logging"
	"github.com/JonMunkholm/estaciones/internal/metrics"
	"github.com/JonMunkholm/estaciones/internal/store/memory"
	"github.com/JonMunkholm/estaciones/internal/store/postgres"
	"github.com/JonMunkholm/estaciones/internal/store/sqlite"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		msg := core.MapError(err)
		slog.Error("ingestion failed",
			"code", msg.Code,
			"message", msg.Message,
			"action", msg.Action,
			"error", err,
		)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Feeds.LayoutsFile != "" {
		if err := feeds.LoadFile(cfg.Feeds.LayoutsFile); err != nil {
			return err
		}
		slog.Info("feed layouts loaded", "path", cfg.Feeds.LayoutsFile)
	}
	for _, def := range core.All() {
		slog.Debug("feed registered", "feed", def.Key, "kind", def.Kind, "skip_lines", def.SkipLines)
	}

	enc, err := core.LookupEncoding(cfg.Feeds.Encoding)
	if err != nil {
		return err
	}

	acquire, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder := metrics.NewRecorder(cfg.Metrics.Textfile)
	service := core.NewPooledService(acquire, core.Options{
		Paths:    cfg.Feeds.Paths(),
		Encoding: enc,
		Observer: recorder,
	})

	if cfg.Schedule.Enabled() {
		loc, err := cfg.Schedule.Location()
		if err != nil {
			return err
		}
		return service.RunScheduled(ctx, cfg.Schedule.Spec, loc)
	}

	report, err := service.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(report)
	return nil
}

// openStore connects the configured backend and returns a per-run acquire
// function plus a cleanup for the whole process.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (core.AcquireFunc, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database URL: %w", err)
		}
		// One run at a time, one connection per run.
		poolConfig.MaxConns = 2
		poolConfig.MinConns = 0

		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}

		// Log which database we connected to
		if u, err := url.Parse(cfg.URL); err == nil {
			slog.Info("connected to database", "driver", cfg.Driver, "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database", "driver", cfg.Driver)
		}

		if cfg.BootstrapSchema {
			if err := bootstrapPostgres(connectCtx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return postgres.Acquirer(pool), pool.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(connectCtx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("opened database", "driver", cfg.Driver, "path", cfg.URL)
		return core.StaticStore(sqlite.New(db)), func() { _ = db.Close() }, nil

	case config.DriverMemory:
		slog.Warn("using in-memory store; results are discarded on exit")
		return core.StaticStore(memory.New()), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

func bootstrapPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := postgres.New(conn).EnsureSchema(ctx); err != nil {
		return err
	}
	slog.Info("schema bootstrapped")
	return nil
}

// printSummary writes the human-readable run summary to stdout.
func printSummary(report core.RunReport) {
	fmt.Printf("\nRun %s completed in %s\n\n", report.RunID, report.Duration.Round(time.Millisecond))

	fmt.Printf("%-20s %10s %10s\n", "table", "before", "after")
	for _, t := range core.Tables {
		fmt.Printf("%-20s %10d %10d\n", t.String(), report.Before[t], report.After[t])
	}

	fmt.Println()
	for _, f := range report.Feeds {
		fmt.Printf("feed %-10s %s  rows=%d admissible=%d rejected=%d stations=%d prices=%d\n",
			f.Feed, f.Timestamp.Format("2006-01-02 15:04"),
			f.Rows, f.Admissible, f.Rejected, f.Stations, f.Prices)
		for _, r := range f.Rejections {
			fmt.Printf("  skipped line %d (%s): %s\n", r.Line, r.Address, r.Reason)
		}
	}
}
