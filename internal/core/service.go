package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"

	"github.com/JonMunkholm/estaciones/internal/logging"
)

// RunObserver receives run outcomes, e.g. for metrics.
type RunObserver interface {
	ObserveFeed(result FeedResult)
	ObserveRun(report RunReport, err error)
}

// Options configures a Service.
type Options struct {
	// Paths maps a registered feed key to the file loaded for it.
	Paths map[string]string

	// Encoding decodes feeds that are not UTF-8. Nil means UTF-8.
	Encoding encoding.Encoding

	// Observer is notified after each feed and run. Optional.
	Observer RunObserver
}

// AcquireFunc hands out a store bound to one connection for the duration of
// a run. release is always called, including when the run fails.
type AcquireFunc func(ctx context.Context) (store Store, release func(), err error)

// Service runs the full ingestion: reset, seed, load every feed, report.
type Service struct {
	acquire AcquireFunc
	opts    Options
}

// StaticStore returns an AcquireFunc that hands out the same store every run.
func StaticStore(store Store) AcquireFunc {
	return func(context.Context) (Store, func(), error) {
		return store, func() {}, nil
	}
}

// NewService creates a Service that uses store for every run.
func NewService(store Store, opts Options) *Service {
	return NewPooledService(StaticStore(store), opts)
}

// NewPooledService creates a Service that acquires a store per run.
func NewPooledService(acquire AcquireFunc, opts Options) *Service {
	return &Service{acquire: acquire, opts: opts}
}

// Reset truncates all tables and restarts identities.
func Reset(ctx context.Context, store Store) error {
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset tables: %w", err)
	}
	logging.FromContext(ctx).Info("tables reset")
	return nil
}

// Counts returns the row count of every reported table.
func Counts(ctx context.Context, store Store) (TableCounts, error) {
	counts := make(TableCounts, len(Tables))
	for _, t := range Tables {
		n, err := store.Count(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}

// Run executes one batch. The first fatal error aborts the run; the partial
// report is returned alongside it.
func (s *Service) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{RunID: uuid.New().String()}
	ctx = logging.ContextWithRunID(ctx, report.RunID)

	start := time.Now()
	err := s.acquireAndRun(ctx, &report)
	report.Duration = time.Since(start)

	if s.opts.Observer != nil {
		s.opts.Observer.ObserveRun(report, err)
	}
	return report, err
}

func (s *Service) acquireAndRun(ctx context.Context, report *RunReport) error {
	store, release, err := s.acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire store: %w", err)
	}
	defer release()

	return s.run(ctx, store, report)
}

func (s *Service) run(ctx context.Context, store Store, report *RunReport) error {
	logger := logging.FromContext(ctx)
	logger.Info("ingestion started", "feeds", FeedCount())

	if err := Reset(ctx, store); err != nil {
		return err
	}

	before, err := Counts(ctx, store)
	if err != nil {
		return err
	}
	report.Before = before
	logCounts(ctx, "initial state", before)

	resolver := NewResolver(store)
	writer := NewWriter(store, resolver)
	loader := NewLoader(resolver, writer, s.opts.Encoding)

	if err := resolver.SeedFuelTypes(ctx, FuelTypes); err != nil {
		return err
	}
	logger.Info("fuel types seeded", "names", FuelTypes)

	for _, def := range All() {
		path, ok := s.opts.Paths[def.Key]
		if !ok || path == "" {
			return fmt.Errorf("%w: no path configured for feed %q", ErrFeedNotFound, def.Key)
		}

		logger.Info("loading feed", "feed", def.Key, "label", def.Label, "path", path)
		result, err := loader.LoadFile(ctx, def, path)
		report.Feeds = append(report.Feeds, result)
		if err != nil {
			return fmt.Errorf("load feed %s: %w", def.Key, err)
		}
		if s.opts.Observer != nil {
			s.opts.Observer.ObserveFeed(result)
		}
	}

	after, err := Counts(ctx, store)
	if err != nil {
		return err
	}
	report.After = after
	logCounts(ctx, "final state", after)

	logger.Info("ingestion completed")
	return nil
}

func logCounts(ctx context.Context, msg string, counts TableCounts) {
	logger := logging.FromContext(ctx)
	for _, t := range Tables {
		logger.Info(msg, "table", t.String(), "rows", counts[t])
	}
}
