package core

// scheduler.go runs the ingestion periodically.
//
// Each cron tick performs one complete run (reset, seed, load, report).
// Ticks never overlap: a tick that fires while a run is still in progress
// is skipped, so every run keeps exclusive use of its store connection.
// A failed run is logged and the scheduler waits for the next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateSchedule checks a standard 5-field cron expression.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// RunScheduled runs the service on every tick of spec, evaluated in loc,
// until ctx is cancelled. It waits for an in-flight run before returning.
func (s *Service) RunScheduled(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	logger := cronLogger{logger: slog.Default()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(spec, func() { s.runJob(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	slog.Info("ingestion scheduler started", "schedule", spec, "timezone", loc.String())
	c.Start()

	<-ctx.Done()

	slog.Info("ingestion scheduler stopping")
	<-c.Stop().Done()
	slog.Info("ingestion scheduler stopped")
	return nil
}

// runJob performs one scheduled run.
func (s *Service) runJob(ctx context.Context) {
	report, err := s.Run(ctx)
	if err != nil {
		msg := MapError(err)
		slog.Error("scheduled run failed",
			"run_id", report.RunID,
			"code", msg.Code,
			"error", err,
		)
		return
	}

	slog.Info("scheduled run completed",
		"run_id", report.RunID,
		"duration_ms", report.Duration.Milliseconds(),
	)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
