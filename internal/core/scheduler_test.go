package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"0 6 * * *", false},
		{"*/30 * * * *", false},
		{"@hourly", false},
		{"@every 15m", false},
		{"", true},
		{"0 6 * *", true},
		{"61 * * * *", true},
		{"every morning", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidateSchedule(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunScheduled_InvalidSpec(t *testing.T) {
	svc := NewService(newFakeStore(), Options{})

	err := svc.RunScheduled(context.Background(), "not a schedule", time.UTC)
	assert.Error(t, err)
}

func TestRunScheduled_StopsOnCancel(t *testing.T) {
	svc := NewService(newFakeStore(), Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- svc.RunScheduled(ctx, "0 6 * * *", nil)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestRunJob_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store := newFakeStore()
	store.failWith = errors.New("connection refused")
	svc := NewService(store, Options{})

	svc.runJob(context.Background())

	out := buf.String()
	assert.Contains(t, out, "scheduled run failed")
	assert.Contains(t, out, `"code":"DB004"`)
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Info("wake", "now", "x")
	l.Error(errors.New("boom"), "job panicked", "entry", 1)

	out := buf.String()
	require.Contains(t, out, "cron: wake")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "cron: job panicked")
	assert.Contains(t, out, "error=boom")
}
