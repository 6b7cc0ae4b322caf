// Package metrics records ingestion run metrics with Prometheus.
//
// The ingester is a batch job with no HTTP surface, so metrics are written to
// a node_exporter textfile after every run instead of being scraped.
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/estaciones/internal/core"
)

// Recorder implements core.RunObserver.
type Recorder struct {
	registry *prometheus.Registry
	textfile string

	rowsTotal     *prometheus.CounterVec
	entitiesTotal *prometheus.GaugeVec
	runDuration   prometheus.Histogram
	runsTotal     *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

var _ core.RunObserver = (*Recorder)(nil)

// NewRecorder creates a recorder with its own registry. When textfile is not
// empty, every observed run rewrites that file.
func NewRecorder(textfile string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		textfile: textfile,

		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_ingest_rows_total",
				Help: "Data rows read per feed, by outcome (admissible, rejected, blank).",
			},
			[]string{"feed", "outcome"},
		),
		entitiesTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuel_ingest_entities_total",
				Help: "Row count per table after the last run.",
			},
			[]string{"table"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fuel_ingest_run_duration_seconds",
			Help:    "Duration of complete ingestion runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_ingest_runs_total",
				Help: "Ingestion runs by status (success, failure).",
			},
			[]string{"status"},
		),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fuel_ingest_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}

	r.registry.MustRegister(
		r.rowsTotal,
		r.entitiesTotal,
		r.runDuration,
		r.runsTotal,
		r.lastSuccess,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFeed records the row outcomes of one loaded feed.
func (r *Recorder) ObserveFeed(result core.FeedResult) {
	r.rowsTotal.WithLabelValues(result.Feed, "admissible").Add(float64(result.Admissible))
	r.rowsTotal.WithLabelValues(result.Feed, "rejected").Add(float64(result.Rejected))
	r.rowsTotal.WithLabelValues(result.Feed, "blank").Add(float64(result.Blank))
}

// ObserveRun records the run status and final table counts, then exports
// the textfile if configured. Export failures are logged, never returned.
func (r *Recorder) ObserveRun(report core.RunReport, err error) {
	r.runDuration.Observe(report.Duration.Seconds())

	if err != nil {
		r.runsTotal.WithLabelValues("failure").Inc()
	} else {
		r.runsTotal.WithLabelValues("success").Inc()
		r.lastSuccess.Set(float64(time.Now().Unix()))
	}

	for table, n := range report.After {
		r.entitiesTotal.WithLabelValues(table.String()).Set(float64(n))
	}

	if err := r.WriteTextfile(); err != nil {
		slog.Warn("metrics export failed", "path", r.textfile, "error", err)
	}
}

// WriteTextfile writes all metrics to the configured textfile.
func (r *Recorder) WriteTextfile() error {
	if r.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
