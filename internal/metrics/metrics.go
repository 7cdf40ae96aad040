// Package metrics registers the prometheus collectors exposed by the
// client's optional dashboard listener (internal/dashboard). The server
// process has no listener, so counters it updates are not exposed.
// Grounded on the
// teacher's internal/server/metrics.go, re-themed from OCR request
// counters onto the sanitization pipeline's own units of work.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesSanitized counts pages through the server's rasterize ->
	// pixelize step, labeled by outcome; a page whose rasterization
	// fails is not counted.
	PagesSanitized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qvm_sanitize_pages_total",
			Help: "Total number of pages processed through the sanitization pipeline",
		},
		[]string{"result"}, // result: success, error
	)

	// DimensionRejections counts pages rejected for exceeding the
	// protocol's fixed width/height bound, the load-bearing anti-DoS check on
	// values a compromised server reports.
	DimensionRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qvm_sanitize_dimension_rejections_total",
			Help: "Total number of pages rejected for out-of-bound dimensions",
		},
	)

	// TransportFailures counts transport-level breaks (non-zero exit,
	// short reads, terminated mid-stream), labeled by which side
	// observed the failure.
	TransportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qvm_sanitize_transport_failures_total",
			Help: "Total number of transport failures observed",
		},
		[]string{"side"}, // side: only "client" is recorded
	)

	// FileDuration observes the wall-clock time from INIT to DONE (or
	// failure) for one file's full orchestrator run.
	FileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qvm_sanitize_file_duration_seconds",
			Help:    "End-to-end duration of one file's sanitization run",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"}, // status: DONE, FAILED, CANCELLED
	)

	// ArchiveCollisions counts how often FINALIZE had to rename an
	// archived file to avoid overwriting an existing one.
	ArchiveCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qvm_sanitize_archive_collisions_total",
			Help: "Total number of archive-directory filename collisions resolved by renaming",
		},
	)

	// ActiveFiles reports how many files are currently in flight across
	// the multi-file supervisor.
	ActiveFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qvm_sanitize_active_files",
			Help: "Number of files currently being sanitized",
		},
	)
)
