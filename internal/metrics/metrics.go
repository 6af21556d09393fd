// Package metrics counts what an ingest run did and writes the counters in
// the Prometheus text format, for collection by a node exporter textfile
// collector.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrNoPath is returned by WriteTextfile when no path is given.
var ErrNoPath = errors.New("metrics: no textfile path")

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets the buckets of the per-file duration histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and gathered from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the ingest metrics. A nil *Manager is valid and records
// nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	filesProcessed prometheus.Counter
	filesFailed    prometheus.Counter
	inputBytes     prometheus.Counter
	fileDuration   prometheus.Histogram

	games         prometheus.Counter
	plies         prometheus.Counter
	pliesAbsorbed prometheus.Counter
	movesDropped  prometheus.Counter
	segmentErrors prometheus.Counter
	meGames       *prometheus.CounterVec

	bookPositions prometheus.Gauge
	bookMoves     prometheus.Gauge
	lastRunUnix   prometheus.Gauge
}

// NewManager creates a manager on a fresh registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pgnbook",
		subsystem:        "ingest",
		histogramBuckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		})
	}

	m.filesProcessed = counter("files_processed_total", "Input files read to the end")
	m.filesFailed = counter("files_failed_total", "Input files that could not be opened or read")
	m.inputBytes = counter("input_bytes_total", "Bytes of input files on disk")
	m.fileDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "file_duration_seconds",
		Help:      "Time spent ingesting one input file",
		Buckets:   m.histogramBuckets,
	})

	m.games = counter("games_total", "Games segmented and replayed")
	m.plies = counter("plies_total", "Main-line moves recorded across all games")
	m.pliesAbsorbed = counter("plies_absorbed_total", "Moves counted into the book after the depth cutoff")
	m.movesDropped = counter("moves_dropped_total", "Move tokens rejected by the rules engine")
	m.segmentErrors = counter("segment_errors_total", "Inputs whose game stream ended on a malformed header")
	m.meGames = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "me_games_total",
		Help:      "Games played by the configured player, by side",
	}, []string{"side"})

	m.bookPositions = gauge("book_positions", "Positions in the merged book")
	m.bookMoves = gauge("book_moves", "Move entries in the merged book")
	m.lastRunUnix = gauge("last_run_timestamp_seconds", "Completion time of the last ingest run")
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordGame records one replayed game.
func (m *Manager) RecordGame(plies, absorbed, dropped int, meWhite, meBlack bool) {
	if m == nil {
		return
	}
	m.games.Inc()
	m.plies.Add(float64(plies))
	m.pliesAbsorbed.Add(float64(absorbed))
	m.movesDropped.Add(float64(dropped))
	if meWhite {
		m.meGames.WithLabelValues("white").Inc()
	}
	if meBlack {
		m.meGames.WithLabelValues("black").Inc()
	}
}

// RecordFile records a finished input file.
func (m *Manager) RecordFile(size int64, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.filesFailed.Inc()
		return
	}
	m.filesProcessed.Inc()
	m.inputBytes.Add(float64(size))
	m.fileDuration.Observe(elapsed.Seconds())
}

// RecordSegmentError records a game stream cut short by a malformed header.
func (m *Manager) RecordSegmentError() {
	if m == nil {
		return
	}
	m.segmentErrors.Inc()
}

// SetBookSize records the size of the merged book.
func (m *Manager) SetBookSize(positions, moves int) {
	if m == nil {
		return
	}
	m.bookPositions.Set(float64(positions))
	m.bookMoves.Set(float64(moves))
}

// WriteTextfile stamps the run completion time and writes every metric to
// path atomically.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if path == "" {
		return ErrNoPath
	}
	m.lastRunUnix.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
