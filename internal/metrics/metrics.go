package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Alp4ka/addrscan"
)

const (
	StrategyKeyset = "keyset"
	StrategyOffset = "offset"
	StrategyRaw    = "raw"
)

// Metrics holds the collectors of one harness run on a private registry, so
// each program exports only what it measured.
type Metrics struct {
	Registry *prometheus.Registry

	SeedRowsInserted prometheus.Counter
	SeedBatches      prometheus.Counter
	SeedBatchLatency prometheus.Histogram

	ScanPages       *prometheus.CounterVec
	ScanRows        *prometheus.CounterVec
	ScanPageLatency *prometheus.HistogramVec

	UpdateRows    prometheus.Counter
	UpdateLatency prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		SeedRowsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "addrscan",
			Subsystem: "seed",
			Name:      "rows_inserted_total",
			Help:      "Total wallet address rows inserted",
		}),
		SeedBatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "addrscan",
			Subsystem: "seed",
			Name:      "batches_committed_total",
			Help:      "Total insert batches committed",
		}),
		SeedBatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "addrscan",
			Subsystem: "seed",
			Name:      "batch_duration_seconds",
			Help:      "Insert batch duration including commit",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ScanPages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "addrscan",
			Subsystem: "scan",
			Name:      "queries_total",
			Help:      "Total page queries issued, including the final empty page",
		}, []string{"strategy"}),
		ScanRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "addrscan",
			Subsystem: "scan",
			Name:      "rows_total",
			Help:      "Total rows returned by page queries",
		}, []string{"strategy"}),
		ScanPageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "addrscan",
			Subsystem: "scan",
			Name:      "page_duration_seconds",
			Help:      "Page query duration",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"strategy"}),

		UpdateRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "addrscan",
			Subsystem: "update",
			Name:      "rows_affected_total",
			Help:      "Total rows reported as affected by balance updates",
		}),
		UpdateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "addrscan",
			Subsystem: "update",
			Name:      "duration_seconds",
			Help:      "Balance update duration including commit",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveBatch implements addrscan.BatchObserver.
func (m *Metrics) ObserveBatch(rows int, elapsed time.Duration) {
	m.SeedRowsInserted.Add(float64(rows))
	m.SeedBatches.Inc()
	m.SeedBatchLatency.Observe(elapsed.Seconds())
}

// ObserveUpdate records one balance update.
func (m *Metrics) ObserveUpdate(rows int64, elapsed time.Duration) {
	m.UpdateRows.Add(float64(rows))
	m.UpdateLatency.Observe(elapsed.Seconds())
}

// PageObserver returns an addrscan.PageObserver labelled with strategy.
func (m *Metrics) PageObserver(strategy string) addrscan.PageObserver {
	return pageObserver{
		pages:   m.ScanPages.WithLabelValues(strategy),
		rows:    m.ScanRows.WithLabelValues(strategy),
		latency: m.ScanPageLatency.WithLabelValues(strategy),
	}
}

// WriteTextfile writes every collected metric in text exposition format, for
// the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

type pageObserver struct {
	pages   prometheus.Counter
	rows    prometheus.Counter
	latency prometheus.Observer
}

func (o pageObserver) ObservePage(rows int, elapsed time.Duration) {
	o.pages.Inc()
	o.rows.Add(float64(rows))
	o.latency.Observe(elapsed.Seconds())
}

var _ addrscan.BatchObserver = (*Metrics)(nil)
