// Package metrics exports memory subsystem activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// DefaultNamespace prefixes every metric name when none is configured.
const DefaultNamespace = "episodic"

var layerSizeBuckets = []float64{0, 1, 5, 10, 20, 50, 100, 250, 500, 1000}

// Recorder collects memory metrics. It implements intelligence.Observer.
//
// A single Recorder is meant to be shared by every entity in a simulation;
// all methods are safe for concurrent use. Methods on a nil *Recorder are
// no-ops, so callers can leave metrics disabled without branching.
type Recorder struct {
	captures    prometheus.Counter
	promotions  *prometheus.CounterVec
	purges      *prometheus.CounterVec
	evictions   *prometheus.CounterVec
	maintenance prometheus.Counter
	layerSize   *prometheus.HistogramVec
	retrievals  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder whose metrics are named under namespace.
// An empty namespace uses DefaultNamespace.
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Recorder{
		captures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "captured_total",
			Help:      "Memories encoded into the Immediate tier.",
		}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "promotions_total",
			Help:      "Memories promoted from one tier to the next.",
		}, []string{"from", "to"}),
		purges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "purged_total",
			Help:      "Memories removed for falling below the decay threshold.",
		}, []string{"layer"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "evictions_total",
			Help:      "Memories dropped from a full tier.",
		}, []string{"layer"}),
		maintenance: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "maintenance_runs_total",
			Help:      "Completed maintenance passes.",
		}),
		layerSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "layer_size",
			Help:      "Entries per tier after each maintenance pass. Watch the Legacy series for unbounded growth.",
			Buckets:   layerSizeBuckets,
		}, []string{"layer"}),
		retrievals: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "retrieval_results",
			Help:      "Number of memories returned per retrieval.",
			Buckets:   layerSizeBuckets,
		}, []string{"kind"}),
	}
}

// Collectors returns every collector owned by the recorder.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.captures, r.promotions, r.purges, r.evictions,
		r.maintenance, r.layerSize, r.retrievals,
	}
}

// Register registers the recorder's collectors with reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range r.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCapture counts one encoded memory.
func (r *Recorder) ObserveCapture() {
	if r == nil {
		return
	}
	r.captures.Inc()
}

func (r *Recorder) ObservePromotion(from, to memory.MemoryLayer) {
	if r == nil {
		return
	}
	r.promotions.WithLabelValues(from.String(), to.String()).Inc()
}

func (r *Recorder) ObservePurge(layer memory.MemoryLayer) {
	if r == nil {
		return
	}
	r.purges.WithLabelValues(layer.String()).Inc()
}

func (r *Recorder) ObserveEviction(layer memory.MemoryLayer) {
	if r == nil {
		return
	}
	r.evictions.WithLabelValues(layer.String()).Inc()
}

// ObserveLayers records one maintenance pass and the resulting tier sizes.
func (r *Recorder) ObserveLayers(layers *memory.MemoryLayers) {
	if r == nil {
		return
	}
	r.maintenance.Inc()
	for _, layer := range memory.AllLayers() {
		r.layerSize.WithLabelValues(layer.String()).Observe(float64(layers.Count(layer)))
	}
}

// ObserveRetrieval records the result count of one retrieval of the given kind.
func (r *Recorder) ObserveRetrieval(kind string, results int) {
	if r == nil {
		return
	}
	r.retrievals.WithLabelValues(kind).Observe(float64(results))
}
