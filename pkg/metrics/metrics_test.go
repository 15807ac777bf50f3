package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/episodic-go/pkg/intelligence"
	"github.com/oceanbase/episodic-go/pkg/memory"
	"github.com/oceanbase/episodic-go/pkg/metrics"
)

func TestRecorderRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder("")
	require.NoError(t, rec.Register(reg))

	// Registering the same collectors twice fails.
	assert.Error(t, rec.Register(reg))

	// A second recorder under another namespace coexists.
	require.NoError(t, metrics.NewRecorder("other").Register(reg))
}

func TestRecorderCounters(t *testing.T) {
	rec := metrics.NewRecorder("test")
	rec.ObserveCapture()
	rec.ObserveCapture()
	rec.ObservePromotion(memory.LayerImmediate, memory.LayerShortTerm)
	rec.ObservePurge(memory.LayerShortTerm)
	rec.ObserveEviction(memory.LayerShortTerm)
	rec.ObserveEviction(memory.LayerShortTerm)

	expected := `
# HELP test_memory_captured_total Memories encoded into the Immediate tier.
# TYPE test_memory_captured_total counter
test_memory_captured_total 2
# HELP test_memory_evictions_total Memories dropped from a full tier.
# TYPE test_memory_evictions_total counter
test_memory_evictions_total{layer="ShortTerm"} 2
# HELP test_memory_promotions_total Memories promoted from one tier to the next.
# TYPE test_memory_promotions_total counter
test_memory_promotions_total{from="Immediate",to="ShortTerm"} 1
# HELP test_memory_purged_total Memories removed for falling below the decay threshold.
# TYPE test_memory_purged_total counter
test_memory_purged_total{layer="ShortTerm"} 1
`
	reg := prometheus.NewRegistry()
	require.NoError(t, rec.Register(reg))
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_memory_captured_total", "test_memory_evictions_total",
		"test_memory_promotions_total", "test_memory_purged_total")
	assert.NoError(t, err)
}

func TestRecorderAsMaintenanceObserver(t *testing.T) {
	rec := metrics.NewRecorder("obs")
	reg := prometheus.NewRegistry()
	require.NoError(t, rec.Register(reg))

	manager := intelligence.NewMaintenanceManager(nil, intelligence.WithObserver(rec))
	layers := memory.NewMemoryLayers()
	layers.Add(memory.LayerImmediate, memory.NewMemoryEntry(0, "a", memory.WithSalience(0.5)))
	layers.Add(memory.LayerImmediate, memory.NewMemoryEntry(0, "b", memory.WithSalience(0.7)))
	layers.Add(memory.LayerShortTerm, memory.NewMemoryEntry(0, "c", memory.WithSalience(0.1)))

	_, err := manager.ApplyMemoryMaintenance(layers, 2*time.Hour)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "obs_memory_promotions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// One histogram series per tier.
	count, err = testutil.GatherAndCount(reg, "obs_memory_layer_size")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = testutil.GatherAndCount(reg, "obs_memory_maintenance_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorderRetrievals(t *testing.T) {
	rec := metrics.NewRecorder("ret")
	reg := prometheus.NewRegistry()
	require.NoError(t, rec.Register(reg))

	rec.ObserveRetrieval("scored", 3)
	rec.ObserveRetrieval("by_tag", 0)

	count, err := testutil.GatherAndCount(reg, "ret_memory_retrieval_results")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *metrics.Recorder
	assert.NotPanics(t, func() {
		rec.ObserveCapture()
		rec.ObservePromotion(memory.LayerImmediate, memory.LayerShortTerm)
		rec.ObservePurge(memory.LayerShortTerm)
		rec.ObserveEviction(memory.LayerLongTerm)
		rec.ObserveLayers(memory.NewMemoryLayers())
		rec.ObserveRetrieval("scored", 1)
	})
}
