package core_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oceanbase/episodic-go/pkg/core"
	"github.com/oceanbase/episodic-go/pkg/memory"
	"github.com/oceanbase/episodic-go/pkg/metrics"
)

const day = 24 * time.Hour

func newClient(t *testing.T, opts ...core.ClientOption) *core.Client {
	t.Helper()
	opts = append([]core.ClientOption{core.WithLogger(zap.NewNop())}, opts...)
	client, err := core.NewClient("alice", nil, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	client := newClient(t)
	assert.Equal(t, memory.EntityID("alice"), client.EntityID())
	assert.Equal(t, core.DefaultConfig(), client.Config())
	assert.True(t, client.Layers().IsEmpty())
}

func TestNewClientErrors(t *testing.T) {
	_, err := core.NewClient("", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	cfg := core.DefaultConfig()
	cfg.Memory.TimeScale = -1
	_, err = core.NewClient("alice", cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestCapture(t *testing.T) {
	client := newClient(t)

	result, err := client.Capture(3*day, "moved to a new town",
		core.WithTags(memory.TagMilestone),
		core.WithParticipants("bob"),
		core.WithContext("school"),
		core.WithSource(memory.SourceWitness),
		core.WithSalience(0.7),
		core.WithEventID("evt_1"),
	)
	require.NoError(t, err)
	assert.False(t, result.Boosted)
	assert.Empty(t, result.Evicted)

	entry, layer, err := client.Get(result.ID)
	require.NoError(t, err)
	assert.Equal(t, memory.LayerImmediate, layer)
	assert.Equal(t, 3*day, entry.Timestamp())
	assert.Equal(t, "moved to a new town", entry.Summary())
	assert.Equal(t, 0.7, entry.Salience())
	assert.Equal(t, memory.SourceWitness, entry.Source())
	assert.True(t, entry.HasTag(memory.TagMilestone))
	assert.True(t, entry.InvolvesParticipant("bob"))
	assert.True(t, entry.IsInContext("school"))
	eventID, ok := entry.EventID()
	assert.True(t, ok)
	assert.Equal(t, memory.EventID("evt_1"), eventID)
}

func TestCaptureDefaults(t *testing.T) {
	client := newClient(t)

	result, err := client.Capture(0, "a quiet day")
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultSalience, result.Entry.Salience())
	assert.Equal(t, memory.SourceSelf, result.Entry.Source())
	assert.Empty(t, result.Entry.Tags())
	assert.Equal(t, memory.NeutralSnapshot(), result.Entry.EmotionalSnapshot())
}

func TestCaptureRecordsMood(t *testing.T) {
	client := newClient(t)
	mood := memory.NewPAD(-0.4, 0.6, 0.1)

	result, err := client.Capture(0, "a fight", core.WithMood(mood))
	require.NoError(t, err)
	assert.Equal(t, memory.SnapshotFromMood(mood), result.Entry.EmotionalSnapshot())

	explicit := memory.NewEmotionalSnapshot(0.9, 0, 0)
	result, err = client.Capture(0, "a party", core.WithMood(mood), core.WithSnapshot(explicit))
	require.NoError(t, err)
	assert.Equal(t, explicit, result.Entry.EmotionalSnapshot())
}

func TestCaptureRejectsNegativeTimestamp(t *testing.T) {
	client := newClient(t)

	_, err := client.Capture(-time.Second, "before birth")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.True(t, client.Layers().IsEmpty())
}

func TestCaptureAppliesTraumaBoostOnce(t *testing.T) {
	client := newClient(t)

	result, err := client.Capture(0, "attacked", core.WithTags(memory.TagViolence), core.WithSalience(0.5))
	require.NoError(t, err)
	assert.True(t, result.Boosted)
	assert.InDelta(t, 0.65, result.Entry.Salience(), 1e-9)

	entry, _, err := client.Get(result.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.65, entry.Salience(), 1e-9)

	// Maintenance never re-applies the boost.
	_, err = client.Maintain(30 * time.Minute)
	require.NoError(t, err)
	entry, _, err = client.Get(result.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.65, entry.Salience(), 1e-9)
}

func TestCaptureEvictsFromFullImmediateTier(t *testing.T) {
	client := newClient(t)

	var first memory.MemoryID
	for i := range memory.ImmediateCapacity {
		result, err := client.Capture(time.Duration(i)*time.Minute, fmt.Sprintf("event %d", i))
		require.NoError(t, err)
		require.Empty(t, result.Evicted)
		if i == 0 {
			first = result.ID
		}
	}

	result, err := client.Capture(time.Hour, "one too many")
	require.NoError(t, err)
	assert.Equal(t, first, result.Evicted)
	assert.Equal(t, memory.ImmediateCapacity, client.Snapshot().Layers.Immediate)

	_, _, err = client.Get(first)
	assert.ErrorIs(t, err, memory.ErrMemoryNotFound)
}

func TestGetAndForget(t *testing.T) {
	client := newClient(t)
	result, err := client.Capture(0, "first day of school")
	require.NoError(t, err)

	removed, err := client.Forget(result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, removed.ID())
	assert.True(t, client.Layers().IsEmpty())

	_, err = client.Forget(result.ID)
	assert.ErrorIs(t, err, memory.ErrMemoryNotFound)
	_, _, err = client.Get(result.ID)
	assert.ErrorIs(t, err, memory.ErrMemoryNotFound)
}

func TestPromote(t *testing.T) {
	client := newClient(t)
	strong, err := client.Capture(0, "graduation", core.WithSalience(0.8))
	require.NoError(t, err)
	weak, err := client.Capture(0, "lunch", core.WithSalience(0.2))
	require.NoError(t, err)

	err = client.Promote(strong.ID, 30*time.Minute)
	assert.ErrorIs(t, err, memory.ErrConsolidationWindowNotElapsed)

	require.NoError(t, client.Promote(strong.ID, 2*time.Hour))
	_, layer, err := client.Get(strong.ID)
	require.NoError(t, err)
	assert.Equal(t, memory.LayerShortTerm, layer)

	err = client.Promote(weak.ID, 2*time.Hour)
	assert.ErrorIs(t, err, memory.ErrSalienceThresholdNotMet)
	var memErr *core.MemoryError
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, "Promote", memErr.Op)
}

func TestMaintainConsolidationWindow(t *testing.T) {
	client := newClient(t)
	result, err := client.Capture(0, "met a friend", core.WithSalience(0.5))
	require.NoError(t, err)

	report, err := client.Maintain(30 * time.Minute)
	require.NoError(t, err)
	assert.False(t, report.HasChanges())

	report, err = client.Maintain(2 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Promoted)
	assert.Equal(t, []memory.MemoryID{result.ID}, report.PromotedIDs)

	snap := client.Snapshot()
	assert.Equal(t, 0, snap.Layers.Immediate)
	assert.Equal(t, 1, snap.Layers.ShortTerm)
	require.NotNil(t, snap.LastMaintenance)
	assert.Equal(t, 2*time.Hour, *snap.LastMaintenance)
}

func TestMaintainIfDue(t *testing.T) {
	client := newClient(t)

	_, ran, err := client.MaintainIfDue(time.Hour)
	require.NoError(t, err)
	assert.True(t, ran, "first pass always runs")

	_, ran, err = client.MaintainIfDue(2 * time.Hour)
	require.NoError(t, err)
	assert.False(t, ran)

	_, ran, err = client.MaintainIfDue(time.Hour + day)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, time.Hour+day, *client.Snapshot().LastMaintenance)
}

func TestDecayAll(t *testing.T) {
	client := newClient(t)
	result, err := client.Capture(0, "a birthday", core.WithSalience(0.8))
	require.NoError(t, err)

	client.DecayAll(30 * day)
	entry, _, err := client.Get(result.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, entry.Salience(), 1e-9)
}

func TestDecayAllUsesTimeScale(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Memory.TimeScale = 2
	client, err := core.NewClient("dog", cfg, core.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	result, err := client.Capture(0, "a walk", core.WithSalience(0.8))
	require.NoError(t, err)

	client.DecayAll(15 * day)
	entry, _, err := client.Get(result.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, entry.Salience(), 1e-9)
}

func TestConsolidate(t *testing.T) {
	client := newClient(t)
	_, err := client.Capture(0, "house fire", core.WithTags(memory.TagCrisis), core.WithSalience(0.8))
	require.NoError(t, err)

	state := memory.NewLiveMood(-0.5, 0, 0)
	assert.True(t, client.Consolidate(state, 0).IsZero())

	applied := client.Consolidate(state, 30*day)
	assert.Less(t, applied.ValenceDelta, 0.0)
	assert.Greater(t, applied.ArousalDelta, 0.0)
	assert.InDelta(t, applied.ValenceDelta, state.ValenceDelta, 1e-12)
}

func TestRetrieve(t *testing.T) {
	client := newClient(t)
	for i := range 5 {
		_, err := client.Capture(time.Duration(i)*day, fmt.Sprintf("routine %d", i))
		require.NoError(t, err)
	}
	betrayal, err := client.Capture(day, "bob lied",
		core.WithTags(memory.TagBetrayal),
		core.WithParticipants("bob"))
	require.NoError(t, err)

	results := client.Retrieve(10*day,
		core.WithTagsForRetrieve(memory.TagBetrayal),
		core.WithParticipantForRetrieve("bob"),
		core.WithLimit(2))
	require.Len(t, results, 2)
	assert.Equal(t, betrayal.ID, results[0].Entry.ID())
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	assert.Len(t, client.Retrieve(10*day), 6)
	assert.Empty(t, client.Retrieve(10*day, core.WithLimit(-1)))
}

func TestRetrieveDefaultLimitFromConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Memory.RetrievalLimit = 3
	client, err := core.NewClient("alice", cfg, core.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	for i := range 5 {
		_, err := client.Capture(time.Duration(i)*time.Hour, "event")
		require.NoError(t, err)
	}

	assert.Len(t, client.Retrieve(day), 3)
	assert.Len(t, client.Retrieve(day, core.WithLimit(0)), 3)
	assert.Len(t, client.Retrieve(day, core.WithLimit(4)), 4)
}

func TestRetrieveByCue(t *testing.T) {
	client := newClient(t)
	sad, err := client.Capture(0, "funeral",
		core.WithTags(memory.TagDeath),
		core.WithParticipants("grandma"),
		core.WithContext("family"),
		core.WithSalience(0.6),
		core.WithSnapshot(memory.NewEmotionalSnapshot(-0.8, 0.2, -0.3)))
	require.NoError(t, err)
	_, err = client.Capture(0, "won a prize",
		core.WithTags(memory.TagAchievement),
		core.WithContext("school"),
		core.WithSalience(0.4),
		core.WithSnapshot(memory.NewEmotionalSnapshot(0.8, 0.5, 0.5)))
	require.NoError(t, err)

	byTag := client.RetrieveByTag(memory.TagDeath)
	require.Len(t, byTag, 1)
	assert.Equal(t, sad.ID, byTag[0].ID())

	assert.Len(t, client.RetrieveByParticipant("grandma"), 1)
	assert.Len(t, client.RetrieveByContext("school"), 1)
	assert.Len(t, client.RetrieveBySalience(0.5), 1)

	congruent := client.RetrieveMoodCongruent(memory.NewPAD(-0.8, 0.2, -0.3), 0.9)
	require.Len(t, congruent, 1)
	assert.Equal(t, sad.ID, congruent[0].ID())
}

func TestClientMetrics(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "clienttest"
	reg := prometheus.NewRegistry()

	client, err := core.NewClient("alice", cfg, core.WithLogger(zap.NewNop()), core.WithRegisterer(reg))
	require.NoError(t, err)

	_, err = client.Capture(0, "first", core.WithSalience(0.5))
	require.NoError(t, err)
	_, err = client.Maintain(2 * time.Hour)
	require.NoError(t, err)
	client.RetrieveByTag(memory.TagLoss)

	count, err := testutil.GatherAndCount(reg,
		"clienttest_memory_captured_total",
		"clienttest_memory_promotions_total",
		"clienttest_memory_maintenance_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(reg, "clienttest_memory_retrieval_results")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A second client cannot register the same metric names.
	_, err = core.NewClient("bob", cfg, core.WithLogger(zap.NewNop()), core.WithRegisterer(reg))
	assert.ErrorIs(t, err, core.ErrMetricsRegistration)
}

func TestClientsShareRecorder(t *testing.T) {
	rec := metrics.NewRecorder("shared")
	reg := prometheus.NewRegistry()
	require.NoError(t, rec.Register(reg))

	for _, id := range []memory.EntityID{"alice", "bob"} {
		client, err := core.NewClient(id, nil, core.WithLogger(zap.NewNop()), core.WithRecorder(rec))
		require.NoError(t, err)
		_, err = client.Capture(0, "hello")
		require.NoError(t, err)
	}

	expected := 2.0
	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	var got float64
	for _, mf := range metricFamilies {
		if mf.GetName() == "shared_memory_captured_total" {
			got = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, expected, got)
}

func TestClientLogsWithEntityID(t *testing.T) {
	zapCore, logs := observer.New(zapcore.DebugLevel)
	client, err := core.NewClient("alice", nil, core.WithLogger(zap.New(zapCore)))
	require.NoError(t, err)

	_, err = client.Capture(0, "first", core.WithSalience(0.5))
	require.NoError(t, err)
	_, err = client.Maintain(2 * time.Hour)
	require.NoError(t, err)

	captured := logs.FilterMessage("memory captured").All()
	require.Len(t, captured, 1)
	assert.Equal(t, "alice", captured[0].ContextMap()["entity_id"])

	summary := logs.FilterMessage("memory maintenance complete").All()
	require.Len(t, summary, 1)
	assert.Equal(t, zapcore.InfoLevel, summary[0].Level)
	assert.Equal(t, int64(1), summary[0].ContextMap()["promoted"])
}
