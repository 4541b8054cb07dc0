package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordProcessing_AccumulatesCountersAndWorkloadHistory(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordProcessing(time.Second, 1000, 3)
	m.RecordProcessing(time.Second, 2000, 2)

	snap := m.Snapshot()
	assert.EqualValues(t, 5, snap.TotalChunks)
	assert.EqualValues(t, 3000, snap.TotalBytes)
	assert.Positive(t, snap.AvgProcessingTime)
}

func TestRecordDecision_CountsSwitchesOnChange(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordDecision(DecisionSimple)
	m.RecordDecision(DecisionSimple)
	m.RecordDecision(DecisionAdvanced)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.DecisionsSimple)
	assert.EqualValues(t, 1, snap.DecisionsAdvanced)
	assert.EqualValues(t, 1, snap.StrategySwitches)
}

func TestRecordError_RecordRetry(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordError()
	m.RecordError()
	m.RecordRetry()

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.Errors)
	assert.EqualValues(t, 1, snap.Retries)
}

func TestPredictThroughput_FewerThanThreeSamplesReturnsMean(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordProcessing(time.Second, 100, 1)
	m.RecordProcessing(2*time.Second, 400, 1)

	got := m.PredictThroughput(1000)
	assert.InDelta(t, 150, got, 1e-6) // mean of 100 and 200 bytes/s
}

func TestPredictThroughput_WarmUpClampsToObservedRange(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordProcessing(1*time.Second, 100_000, 1)
	m.RecordProcessing(2*time.Second, 400_000, 1)
	m.RecordProcessing(3*time.Second, 900_000, 1)

	got := m.PredictThroughput(400_000)

	minObserved := 100_000.0 // throughput at sample 1: 100000/1
	maxObserved := 300_000.0 // throughput at sample 3: 900000/3

	assert.GreaterOrEqual(t, got, minObserved*0.8)
	assert.LessOrEqual(t, got, maxObserved*1.2)
}

func TestTruncateRingBuffers_ShrinksAllRings(t *testing.T) {
	t.Parallel()

	m := New()
	for range 10 {
		m.RecordBatchSize(4)
		m.RecordMemory(0.5)
	}

	m.TruncateRingBuffers(0.2)

	assert.Equal(t, 2, m.batchSizes.Len())
	assert.Equal(t, 2, m.memorySamples.Len())
}

func TestReset_ClearsCountersAndRings(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordProcessing(time.Second, 100, 1)
	m.RecordError()
	m.RecordDecision(DecisionSimple)

	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.TotalChunks)
	assert.Zero(t, snap.Errors)
	assert.Zero(t, snap.DecisionsSimple)
	assert.Zero(t, snap.AvgProcessingTime)
}
