package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/halver/sysmond/internal/collector"
	"codeberg.org/halver/sysmond/internal/history"
)

func sampleAt(cpuPercent float64, at time.Time) collector.Sample {
	return collector.Sample{
		Timestamp:     at,
		CPUPercent:    cpuPercent,
		MemoryPercent: cpuPercent / 2,
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	store := history.NewStore(3)
	base := time.Now()

	for i, cpuValue := range []float64{10, 20, 30, 40} {
		store.Append(sampleAt(cpuValue, base.Add(time.Duration(i)*time.Second)))
	}

	times, cpuValues, memoryValues := store.Snapshot()
	assert.Equal(t, []float64{20, 30, 40}, cpuValues, "Expected the last 3 appends in arrival order")
	assert.Equal(t, []float64{10, 15, 20}, memoryValues)
	assert.Len(t, times, 3)
	assert.Equal(t, base.Add(1*time.Second), times[0], "Expected the oldest surviving timestamp first")
}

func TestSequencesKeepEqualLength(t *testing.T) {
	store := history.NewStore(5)
	base := time.Now()

	for i := 0; i < 12; i++ {
		store.Append(sampleAt(float64(i), base.Add(time.Duration(i)*time.Second)))

		times, cpuValues, memoryValues := store.Snapshot()
		assert.Equal(t, len(times), len(cpuValues))
		assert.Equal(t, len(times), len(memoryValues))
		assert.LessOrEqual(t, len(times), store.Capacity())
	}

	assert.Equal(t, 5, store.Len())
}

func TestArrivalOrderIsNotResorted(t *testing.T) {
	store := history.NewStore(10)
	base := time.Now()

	// Out-of-order timestamps stay in arrival order.
	store.Append(sampleAt(1, base.Add(2*time.Second)))
	store.Append(sampleAt(2, base.Add(1*time.Second)))
	store.Append(sampleAt(3, base.Add(3*time.Second)))

	times, cpuValues, _ := store.Snapshot()
	assert.Equal(t, []float64{1, 2, 3}, cpuValues)
	assert.Equal(t, base.Add(2*time.Second), times[0])
	assert.Equal(t, base.Add(1*time.Second), times[1])
}

func TestSnapshotIsACopy(t *testing.T) {
	store := history.NewStore(3)
	store.Append(sampleAt(10, time.Now()))
	store.Append(sampleAt(20, time.Now()))

	_, cpuValues, memoryValues := store.Snapshot()
	cpuValues[0] = 999
	memoryValues[0] = 999

	_, cpuAgain, memoryAgain := store.Snapshot()
	assert.Equal(t, []float64{10, 20}, cpuAgain, "Mutating a snapshot must not corrupt the store")
	assert.Equal(t, []float64{5, 10}, memoryAgain)
}

func TestNonPositiveCapacityFallsBackToDefault(t *testing.T) {
	store := history.NewStore(0)
	assert.Equal(t, history.DefaultCapacity, store.Capacity())
}
