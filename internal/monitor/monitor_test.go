package monitor_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/halver/sysmond/internal/alert"
	"codeberg.org/halver/sysmond/internal/collector"
	"codeberg.org/halver/sysmond/internal/history"
	"codeberg.org/halver/sysmond/internal/monitor"
	"codeberg.org/halver/sysmond/internal/telemetry"
)

type fakeSource struct {
	sample     collector.Sample
	sampleErr  error
	procs      []collector.ProcessInfo
	procErr    error
	terminated []int32
	termResult bool
}

func (f *fakeSource) Sample() (collector.Sample, error) {
	return f.sample, f.sampleErr
}

func (f *fakeSource) Processes() ([]collector.ProcessInfo, error) {
	return f.procs, f.procErr
}

func (f *fakeSource) Terminate(pid int32) bool {
	f.terminated = append(f.terminated, pid)
	return f.termResult
}

type fakeSink struct {
	records []*telemetry.TickRecord
}

func (f *fakeSink) Record(_ context.Context, record *telemetry.TickRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeSink) Close() error {
	return nil
}

func newEngine(t *testing.T) *alert.Engine {
	t.Helper()
	engine, err := alert.NewEngine(alert.DefaultThresholds())
	require.NoError(t, err)
	return engine
}

func TestTickAppendsHistoryAndRaisesAlerts(t *testing.T) {
	source := &fakeSource{
		sample: collector.Sample{
			Timestamp:     time.Now(),
			CPUPercent:    95.2,
			MemoryPercent: 40.0,
		},
		procs: []collector.ProcessInfo{
			{PID: 1, Name: "init", CPUPercent: 0.1},
		},
	}
	store := history.NewStore(10)
	mon := monitor.New(source, store, newEngine(t), nil)

	result, err := mon.Tick(context.Background())
	require.NoError(t, err)
	require.NoError(t, result.ProcessErr)

	assert.Equal(t, 1, store.Len())
	assert.Len(t, result.Processes, 1)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, alert.LevelCritical, result.Alerts[0].Level)
	assert.Contains(t, result.Alerts[0].Message, "95.2")
}

func TestTickSampleFailureLeavesHistoryUntouched(t *testing.T) {
	source := &fakeSource{
		sampleErr: fmt.Errorf("sysfs read failed"),
		procs: []collector.ProcessInfo{
			{PID: 42, Name: "worker", CPUPercent: 12.5},
		},
	}
	store := history.NewStore(10)
	mon := monitor.New(source, store, newEngine(t), nil)

	result, err := mon.Tick(context.Background())
	require.Error(t, err)

	assert.Equal(t, 0, store.Len(), "A failed tick must not pollute history")
	assert.Empty(t, result.Alerts)
	assert.Len(t, result.Processes, 1, "Process listing is independent of the sample path")
}

func TestTickProcessFailureIsIsolated(t *testing.T) {
	source := &fakeSource{
		sample: collector.Sample{
			Timestamp:     time.Now(),
			CPUPercent:    10,
			MemoryPercent: 20,
		},
		procErr: fmt.Errorf("proc enumeration failed"),
	}
	store := history.NewStore(10)
	mon := monitor.New(source, store, newEngine(t), nil)

	result, err := mon.Tick(context.Background())
	require.NoError(t, err, "A process listing failure must not fail the tick")

	assert.Error(t, result.ProcessErr)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 10.0, result.Sample.CPUPercent)
}

func TestTickRecordsTelemetry(t *testing.T) {
	source := &fakeSource{
		sample: collector.Sample{
			Timestamp:     time.Now(),
			CPUPercent:    92,
			MemoryPercent: 85,
			MemoryUsed:    8 << 30,
			MemoryTotal:   16 << 30,
		},
	}
	sink := &fakeSink{}
	mon := monitor.New(source, history.NewStore(10), newEngine(t), sink)

	_, err := mon.Tick(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, 92.0, sink.records[0].CPUPercent)
	assert.Equal(t, 2, sink.records[0].AlertCount)
}

func TestTerminateDelegatesToSource(t *testing.T) {
	source := &fakeSource{termResult: true}
	mon := monitor.New(source, history.NewStore(10), newEngine(t), nil)

	assert.True(t, mon.Terminate(1234))
	assert.Equal(t, []int32{1234}, source.terminated)

	source.termResult = false
	assert.False(t, mon.Terminate(5678))
}

func TestHistoryExposesStore(t *testing.T) {
	store := history.NewStore(10)
	mon := monitor.New(&fakeSource{}, store, newEngine(t), nil)

	assert.Same(t, store, mon.History())
}
