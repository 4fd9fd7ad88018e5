package alert_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/halver/sysmond/internal/alert"
	"codeberg.org/halver/sysmond/internal/collector"
)

func sample(cpuPercent, memoryPercent float64) collector.Sample {
	return collector.Sample{
		Timestamp:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		CPUPercent:    cpuPercent,
		MemoryPercent: memoryPercent,
	}
}

func newEngine(t *testing.T) *alert.Engine {
	t.Helper()
	engine, err := alert.NewEngine(alert.DefaultThresholds())
	require.NoError(t, err)
	return engine
}

func TestEvaluateBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		cpu   float64
		want  int
		level alert.Level
	}{
		{name: "below warning", cpu: 79.9, want: 0},
		{name: "exactly at warning threshold", cpu: 80.0, want: 0},
		{name: "just above warning", cpu: 80.1, want: 1, level: alert.LevelWarning},
		{name: "exactly at critical threshold", cpu: 90.0, want: 1, level: alert.LevelWarning},
		{name: "just above critical", cpu: 90.1, want: 1, level: alert.LevelCritical},
		{name: "well above critical", cpu: 95.2, want: 1, level: alert.LevelCritical},
	}

	engine := newEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := engine.Evaluate(sample(tt.cpu, 10))
			require.Len(t, alerts, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.level, alerts[0].Level)
			}
		})
	}
}

func TestEvaluateBothMetricsFireIndependently(t *testing.T) {
	engine := newEngine(t)

	alerts := engine.Evaluate(sample(95, 85))
	require.Len(t, alerts, 2)
	assert.Equal(t, alert.LevelCritical, alerts[0].Level)
	assert.Contains(t, alerts[0].Message, "CPU")
	assert.Equal(t, alert.LevelWarning, alerts[1].Level)
	assert.Contains(t, alerts[1].Message, "Memory")
}

func TestEvaluateAtMostOneAlertPerMetric(t *testing.T) {
	engine := newEngine(t)

	// A critical value must not additionally raise a warning.
	alerts := engine.Evaluate(sample(99, 10))
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.LevelCritical, alerts[0].Level)
}

func TestEvaluateIsPure(t *testing.T) {
	engine := newEngine(t)
	s := sample(95.2, 85)

	first := engine.Evaluate(s)
	second := engine.Evaluate(s)
	assert.Equal(t, first, second, "Evaluate must be idempotent for the same sample")
}

func TestCriticalMessageEmbedsValue(t *testing.T) {
	engine := newEngine(t)
	s := sample(95.2, 40)

	alerts := engine.Evaluate(s)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.LevelCritical, alerts[0].Level)
	assert.Equal(t, "CPU usage is 95.2%", alerts[0].Message)
	assert.Equal(t, s.Timestamp, alerts[0].Time)
}

func TestWarningMessageFormat(t *testing.T) {
	engine := newEngine(t)

	alerts := engine.Evaluate(sample(10, 85))
	require.Len(t, alerts, 1)
	assert.Equal(t, "Memory usage is high: 85.0%", alerts[0].Message)
}

func TestNewEngineRejectsInvertedThresholds(t *testing.T) {
	_, err := alert.NewEngine(alert.Thresholds{
		CPUWarning:     90,
		CPUCritical:    80,
		MemoryWarning:  80,
		MemoryCritical: 90,
	})
	assert.Error(t, err)

	_, err = alert.NewEngine(alert.Thresholds{
		CPUWarning:     80,
		CPUCritical:    90,
		MemoryWarning:  90,
		MemoryCritical: 90,
	})
	assert.Error(t, err, "Equal warning and critical thresholds are invalid")
}
