package alert

import (
	"fmt"
	"time"

	"codeberg.org/halver/sysmond/internal/collector"
	"codeberg.org/halver/sysmond/internal/errors"
)

const ErrInvalidThresholds = errors.ErrorCode("alert_invalid_thresholds")

type Level string

const (
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Alert is an ephemeral event raised for a sample that exceeds a
// threshold. Retention and display truncation are the caller's concern.
type Alert struct {
	Level   Level
	Message string
	Time    time.Time
}

// Thresholds holds the percentage cutoffs per metric. Comparisons are
// strict: a value exactly at a cutoff does not cross it.
type Thresholds struct {
	CPUWarning     float64
	CPUCritical    float64
	MemoryWarning  float64
	MemoryCritical float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUWarning:     80,
		CPUCritical:    90,
		MemoryWarning:  80,
		MemoryCritical: 90,
	}
}

// Engine evaluates samples against static thresholds. It is stateless:
// a metric above threshold raises again on every call until it drops
// back, and no "cleared" events are emitted.
type Engine struct {
	thresholds Thresholds
}

func NewEngine(thresholds Thresholds) (*Engine, error) {
	errFactory := errors.New()

	if thresholds.CPUWarning >= thresholds.CPUCritical {
		return nil, errFactory.WithMessage(ErrInvalidThresholds,
			fmt.Sprintf("CPU warning (%.1f) must be below critical (%.1f)",
				thresholds.CPUWarning, thresholds.CPUCritical))
	}
	if thresholds.MemoryWarning >= thresholds.MemoryCritical {
		return nil, errFactory.WithMessage(ErrInvalidThresholds,
			fmt.Sprintf("memory warning (%.1f) must be below critical (%.1f)",
				thresholds.MemoryWarning, thresholds.MemoryCritical))
	}

	return &Engine{thresholds: thresholds}, nil
}

// Evaluate maps one sample to zero or more alerts, at most one per
// metric. CPU and memory are evaluated independently and may both fire
// in the same call.
func (e *Engine) Evaluate(sample collector.Sample) []Alert {
	var alerts []Alert
	alerts = appendMetricAlert(alerts, "CPU", sample.CPUPercent,
		e.thresholds.CPUWarning, e.thresholds.CPUCritical, sample.Timestamp)
	alerts = appendMetricAlert(alerts, "Memory", sample.MemoryPercent,
		e.thresholds.MemoryWarning, e.thresholds.MemoryCritical, sample.Timestamp)

	return alerts
}

func appendMetricAlert(alerts []Alert, metric string, value, warning, critical float64, at time.Time) []Alert {
	switch {
	case value > critical:
		return append(alerts, Alert{
			Level:   LevelCritical,
			Message: fmt.Sprintf("%s usage is %.1f%%", metric, value),
			Time:    at,
		})
	case value > warning:
		return append(alerts, Alert{
			Level:   LevelWarning,
			Message: fmt.Sprintf("%s usage is high: %.1f%%", metric, value),
			Time:    at,
		})
	}

	return alerts
}
