package monitor

import (
	"context"

	"codeberg.org/halver/sysmond/internal/alert"
	"codeberg.org/halver/sysmond/internal/collector"
	"codeberg.org/halver/sysmond/internal/errors"
	"codeberg.org/halver/sysmond/internal/history"
	"codeberg.org/halver/sysmond/internal/logger"
	"codeberg.org/halver/sysmond/internal/telemetry"
)

const ErrTickFailed = errors.ErrorCode("monitor_tick_failed")

// Result is the outcome of one tick. The host sample and the process
// snapshot are independently fallible: a process listing failure is
// reported in ProcessErr so the caller can render a fresh sample next
// to a stale table, or the reverse.
type Result struct {
	Sample     collector.Sample
	Processes  []collector.ProcessInfo
	Alerts     []alert.Alert
	ProcessErr error
}

// Controller composes the sampling source, rolling history and alert
// engine behind a single per-tick entry point. One instance owns one
// history; callers wanting independent monitors construct more.
type Controller struct {
	source collector.Source
	store  *history.Store
	engine *alert.Engine
	sink   telemetry.Collector
}

func New(source collector.Source, store *history.Store, engine *alert.Engine, sink telemetry.Collector) *Controller {
	return &Controller{
		source: source,
		store:  store,
		engine: engine,
		sink:   sink,
	}
}

// Tick runs one sampling cycle: host sample, process snapshot, history
// append and alert evaluation. On a host sample failure the error is
// returned and history is left untouched, so failed ticks never pollute
// it with partial data.
func (c *Controller) Tick(ctx context.Context) (Result, error) {
	errFactory := errors.New()

	sample, sampleErr := c.source.Sample()

	procs, procErr := c.source.Processes()
	result := Result{
		Processes:  procs,
		ProcessErr: procErr,
	}

	if sampleErr != nil {
		return result, errFactory.Wrap(ErrTickFailed, sampleErr)
	}

	c.store.Append(sample)
	result.Sample = sample
	result.Alerts = c.engine.Evaluate(sample)

	if c.sink != nil {
		record := &telemetry.TickRecord{
			Timestamp:     sample.Timestamp,
			CPUPercent:    sample.CPUPercent,
			MemoryPercent: sample.MemoryPercent,
			MemoryUsed:    sample.MemoryUsed,
			MemoryTotal:   sample.MemoryTotal,
			AlertCount:    len(result.Alerts),
		}
		if err := c.sink.Record(ctx, record); err != nil {
			logger.Warn().Err(err).Msg("Failed to record telemetry")
		}
	}

	return result, nil
}

// History exposes the rolling store for chart rendering.
func (c *Controller) History() *history.Store {
	return c.store
}

// Terminate requests graceful termination of pid and reports whether
// the process is confirmed gone. Confirmation prompts are the caller's
// concern; this may block for up to the collector's wait timeout.
func (c *Controller) Terminate(pid int32) bool {
	return c.source.Terminate(pid)
}
