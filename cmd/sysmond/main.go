package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/halver/sysmond/internal/alert"
	"codeberg.org/halver/sysmond/internal/collector"
	"codeberg.org/halver/sysmond/internal/config"
	"codeberg.org/halver/sysmond/internal/errors"
	"codeberg.org/halver/sysmond/internal/history"
	"codeberg.org/halver/sysmond/internal/logger"
	"codeberg.org/halver/sysmond/internal/monitor"
	"codeberg.org/halver/sysmond/internal/pid"
	"codeberg.org/halver/sysmond/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if !cfg.Debug && !cfg.Verbose {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
			os.Exit(1)
		}
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	source := collector.New()

	// One-shot termination mode; never touches the sampling loop.
	if cfg.Kill != 0 {
		runKill(source, cfg.Kill)
		return
	}

	if err := pid.Write(); err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.FatalWithCode(appErr).Msg("Failed to write PID file")
		}
		logger.Fatal().Err(err).Msg("Failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	engine, err := alert.NewEngine(alert.Thresholds{
		CPUWarning:     cfg.CPUWarning,
		CPUCritical:    cfg.CPUCritical,
		MemoryWarning:  cfg.MemoryWarning,
		MemoryCritical: cfg.MemoryCritical,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize alert engine")
	}

	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.Enabled = cfg.Telemetry
	if cfg.TelemetryDB != "" {
		telemetryCfg.DBPath = cfg.TelemetryDB
	}
	sink, err := telemetry.NewService(telemetryCfg, logger.Default())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close telemetry")
		}
	}()

	mon := monitor.New(source, history.NewStore(cfg.HistorySize), engine, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := loop(ctx, mon); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	logger.Info().Msg("Exiting...")
}

func loop(ctx context.Context, mon *monitor.Controller) error {
	errFactory := errors.New()

	if cfg.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, cfg.Interval)
	}

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := mon.Tick(ctx)
			if err != nil {
				// Previous readings stay valid; skip this tick.
				logger.Error().Err(err).Msg("Tick failed; keeping previous readings")
				continue
			}
			if result.ProcessErr != nil {
				logger.Warn().Err(result.ProcessErr).Msg("Process listing failed")
			}

			logAlerts(result.Alerts)
			logStatus(mon, result)
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func runKill(source collector.Source, target int) {
	if source.Terminate(int32(target)) {
		fmt.Printf("Process %d terminated\n", target)
		return
	}

	fmt.Fprintf(os.Stderr, "Failed to terminate process %d\n", target)
	os.Exit(1)
}

func logAlerts(alerts []alert.Alert) {
	for _, a := range alerts {
		event := logger.Warn()
		if a.Level == alert.LevelCritical {
			event = logger.Error()
		}
		event.Str("level", string(a.Level)).
			Time("at", a.Time).
			Msg(a.Message)
	}
}

func logStatus(mon *monitor.Controller, result monitor.Result) {
	if cfg.Debug {
		_, cpuHistory, memoryHistory := mon.History().Snapshot()
		logger.Debug().
			Float64("cpu_percent", result.Sample.CPUPercent).
			Float64("memory_percent", result.Sample.MemoryPercent).
			Uint64("memory_used", result.Sample.MemoryUsed).
			Uint64("memory_total", result.Sample.MemoryTotal).
			Float64("cpu_avg", average(cpuHistory)).
			Float64("memory_avg", average(memoryHistory)).
			Int("history_len", len(cpuHistory)).
			Int("processes", len(result.Processes)).
			Int("alerts", len(result.Alerts)).
			Msg("")
	} else if cfg.Verbose {
		event := logger.Info().
			Float64("cpu_percent", result.Sample.CPUPercent).
			Float64("memory_percent", result.Sample.MemoryPercent).
			Int("processes", len(result.Processes))
		if len(result.Processes) > 0 {
			top := result.Processes[0]
			event = event.Str("top_process", top.Name).
				Float64("top_cpu", top.CPUPercent)
		}
		event.Msg("")
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
