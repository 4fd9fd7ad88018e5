package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/halver/sysmond/internal/errors"
)

const (
	DefaultLogLevel = "info"

	defaultInterval    = 2
	defaultHistorySize = 60
	defaultWarning     = 80.0
	defaultCritical    = 90.0
)

type Config struct {
	Interval       int     `mapstructure:"interval"`
	HistorySize    int     `mapstructure:"history_size"`
	CPUWarning     float64 `mapstructure:"cpu_warning"`
	CPUCritical    float64 `mapstructure:"cpu_critical"`
	MemoryWarning  float64 `mapstructure:"memory_warning"`
	MemoryCritical float64 `mapstructure:"memory_critical"`
	Telemetry      bool    `mapstructure:"telemetry"`
	TelemetryDB    string  `mapstructure:"database"`
	LogLevel       string  `mapstructure:"log_level"`
	Debug          bool    `mapstructure:"debug"`
	Verbose        bool    `mapstructure:"verbose"`
	Kill           int     `mapstructure:"kill"`
}

func Load() (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	v.SetDefault("interval", defaultInterval)
	v.SetDefault("history_size", defaultHistorySize)
	v.SetDefault("cpu_warning", defaultWarning)
	v.SetDefault("cpu_critical", defaultCritical)
	v.SetDefault("memory_warning", defaultWarning)
	v.SetDefault("memory_critical", defaultCritical)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "")
	v.SetDefault("log_level", DefaultLogLevel)

	fs := pflag.NewFlagSet("sysmond", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Int("interval", defaultInterval, "Seconds between sampling ticks")
	fs.Int("history-size", defaultHistorySize, "Number of samples kept in the rolling history")
	fs.Bool("telemetry", false, "Record tick outcomes to the telemetry database")
	fs.String("database", "", "Path to the telemetry database")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Int("kill", 0, "Terminate the given pid and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Load configuration from file
	if path := os.Getenv("SYSMOND_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sysmond")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SYSMOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Command line flags override file and environment values
	fs.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.HistorySize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			fmt.Sprintf("history_size must be positive, got %d", c.HistorySize))
	}

	if c.CPUWarning >= c.CPUCritical {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			fmt.Sprintf("cpu_warning (%.1f) must be below cpu_critical (%.1f)", c.CPUWarning, c.CPUCritical))
	}

	if c.MemoryWarning >= c.MemoryCritical {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			fmt.Sprintf("memory_warning (%.1f) must be below memory_critical (%.1f)", c.MemoryWarning, c.MemoryCritical))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
