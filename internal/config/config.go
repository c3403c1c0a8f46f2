// Package config loads sampass settings from flags, SAMPASS_* environment
// variables, an optional YAML file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"sampass/internal/logging"
)

// Config is the resolved configuration of one run.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Input         string         `mapstructure:"input"`
	Reference     string         `mapstructure:"reference"`
	Output        string         `mapstructure:"output"`
	Format        string         `mapstructure:"format"`
	AssumeSorted  bool           `mapstructure:"assume_sorted"`
	StopAfter     uint64         `mapstructure:"stop_after"`
	BatchSize     int            `mapstructure:"batch_size"`
	JoinTimeout   time.Duration  `mapstructure:"join_timeout"`
	MaxInFlight   int            `mapstructure:"max_in_flight"`
	Consumers     []string       `mapstructure:"consumers"`
	ProgressEvery uint64         `mapstructure:"progress_every"`
	Quiet         bool           `mapstructure:"quiet"`
	Log           logging.Config `mapstructure:"log"`
	Metrics       MetricsConfig  `mapstructure:"metrics"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is where metrics are written after the run; empty disables.
	Textfile string `mapstructure:"textfile"`
}

// Defaults.
const (
	DefaultOutput        = "-"
	DefaultFormat        = "text"
	DefaultAssumeSorted  = true
	DefaultBatchSize     = 1000
	DefaultJoinTimeout   = 5 * time.Minute
	DefaultProgressEvery = 1_000_000
	FormatSQLite         = "sqlite"
)

// DefaultConsumers run when none are configured explicitly.
var DefaultConsumers = []string{"counts", "mapq", "refcounts"}

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "jsonl", "yaml", FormatSQLite}

// Sentinel errors for configuration validation.
var (
	// ErrMissingInput indicates no alignment input was given.
	ErrMissingInput = errors.New("input is required (use -I/--input, or - for stdin)")
	// ErrInvalidBatchSize indicates a batch size below 1.
	ErrInvalidBatchSize = errors.New("batch_size must be at least 1")
	// ErrInvalidFormat indicates an unknown report format.
	ErrInvalidFormat = errors.New("unknown format")
	// ErrSQLiteNeedsPath indicates sqlite output to stdout.
	ErrSQLiteNeedsPath = errors.New("sqlite output needs a file path (-O/--output)")
	// ErrInvalidJoinTimeout indicates a non-positive join timeout.
	ErrInvalidJoinTimeout = errors.New("join_timeout must be positive")
	// ErrNoConsumers indicates an empty consumer list.
	ErrNoConsumers = errors.New("at least one consumer is required")
	// ErrInvalidMaxInFlight indicates a negative in-flight limit.
	ErrInvalidMaxInFlight = errors.New("max_in_flight must be non-negative")
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrMissingInput
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w (got: %d)", ErrInvalidBatchSize, c.BatchSize)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("%w %q (one of: %v)", ErrInvalidFormat, c.Format, Formats)
	}
	if c.Format == FormatSQLite && (c.Output == "" || c.Output == "-") {
		return ErrSQLiteNeedsPath
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("%w (got: %s)", ErrInvalidJoinTimeout, c.JoinTimeout)
	}
	if len(c.Consumers) == 0 {
		return ErrNoConsumers
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("%w (got: %d)", ErrInvalidMaxInFlight, c.MaxInFlight)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
