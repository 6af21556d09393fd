// Package config holds the settings shared by the pgnbook commands.
//
// Values are layered, lowest precedence first: the defaults from New, a YAML
// file named by PGNBOOK_CONFIG, PGNBOOK_* environment variables, and finally
// whatever command-line flags the caller applies on top.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/inhies/go-bytesize"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MaxDepth is the number of plies per game counted into the book.
	MaxDepth int `koanf:"max_depth"`

	// Me names a player whose games are counted per side while ingesting.
	Me string `koanf:"me"`

	// PlaysWeight is the percentage of mixed picks made by popularity.
	PlaysWeight int `koanf:"plays_weight"`

	// Workers bounds the number of input files read in parallel.
	Workers int `koanf:"workers"`

	// MaxLineSize caps a single PGN line, e.g. "1MB".
	MaxLineSize string `koanf:"max_line_size"`

	// Snapshot is the book file written by ingest and read by pick.
	Snapshot string `koanf:"snapshot"`

	// MetricsFile, when set, receives Prometheus text metrics after ingest.
	MetricsFile string `koanf:"metrics_file"`

	// EcoDir holds opening name TSV files (a.tsv ... e.tsv).
	EcoDir string `koanf:"eco_dir"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		MaxDepth:    20,
		PlaysWeight: 50,
		Workers:     runtime.NumCPU(),
		MaxLineSize: "1MB",
		Snapshot:    "book.pgb",
	}
}

// LineSize parses MaxLineSize into bytes.
func (c *Config) LineSize() (int, error) {
	size, err := bytesize.Parse(c.MaxLineSize)
	if err != nil {
		return 0, fmt.Errorf("%w: max_line_size %q: %v", ErrInvalidConfig, c.MaxLineSize, err)
	}
	if size < 1 {
		return 0, fmt.Errorf("%w: max_line_size %q must be positive", ErrInvalidConfig, c.MaxLineSize)
	}
	return int(size), nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.PlaysWeight < 0 || c.PlaysWeight > 100 {
		return fmt.Errorf("%w: plays_weight must be within 0..100, got %d", ErrInvalidConfig, c.PlaysWeight)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Snapshot == "" {
		return fmt.Errorf("%w: snapshot must not be empty", ErrInvalidConfig)
	}
	_, err := c.LineSize()
	return err
}
