package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inhies/go-bytesize"

	"github.com/freeeve/pgnbook/internal/config"
	"github.com/freeeve/pgnbook/internal/ingest"
	"github.com/freeeve/pgnbook/internal/logx"
	"github.com/freeeve/pgnbook/internal/metrics"
	"github.com/freeeve/pgnbook/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Config file and PGNBOOK_* env vars supply the flag defaults.
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var (
		output      = flag.String("out", cfg.Snapshot, "Book snapshot to write")
		maxDepth    = flag.Int("max-depth", cfg.MaxDepth, "Plies per game counted into the book")
		me          = flag.String("me", cfg.Me, "Player whose games are counted per side")
		workers     = flag.Int("workers", cfg.Workers, "Files read in parallel")
		metricsFile = flag.String("metrics-file", cfg.MetricsFile, "Prometheus textfile to write after ingest")
		logLevel    = flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
		maxLine     = flag.String("max-line-size", cfg.MaxLineSize, "Longest accepted PGN line, e.g. 1MB")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ingest [options] <file.pgn[.zst|.bz2]|dir>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg.Snapshot = *output
	cfg.MaxDepth = *maxDepth
	cfg.Me = *me
	cfg.Workers = *workers
	cfg.MetricsFile = *metricsFile
	cfg.LogLevel = *logLevel
	cfg.MaxLineSize = *maxLine

	logger := logx.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid options")
	}
	lineSize, _ := cfg.LineSize()

	logger.Info().
		Strs("inputs", flag.Args()).
		Str("out", cfg.Snapshot).
		Int("max_depth", cfg.MaxDepth).
		Int("workers", cfg.Workers).
		Str("me", cfg.Me).
		Msg("starting ingest")

	var mm *metrics.Manager
	if cfg.MetricsFile != "" {
		mm = metrics.NewManager()
	}

	b, stats, err := ingest.Run(ctx, ingest.Config{
		Inputs:      flag.Args(),
		Workers:     cfg.Workers,
		MaxDepth:    cfg.MaxDepth,
		Me:          cfg.Me,
		MaxLineSize: lineSize,
		Logger:      logger,
		Metrics:     mm,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest failed")
	}

	meta, err := store.Save(cfg.Snapshot, b, store.Metadata{
		Games:   uint64(stats.Games),
		Sources: flag.Args(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("save snapshot")
	}
	logger.Info().
		Str("id", meta.ID).
		Str("path", cfg.Snapshot).
		Int("positions", meta.Positions).
		Int("moves", meta.Moves).
		Str("size", bytesize.New(float64(meta.CompressedBytes)).String()).
		Str("raw_size", bytesize.New(float64(meta.UncompressedBytes)).String()).
		Msg("snapshot written")

	if cfg.MetricsFile != "" {
		if err := mm.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error().Err(err).Msg("write metrics")
		}
	}
}
