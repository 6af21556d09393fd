// Command pgnjson converts PGN files to game records, one JSON object per line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/freeeve/pgnbook/internal/config"
	"github.com/freeeve/pgnbook/internal/ingest"
	"github.com/freeeve/pgnbook/internal/logx"
	"github.com/freeeve/pgnbook/internal/pgnfile"
	"github.com/freeeve/pgnbook/internal/record"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var (
		logLevel = flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
		maxLine  = flag.String("max-line-size", cfg.MaxLineSize, "Longest accepted PGN line, e.g. 1MB")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: pgnjson [options] <file.pgn[.zst|.bz2]|dir>...")
		flag.PrintDefaults()
		os.Exit(1)
	}
	cfg.LogLevel = *logLevel
	cfg.MaxLineSize = *maxLine

	logger := logx.NewLogger(cfg.LogLevel)
	lineSize, err := cfg.LineSize()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid max-line-size")
	}

	files, err := ingest.ExpandInputs(flag.Args())
	if err != nil {
		logger.Fatal().Err(err).Msg("expand inputs")
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	extractor := record.NewExtractor(logger)
	var games int
	for _, path := range files {
		n, err := convert(ctx, path, lineSize, extractor, out, logger)
		games += n
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error().Err(err).Str("file", path).Msg("convert failed")
		}
	}
	logger.Info().Int("files", len(files)).Int("games", games).Msg("done")
}

func convert(ctx context.Context, path string, lineSize int, e *record.Extractor, out *bufio.Writer, logger zerolog.Logger) (int, error) {
	f, err := pgnfile.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	seg := pgnfile.NewSegmenterSize(f, lineSize)
	games := 0
	for {
		if err := ctx.Err(); err != nil {
			return games, err
		}
		text, ok := seg.Next()
		if !ok {
			break
		}
		if _, err := out.WriteString(record.ToJSON(e.Extract(text))); err != nil {
			return games, err
		}
		if err := out.WriteByte('\n'); err != nil {
			return games, err
		}
		games++
	}
	if err := seg.Err(); err != nil {
		logger.Warn().Err(err).Str("file", path).Int("games", games).Msg("stopped reading file")
	}
	return games, nil
}
