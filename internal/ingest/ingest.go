package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/pgnbook/internal/book"
	"github.com/freeeve/pgnbook/internal/metrics"
	"github.com/freeeve/pgnbook/internal/pgnfile"
	"github.com/freeeve/pgnbook/internal/record"
	"github.com/freeeve/pgnbook/internal/rules"
)

// ErrNoInputs is returned by Run when no PGN files were found.
var ErrNoInputs = errors.New("ingest: no PGN files to read")

// Config configures an ingest run.
type Config struct {
	Inputs      []string         // PGN files or directories holding them
	Workers     int              // Files read in parallel (default 1)
	MaxDepth    int              // Plies per game counted into the book
	Me          string           // Player whose games are counted per side
	MaxLineSize int              // Longest accepted input line in bytes
	LogEvery    time.Duration    // Progress log interval per file (default 10s)
	Logger      zerolog.Logger   // Logger
	Metrics     *metrics.Manager // Optional metrics sink
	Rules       rules.Registry   // Rules engines; defaults to rules.DefaultRegistry
}

// FileStats reports one input file.
type FileStats struct {
	Path          string
	Size          int64
	Games         int
	Moves         int // main-line moves recorded
	ParsedMoves   int // moves counted into the book
	Dropped       int // tokens rejected by the rules engine
	MeWhite       int
	MeBlack       int
	SegmentErrors int
	Elapsed       time.Duration
}

// Stats totals a run.
type Stats struct {
	Files         int
	FailedFiles   int
	Games         int
	Moves         int
	ParsedMoves   int
	Dropped       int
	MeWhite       int
	MeBlack       int
	SegmentErrors int
	Elapsed       time.Duration
}

func (s *Stats) add(fs FileStats) {
	s.Files++
	s.Games += fs.Games
	s.Moves += fs.Moves
	s.ParsedMoves += fs.ParsedMoves
	s.Dropped += fs.Dropped
	s.MeWhite += fs.MeWhite
	s.MeBlack += fs.MeBlack
	s.SegmentErrors += fs.SegmentErrors
}

// ExpandInputs resolves files and directories to a sorted list of PGN files.
// Directories are searched one level deep; files given explicitly are kept
// whatever their extension.
func ExpandInputs(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && pgnfile.IsPGNFile(e.Name()) {
				add(filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run reads every input into a book. Each file is absorbed into its own book
// by one worker; the books are merged in input order once all workers are
// done. Files that fail to open or read are logged and counted, not fatal.
func Run(ctx context.Context, cfg Config) (*book.Book, Stats, error) {
	start := time.Now()
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 10 * time.Second
	}
	if cfg.Rules == nil {
		cfg.Rules = rules.DefaultRegistry()
	}
	log := cfg.Logger

	files, err := ExpandInputs(cfg.Inputs)
	if err != nil {
		return nil, Stats{}, err
	}
	if len(files) == 0 {
		return nil, Stats{}, ErrNoInputs
	}

	log.Info().Int("files", len(files)).Int("workers", cfg.Workers).Int("max_depth", cfg.MaxDepth).Msg("found PGN files to process in parallel")

	type fileResult struct {
		book  *book.Book
		stats FileStats
		err   error
	}
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := book.New(book.WithMaxDepth(cfg.MaxDepth), book.WithMe(cfg.Me))
			fs, err := ReadFile(gctx, path, b, cfg)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[i] = fileResult{book: b, stats: fs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	merged := book.New(book.WithMaxDepth(cfg.MaxDepth), book.WithMe(cfg.Me))
	var stats Stats
	for i, r := range results {
		if r.err != nil {
			log.Error().Err(r.err).Str("file", files[i]).Msg("ingest failed")
			stats.FailedFiles++
			continue
		}
		merged.Merge(r.book)
		stats.add(r.stats)
	}
	stats.Elapsed = time.Since(start)
	cfg.Metrics.SetBookSize(len(merged.Positions), merged.NumMoves())

	ev := log.Info().
		Int("files", stats.Files).
		Int("failed", stats.FailedFiles).
		Int("games", stats.Games).
		Int("moves", stats.Moves).
		Int("parsed_moves", stats.ParsedMoves).
		Int("dropped", stats.Dropped).
		Int("positions", len(merged.Positions)).
		Dur("elapsed", stats.Elapsed)
	if cfg.Me != "" {
		ev = ev.Str("me", cfg.Me).Int("me_white", stats.MeWhite).Int("me_black", stats.MeBlack)
	}
	ev.Msg("ingest complete")

	return merged, stats, nil
}

// ReadFile absorbs every game of one PGN file into b.
func ReadFile(ctx context.Context, path string, b *book.Book, cfg Config) (FileStats, error) {
	fs := FileStats{Path: path}
	start := time.Now()
	log := cfg.Logger.With().Str("file", filepath.Base(path)).Logger()

	registry := cfg.Rules
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	extractor := record.NewExtractor(log)
	extractor.Rules = registry

	f, err := pgnfile.Open(path)
	if err != nil {
		cfg.Metrics.RecordFile(0, 0, err)
		return fs, err
	}
	defer f.Close()
	fs.Size = f.Size()

	log.Info().Str("size", bytesize.New(float64(fs.Size)).String()).Msg("starting file ingest")

	lastLog := time.Now()
	seg := pgnfile.NewSegmenterSize(f, cfg.MaxLineSize)
	for text := range seg.Games() {
		if err := ctx.Err(); err != nil {
			return fs, err
		}

		g, es := extractor.ExtractWithStats(text)
		as := b.Absorb(g)

		fs.Games++
		fs.Moves += as.Plies
		fs.ParsedMoves += as.Absorbed
		fs.Dropped += es.Dropped
		if as.MeWhite {
			fs.MeWhite++
		}
		if as.MeBlack {
			fs.MeBlack++
		}
		cfg.Metrics.RecordGame(as.Plies, as.Absorbed, es.Dropped, as.MeWhite, as.MeBlack)

		if time.Since(lastLog) > cfg.LogEvery {
			elapsed := time.Since(start)
			log.Info().
				Int("games", fs.Games).
				Int("moves", fs.Moves).
				Int("positions", len(b.Positions)).
				Float64("games_per_sec", float64(fs.Games)/elapsed.Seconds()).
				Msg("ingest progress")
			lastLog = time.Now()
		}
	}

	if err := seg.Err(); err != nil {
		if !errors.Is(err, pgnfile.ErrMissingHeader) {
			cfg.Metrics.RecordFile(fs.Size, time.Since(start), err)
			return fs, fmt.Errorf("read %s: %w", path, err)
		}
		// The stream ends at a malformed game; what came before is kept.
		fs.SegmentErrors++
		cfg.Metrics.RecordSegmentError()
		log.Warn().Err(err).Int("games", fs.Games).Msg("stopped at line outside any game")
	}

	fs.Elapsed = time.Since(start)
	cfg.Metrics.RecordFile(fs.Size, fs.Elapsed, nil)

	ev := log.Info().
		Int("games", fs.Games).
		Int("moves", fs.Moves).
		Int("parsed_moves", fs.ParsedMoves).
		Int("dropped", fs.Dropped).
		Dur("elapsed", fs.Elapsed).
		Float64("games_per_sec", float64(fs.Games)/fs.Elapsed.Seconds())
	if b.Me != "" {
		ev = ev.Int("me_white", fs.MeWhite).Int("me_black", fs.MeBlack)
	}
	ev.Msg("file ingest complete")

	return fs, nil
}
