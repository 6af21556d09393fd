package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/freeeve/pgnbook/internal/book"
	"github.com/freeeve/pgnbook/internal/config"
	"github.com/freeeve/pgnbook/internal/eco"
	"github.com/freeeve/pgnbook/internal/logx"
	"github.com/freeeve/pgnbook/internal/movetext"
	"github.com/freeeve/pgnbook/internal/rules"
	"github.com/freeeve/pgnbook/internal/store"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var (
		bookPath    = flag.String("book", cfg.Snapshot, "Book snapshot to read")
		fen         = flag.String("fen", "", "Position to pick from (FEN or EPD); default is the start position")
		line        = flag.String("moves", "", "Moves played from the position first, e.g. \"1. e4 e5\"")
		mode        = flag.String("mode", "mixed", "Pick strategy: plays, perf or mixed")
		playsWeight = flag.Int("plays-weight", cfg.PlaysWeight, "Percent of mixed picks made by plays (0-100)")
		count       = flag.Int("count", 1, "Number of picks")
		list        = flag.Bool("list", false, "Print the book moves of the position instead of picking")
		asJSON      = flag.Bool("json", false, "With -list, print the position as JSON")
		ecoDir      = flag.String("eco", cfg.EcoDir, "Directory of ECO .tsv files for opening names")
		logLevel    = flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := logx.NewLogger(*logLevel)

	if *playsWeight < 0 || *playsWeight > 100 {
		logger.Fatal().Int("plays_weight", *playsWeight).Msg("plays-weight must be within 0..100")
	}

	b, meta, err := store.Load(*bookPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *bookPath).Msg("load book")
	}
	logger.Debug().Str("id", meta.ID).Int("positions", meta.Positions).Time("created_at", meta.CreatedAt).Msg("book loaded")

	engine := rules.NewChessEngine(rules.Standard)
	pos := engine.Start()
	if *fen != "" {
		if pos, err = engine.FromFEN(*fen); err != nil {
			logger.Fatal().Err(err).Msg("parse position")
		}
	}
	for san := range movetext.Moves(*line) {
		next, _, err := engine.Apply(pos, san)
		if err != nil {
			logger.Fatal().Err(err).Str("move", san).Msg("play moves")
		}
		pos = next
	}
	epd := engine.EPD(pos)

	var opening *eco.Opening
	if *ecoDir != "" {
		db := eco.NewDatabase()
		if err := db.LoadDir(*ecoDir); err != nil {
			logger.Warn().Err(err).Msg("load eco")
		} else {
			opening = db.Lookup(epd)
		}
	}

	entry := b.Lookup(epd)
	if entry == nil {
		logger.Info().Str("epd", epd).Msg("position not in book")
		os.Exit(2)
	}

	if *list && *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			*book.PositionResponse
			Opening *eco.Opening `json:"opening,omitempty"`
		}{book.ToPositionResponse(entry), opening}); err != nil {
			logger.Fatal().Err(err).Msg("encode")
		}
		return
	}

	if opening != nil {
		fmt.Printf("%s %s\n", opening.ECO, opening.Name)
	}

	if *list {
		fmt.Printf("%-8s %-6s %8s %8s %8s %8s %5s\n", "san", "uci", "plays", "win", "draw", "loss", "perf")
		for _, m := range entry.Sorted() {
			fmt.Printf("%-8s %-6s %8d %8d %8d %8d %5d\n", m.SAN, m.UCI, m.Plays(), m.Win, m.Draw, m.Loss, m.Perf())
		}
		return
	}

	pick := picker(*mode, uint64(*playsWeight))
	if pick == nil {
		logger.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
	for i := 0; i < *count; i++ {
		m := pick(entry)
		if m == nil {
			logger.Info().Str("epd", epd).Str("mode", *mode).Msg("no move with positive weight")
			os.Exit(2)
		}
		fmt.Printf("%s %s plays=%d perf=%d\n", m.UCI, m.SAN, m.Plays(), m.Perf())
	}
}

func picker(mode string, playsWeight uint64) func(*book.Position) *book.Move {
	switch mode {
	case "plays":
		return (*book.Position).RandomByPlays
	case "perf":
		return (*book.Position).RandomByPerf
	case "mixed":
		return func(p *book.Position) *book.Move { return p.RandomMixed(playsWeight) }
	}
	return nil
}
