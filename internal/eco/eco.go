// Package eco provides ECO (Encyclopedia of Chess Openings) lookup.
package eco

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/freeeve/pgnbook/internal/movetext"
	"github.com/freeeve/pgnbook/internal/rules"
)

// Opening represents an ECO opening classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// Database holds ECO opening data indexed by EPD.
type Database struct {
	byPosition map[string]Opening
	engine     rules.Engine
	count      int
	skipped    int
}

// NewDatabase creates an empty ECO database that replays lines with the
// standard rules engine.
func NewDatabase() *Database {
	return &Database{
		byPosition: make(map[string]Opening),
		engine:     rules.NewChessEngine(rules.Standard),
	}
}

// LoadDir loads all .tsv files from a directory.
func (db *Database) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .tsv files found in %s", dir)
	}

	for _, file := range files {
		if err := db.LoadFile(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile loads a single TSV file with columns eco, name, pgn.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip header
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		epd, err := db.replay(parts[2])
		if err != nil {
			db.skipped++
			continue
		}
		db.byPosition[epd] = Opening{ECO: parts[0], Name: parts[1]}
		db.count++
	}

	return scanner.Err()
}

// replay plays a move list like "1. e4 e5 2. Nf3 Nc6" from the start and
// returns the EPD reached. Unlike game import, any illegal move rejects the
// whole line.
func (db *Database) replay(moveText string) (string, error) {
	pos := db.engine.Start()
	for san := range movetext.Moves(moveText) {
		next, _, err := db.engine.Apply(pos, san)
		if err != nil {
			return "", fmt.Errorf("apply %q: %w", san, err)
		}
		pos = next
	}
	return db.engine.EPD(pos), nil
}

// Lookup returns the ECO opening for an EPD, or nil if not found.
func (db *Database) Lookup(epd string) *Opening {
	if o, ok := db.byPosition[epd]; ok {
		return &o
	}
	return nil
}

// LookupFEN returns the ECO opening for a full FEN.
func (db *Database) LookupFEN(fen string) *Opening {
	return db.Lookup(rules.EPDFromFEN(fen))
}

// Count returns the number of openings loaded.
func (db *Database) Count() int {
	return db.count
}

// Skipped returns the number of lines rejected for illegal moves.
func (db *Database) Skipped() int {
	return db.skipped
}
