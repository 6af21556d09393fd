// Package book aggregates replayed games into an opening book: for every
// position reached within the depth limit it counts, per move, how the game
// ended from the point of view of the side that played the move.
package book

import (
	"sort"

	"github.com/freeeve/pgnbook/internal/record"
	"github.com/freeeve/pgnbook/internal/rules"
)

// DefaultMaxDepth is the number of plies absorbed per game unless overridden.
const DefaultMaxDepth = 20

// Outcome is a game result scored for White: 2 win, 1 draw, 0 loss.
type Outcome uint8

const (
	BlackWins Outcome = 0
	Drawn     Outcome = 1
	WhiteWins Outcome = 2
)

// ParseResult scores a Result header. Anything other than a decisive result,
// including "*" and a missing header, counts as a draw.
func ParseResult(result string) Outcome {
	switch result {
	case "1-0":
		return WhiteWins
	case "0-1":
		return BlackWins
	default:
		return Drawn
	}
}

// For returns the outcome seen by the side to move.
func (o Outcome) For(c rules.Color) Outcome {
	if c == rules.White {
		return o
	}
	return 2 - o
}

// Move holds the results of one move from one position.
type Move struct {
	UCI  string
	SAN  string
	Win  uint64
	Draw uint64
	Loss uint64
}

// Plays returns Win+Draw+Loss.
func (m *Move) Plays() uint64 {
	return m.Win + m.Draw + m.Loss
}

// Perf returns the score percentage of the move, rounded down. A move with
// no plays scores 0.
func (m *Move) Perf() uint64 {
	plays := m.Plays()
	if plays == 0 {
		return 0
	}
	return ((2*m.Win + m.Draw) * 50) / plays
}

func (m *Move) add(o Outcome) {
	switch o {
	case WhiteWins:
		m.Win++
	case Drawn:
		m.Draw++
	default:
		m.Loss++
	}
}

// Position is a book entry keyed by EPD. Moves are keyed by UCI.
type Position struct {
	EPD   string
	Moves map[string]*Move
}

// NewPosition returns an empty entry for epd.
func NewPosition(epd string) *Position {
	return &Position{EPD: epd, Moves: make(map[string]*Move)}
}

// move returns the move entry for uci, creating it with san if absent. The
// SAN of an existing entry is never rewritten.
func (p *Position) move(uci, san string) *Move {
	m, ok := p.Moves[uci]
	if !ok {
		m = &Move{UCI: uci, SAN: san}
		p.Moves[uci] = m
	}
	return m
}

// TotalPlays sums Plays over all moves.
func (p *Position) TotalPlays() uint64 {
	var total uint64
	for _, m := range p.Moves {
		total += m.Plays()
	}
	return total
}

// TotalPerf sums Perf over all moves.
func (p *Position) TotalPerf() uint64 {
	var total uint64
	for _, m := range p.Moves {
		total += m.Perf()
	}
	return total
}

// Sorted returns the moves by plays, most played first, ties by UCI.
func (p *Position) Sorted() []*Move {
	out := make([]*Move, 0, len(p.Moves))
	for _, m := range p.Moves {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Plays(), out[j].Plays()
		if pi != pj {
			return pi > pj
		}
		return out[i].UCI < out[j].UCI
	})
	return out
}

// Book maps EPDs to positions.
type Book struct {
	Positions map[string]*Position
	MaxDepth  int
	Me        string // optional player name; empty means unset
}

// Option configures a Book.
type Option func(*Book)

// WithMaxDepth sets the ply cutoff. Negative values are ignored.
func WithMaxDepth(depth int) Option {
	return func(b *Book) {
		if depth >= 0 {
			b.MaxDepth = depth
		}
	}
}

// WithMe records the player whose games are counted per side.
func WithMe(name string) Option {
	return func(b *Book) {
		b.Me = name
	}
}

// New returns an empty book.
func New(opts ...Option) *Book {
	b := &Book{
		Positions: make(map[string]*Position),
		MaxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AbsorbStats describes one absorbed game.
type AbsorbStats struct {
	Plies    int  // moves in the record
	Absorbed int  // moves counted, min(MaxDepth, Plies)
	MeWhite  bool // Me is set and played White
	MeBlack  bool // Me is set and played Black
}

// Absorb adds the first MaxDepth plies of g to the book. It never fails;
// counters already incremented stay incremented.
func (b *Book) Absorb(g record.GameRecord) AbsorbStats {
	stats := AbsorbStats{Plies: len(g.Moves)}
	if b.Me != "" {
		stats.MeWhite = g.Header("White") == b.Me
		stats.MeBlack = g.Header("Black") == b.Me
	}

	result := ParseResult(g.Header("Result"))
	cutoff := min(b.MaxDepth, len(g.Moves))

	for _, mr := range g.Moves[:cutoff] {
		pos := b.position(mr.EPDBefore)
		pos.move(mr.UCI, mr.SAN).add(result.For(rules.SideToMove(mr.EPDBefore)))
	}
	stats.Absorbed = cutoff
	return stats
}

func (b *Book) position(epd string) *Position {
	p, ok := b.Positions[epd]
	if !ok {
		p = NewPosition(epd)
		b.Positions[epd] = p
	}
	return p
}

// Merge adds other's counters into b. other is not modified.
func (b *Book) Merge(other *Book) {
	if other == nil {
		return
	}
	for epd, op := range other.Positions {
		p := b.position(epd)
		for uci, om := range op.Moves {
			m := p.move(uci, om.SAN)
			m.Win += om.Win
			m.Draw += om.Draw
			m.Loss += om.Loss
		}
	}
}

// Lookup returns the entry for epd, or nil.
func (b *Book) Lookup(epd string) *Position {
	return b.Positions[epd]
}

// LookupFEN looks up a full FEN by dropping its move counters. The en
// passant field must match the book's normalization.
func (b *Book) LookupFEN(fen string) *Position {
	return b.Lookup(rules.EPDFromFEN(fen))
}

// NumMoves counts move entries across all positions.
func (b *Book) NumMoves() int {
	n := 0
	for _, p := range b.Positions {
		n += len(p.Moves)
	}
	return n
}
