// Package rules is the boundary to the chess rules engine: legality, position
// encodings and move notations. Callers hold a Position, a variant tag plus an
// opaque handle, and dispatch through the Engine registered for that variant.
package rules

import (
	"errors"
	"strings"
)

var (
	// ErrIllegalMove is returned when a token does not name a legal move.
	ErrIllegalMove = errors.New("rules: illegal or unparsable move")
	// ErrInvalidFEN is returned when a FEN cannot be loaded.
	ErrInvalidFEN = errors.New("rules: invalid FEN")
	// ErrForeignPosition is returned when an engine receives a position it did
	// not create.
	ErrForeignPosition = errors.New("rules: position belongs to another engine")
)

// Position is a game state under a variant. The handle is owned by the engine
// that produced it.
type Position struct {
	Variant Variant
	handle  any
}

// NewPosition wraps an engine-specific handle.
func NewPosition(v Variant, handle any) Position {
	return Position{Variant: v, handle: handle}
}

// Handle returns the engine-specific state.
func (p Position) Handle() any {
	return p.handle
}

// IsZero reports whether p holds no state.
func (p Position) IsZero() bool {
	return p.handle == nil
}

// Played describes a move that was applied.
type Played struct {
	SAN string // short algebraic, without check or annotation suffixes
	UCI string // coordinate form, variant-aware for castling
}

// Engine validates and applies moves for one variant and renders encodings.
type Engine interface {
	Variant() Variant
	Start() Position
	FromFEN(fen string) (Position, error)
	Apply(pos Position, token string) (Position, Played, error)
	FEN(pos Position) string
	EPD(pos Position) string
}

// Color is the side to move.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// SideToMove reads the turn field of an EPD or FEN. Anything other than "w"
// is treated as Black.
func SideToMove(epd string) Color {
	fields := strings.Fields(epd)
	if len(fields) > 1 && fields[1] == "w" {
		return White
	}
	return Black
}

// EPDFromFEN drops the halfmove clock and fullmove number from a FEN.
func EPDFromFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

// Registry maps variants to engines.
type Registry map[Variant]Engine

// DefaultRegistry returns engines for every known variant. Chess960 gets its
// own castling rules. Other variants whose rules the bundled engine cannot
// express share the standard move generator; moves that are illegal under
// standard rules are then rejected.
func DefaultRegistry() Registry {
	r := make(Registry, len(Variants))
	for _, v := range Variants {
		r[v] = NewChessEngine(v)
	}
	r[Chess960] = NewChess960Engine()
	return r
}

// Engine returns the engine for v, falling back to Standard.
func (r Registry) Engine(v Variant) Engine {
	if e, ok := r[v]; ok {
		return e
	}
	if e, ok := r[Standard]; ok {
		return e
	}
	return NewChessEngine(Standard)
}
