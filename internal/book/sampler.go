package book

import (
	"math/rand/v2"
)

// Source supplies uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Uint64N(n uint64) uint64
}

type globalSource struct{}

func (globalSource) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

// DefaultSource draws from the math/rand/v2 global generator and is safe for
// concurrent use.
var DefaultSource Source = globalSource{}

// RandomByPlays picks a move with probability proportional to its plays.
// It returns nil when the position has no plays.
func (p *Position) RandomByPlays() *Move {
	return p.ByPlays(DefaultSource)
}

// RandomByPerf picks a move with probability proportional to its perf.
// It returns nil when every move scores 0.
func (p *Position) RandomByPerf() *Move {
	return p.ByPerf(DefaultSource)
}

// RandomMixed draws r in [0,100) and picks by plays when r <= playsWeight, by
// perf otherwise. A weight of 0 still goes by plays when r is 0.
func (p *Position) RandomMixed(playsWeight uint64) *Move {
	return p.Mixed(DefaultSource, playsWeight)
}

// ByPlays is RandomByPlays drawing from src.
func (p *Position) ByPlays(src Source) *Move {
	return p.pick(src, p.TotalPlays(), (*Move).Plays)
}

// ByPerf is RandomByPerf drawing from src.
func (p *Position) ByPerf(src Source) *Move {
	return p.pick(src, p.TotalPerf(), (*Move).Perf)
}

// Mixed is RandomMixed drawing from src.
func (p *Position) Mixed(src Source, playsWeight uint64) *Move {
	if src.Uint64N(100) <= playsWeight {
		return p.ByPlays(src)
	}
	return p.ByPerf(src)
}

// pick walks the moves in map order and returns the first whose running
// weight reaches r. The comparison is >=, so a move whose cumulative weight
// equals r wins and r == 0 can select a zero-weight move that comes first.
func (p *Position) pick(src Source, total uint64, weight func(*Move) uint64) *Move {
	if total == 0 {
		return nil
	}
	r := src.Uint64N(total)
	var acc uint64
	for _, m := range p.Moves {
		acc += weight(m)
		if acc >= r {
			return m
		}
	}
	return nil
}
