package store

import (
	"time"

	"github.com/freeeve/pgnbook/internal/book"
)

// Metadata describes a snapshot. It is stored as JSON ahead of the
// compressed body so it can be read without decoding the book.
type Metadata struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MaxDepth  int       `json:"max_depth"`
	Me        string    `json:"me,omitempty"`
	Games     uint64    `json:"games"`
	Positions int       `json:"positions"`
	Moves     int       `json:"moves"`
	Sources   []string  `json:"sources,omitempty"`

	// Filled from the file header on read.
	CompressedBytes   int64 `json:"-"`
	UncompressedBytes int64 `json:"-"`
}

// fill sets the fields derived from b.
func (m *Metadata) fill(b *book.Book) {
	m.MaxDepth = b.MaxDepth
	m.Me = b.Me
	m.Positions = len(b.Positions)
	m.Moves = b.NumMoves()
}
