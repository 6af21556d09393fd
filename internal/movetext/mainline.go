package movetext

import "iter"

// Source is the sequencing primitive the mainline walker consumes.
type Source interface {
	Next() (Token, bool)
}

// Mainline yields only the moves of the main line. Every side variation is
// declined: its tokens, including nested variations, are skipped. The walk
// stops at a game termination marker on the main line or at the end of text.
type Mainline struct {
	src   Source
	ended bool
}

// NewMainline walks the main line of src.
func NewMainline(src Source) *Mainline {
	return &Mainline{src: src}
}

// Moves returns the main-line move tokens of text.
func Moves(text string) iter.Seq[string] {
	return NewMainline(NewTokenizer(text)).All()
}

// Next returns the next main-line move.
func (m *Mainline) Next() (string, bool) {
	if m.ended {
		return "", false
	}
	depth := 0
	for {
		tok, ok := m.src.Next()
		if !ok {
			m.ended = true
			return "", false
		}
		switch tok.Kind {
		case VariationStart:
			depth++
		case VariationEnd:
			if depth > 0 {
				depth--
			}
		case Result:
			if depth == 0 {
				m.ended = true
				return "", false
			}
		case Move:
			if depth == 0 {
				return tok.Text, true
			}
		}
	}
}

// All ranges over the remaining main-line moves.
func (m *Mainline) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			mv, ok := m.Next()
			if !ok || !yield(mv) {
				return
			}
		}
	}
}
