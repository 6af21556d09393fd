// Package pgnfile splits PGN text streams into per-game records and opens
// plain or compressed PGN archives.
package pgnfile

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// DefaultMaxLineSize bounds a single input line. Some archives carry very long
// move-text lines with clock comments.
const DefaultMaxLineSize = 1 << 20

// ErrMissingHeader reports that a game did not start with a header line. The
// segmenter stops at that point; Next reports plain exhaustion and Err returns
// this error so callers can tell it apart from a clean end of input.
var ErrMissingHeader = errors.New("pgnfile: game does not start with a header line")

type readState int

const (
	waitHead readState = iota
	readHead
	waitBody
	readBody
)

// Segmenter yields the raw text of one game per call to Next.
//
// Each call runs a fresh header/body state machine; only the read position in
// the underlying stream carries over. A Segmenter must not be shared between
// goroutines.
type Segmenter struct {
	lines *bufio.Scanner
	err   error
	done  bool
}

// NewSegmenter reads lines from r with DefaultMaxLineSize.
func NewSegmenter(r io.Reader) *Segmenter {
	return NewSegmenterSize(r, DefaultMaxLineSize)
}

// NewSegmenterSize reads lines from r, accepting lines up to maxLine bytes.
func NewSegmenterSize(r io.Reader, maxLine int) *Segmenter {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Segmenter{lines: sc}
}

// Next returns the text of the next game. The returned text holds the header
// lines, the blank separator and the move-text lines, each terminated by a
// newline; the blank line that closed the game is not included.
func (s *Segmenter) Next() (string, bool) {
	if s.done {
		return "", false
	}

	state := waitHead
	var accum strings.Builder

	for {
		if !s.lines.Scan() {
			s.done = true
			if err := s.lines.Err(); err != nil {
				s.err = err
				return "", false
			}
			if state == readBody {
				return accum.String(), true
			}
			return "", false
		}

		line := strings.TrimRight(s.lines.Text(), "\r")
		if line == "" {
			switch state {
			case readBody:
				return accum.String(), true
			case waitHead:
			case readHead:
				accum.WriteString("\n")
				state = waitBody
			default:
				accum.WriteString("\n")
			}
			continue
		}

		switch state {
		case waitHead:
			if line[0] != '[' {
				s.done = true
				s.err = ErrMissingHeader
				return "", false
			}
			accum.WriteString(line)
			accum.WriteString("\n")
			state = readHead
		case waitBody:
			accum.WriteString(line)
			accum.WriteString("\n")
			state = readBody
		default:
			accum.WriteString(line)
			accum.WriteString("\n")
		}
	}
}

// Err returns the first read error, or ErrMissingHeader when segmentation
// stopped on a malformed game start. It is nil after a clean end of input.
func (s *Segmenter) Err() error {
	return s.err
}

// Games ranges over the remaining games.
func (s *Segmenter) Games() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			game, ok := s.Next()
			if !ok || !yield(game) {
				return
			}
		}
	}
}
