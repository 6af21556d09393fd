// Package movetext walks the move-text section of a single PGN game.
package movetext

import (
	"strings"
)

// Kind classifies a token.
type Kind uint8

const (
	Move Kind = iota
	VariationStart
	VariationEnd
	Result
)

// Token is one lexical unit of move text. Move tokens have move numbers,
// check marks and annotation glyphs removed.
type Token struct {
	Kind Kind
	Text string
}

// Tokenizer yields tokens from move text. Comments, NAGs, move numbers and
// escape lines are skipped.
type Tokenizer struct {
	text string
	pos  int
}

// NewTokenizer returns a tokenizer over text.
func NewTokenizer(text string) *Tokenizer {
	return &Tokenizer{text: text}
}

// Next returns the next token, or false at the end of the text.
func (t *Tokenizer) Next() (Token, bool) {
	for t.pos < len(t.text) {
		c := t.text[t.pos]
		switch {
		case c == '{':
			t.skipPast('}')
		case c == ';':
			t.skipPast('\n')
		case c == '%' && (t.pos == 0 || t.text[t.pos-1] == '\n'):
			t.skipPast('\n')
		case c == '(':
			t.pos++
			return Token{Kind: VariationStart}, true
		case c == ')':
			t.pos++
			return Token{Kind: VariationEnd}, true
		case isSpace(c) || c == '}':
			t.pos++
		default:
			word := t.word()
			if tok, ok := classify(word); ok {
				return tok, true
			}
		}
	}
	return Token{}, false
}

func (t *Tokenizer) skipPast(end byte) {
	i := strings.IndexByte(t.text[t.pos:], end)
	if i < 0 {
		t.pos = len(t.text)
		return
	}
	t.pos += i + 1
}

func (t *Tokenizer) word() string {
	start := t.pos
	for t.pos < len(t.text) {
		c := t.text[t.pos]
		if isSpace(c) || c == '{' || c == '}' || c == '(' || c == ')' || c == ';' {
			break
		}
		t.pos++
	}
	return t.text[start:t.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func classify(word string) (Token, bool) {
	switch word {
	case "1-0", "0-1", "1/2-1/2", "*":
		return Token{Kind: Result, Text: word}, true
	}
	if word == "" || word[0] == '$' {
		return Token{}, false
	}

	// Move numbers: "12.", "12...", or glued forms such as "12.e4".
	i := 0
	for i < len(word) && word[i] >= '0' && word[i] <= '9' {
		i++
	}
	if i > 0 && i < len(word) && word[i] == '.' {
		word = word[i:]
	} else if i == len(word) {
		return Token{}, false
	}

	word = strings.TrimRight(strings.TrimLeft(word, "."), "+#!?")
	if word == "" {
		return Token{}, false
	}
	return Token{Kind: Move, Text: word}, true
}
