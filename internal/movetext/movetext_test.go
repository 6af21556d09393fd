package movetext

import (
	"reflect"
	"slices"
	"testing"
)

func TestTokenizer_Kinds(t *testing.T) {
	tok := NewTokenizer("1. e4 (1. d4 d5) e5 $1 {a comment} 2.Nf3!? 1-0")
	var got []Token
	for {
		tk, ok := tok.Next()
		if !ok {
			break
		}
		got = append(got, tk)
	}
	want := []Token{
		{Kind: Move, Text: "e4"},
		{Kind: VariationStart},
		{Kind: Move, Text: "d4"},
		{Kind: Move, Text: "d5"},
		{Kind: VariationEnd},
		{Kind: Move, Text: "e5"},
		{Kind: Move, Text: "Nf3"},
		{Kind: Result, Text: "1-0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens =\n%+v\nwant\n%+v", got, want)
	}
}

func TestMoves(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "1. e4 e5 2. Nf3 Nc6 *", []string{"e4", "e5", "Nf3", "Nc6"}},
		{"black move number", "12... Qxd4+ 13. Kh1 0-1", []string{"Qxd4", "Kh1"}},
		{"nested variations", "1. e4 (1. d4 (1. c4 c5) d5) 1... c5 (1... e5 2. Nf3) 2. Nf3 *",
			[]string{"e4", "c5", "Nf3"}},
		{"comments", "1. e4 {[%clk 0:03:00] (not a variation)} e5 ; rest of line (ignored\n2. Nc3 *",
			[]string{"e4", "e5", "Nc3"}},
		{"escape line", "% engine output\n1. d4 *", []string{"d4"}},
		{"stops at result", "1. e4 e5 1/2-1/2 2. Nf3", []string{"e4", "e5"}},
		{"no result", "1. e4 e5", []string{"e4", "e5"}},
		{"castling zeros", "1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 4. 0-0 *", []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5", "0-0"}},
		{"result inside variation", "1. e4 (1. d4 1-0) e5 *", []string{"e4", "e5"}},
		{"stray close paren", "1. e4 ) e5 *", []string{"e4", "e5"}},
		{"annotation glyphs", "1. e4 !! e5 ?! *", []string{"e4", "e5"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Moves(tt.text))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Moves(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestMainline_EndIsSticky(t *testing.T) {
	m := NewMainline(NewTokenizer("1. e4 * 2. d4"))
	if mv, ok := m.Next(); !ok || mv != "e4" {
		t.Fatalf("first = %q, %v", mv, ok)
	}
	for i := 0; i < 3; i++ {
		if _, ok := m.Next(); ok {
			t.Fatal("mainline resumed after game end")
		}
	}
}

type fixedSource struct {
	toks []Token
}

func (f *fixedSource) Next() (Token, bool) {
	if len(f.toks) == 0 {
		return Token{}, false
	}
	tk := f.toks[0]
	f.toks = f.toks[1:]
	return tk, true
}

func TestMainline_CustomSource(t *testing.T) {
	src := &fixedSource{toks: []Token{
		{Kind: Move, Text: "e4"},
		{Kind: VariationStart},
		{Kind: Move, Text: "d4"},
		{Kind: VariationEnd},
		{Kind: Move, Text: "c5"},
	}}
	got := slices.Collect(NewMainline(src).All())
	if !slices.Equal(got, []string{"e4", "c5"}) {
		t.Errorf("got %q", got)
	}
}
