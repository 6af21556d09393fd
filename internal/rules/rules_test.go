package rules

import (
	"errors"
	"strings"
	"testing"
)

const startEPD = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

func TestParseVariant(t *testing.T) {
	tests := []struct {
		name string
		want Variant
	}{
		{"Standard", Standard},
		{"King of the Hill", KingOfTheHill},
		{"KOTH", KingOfTheHill},
		{"kingofthehill", KingOfTheHill},
		{"Chess960", Chess960},
		{"chess 960", Chess960},
		{"Give Away", Antichess},
		{"3check", ThreeCheck},
		{"Three Check", ThreeCheck},
		{"From Position", FromPosition},
		{"Racing Kings", RacingKings},
		{"Crazy House", Crazyhouse},
		{"horde", Horde},
		{"atomic", Atomic},
		{"bughouse", Standard},
		{"", Standard},
	}
	for _, tt := range tests {
		if got := ParseVariant(tt.name); got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSideToMove(t *testing.T) {
	if SideToMove(startEPD) != White {
		t.Error("start position should be white to move")
	}
	if SideToMove("8/8/8/8/8/7k/8/7K b - -") != Black {
		t.Error("expected black to move")
	}
	if SideToMove("garbage") != Black {
		t.Error("malformed encodings count as black")
	}
}

func TestEPDFromFEN(t *testing.T) {
	got := EPDFromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if got != startEPD {
		t.Errorf("EPDFromFEN = %q", got)
	}
	if got := EPDFromFEN(startEPD); got != startEPD {
		t.Errorf("EPD passthrough = %q", got)
	}
}

func TestChessEngine_StartAndApply(t *testing.T) {
	e := NewChessEngine(Standard)
	pos := e.Start()

	if got := e.EPD(pos); got != startEPD {
		t.Fatalf("start EPD = %q", got)
	}
	if got := e.FEN(pos); got != startEPD+" 0 1" {
		t.Errorf("start FEN = %q", got)
	}

	next, played, err := e.Apply(pos, "e4")
	if err != nil {
		t.Fatalf("Apply(e4): %v", err)
	}
	if played.SAN != "e4" || played.UCI != "e2e4" {
		t.Errorf("played = %+v", played)
	}
	wantEPD := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"
	if got := e.EPD(next); got != wantEPD {
		t.Errorf("EPD after e4 = %q, want %q", got, wantEPD)
	}
	if !strings.HasPrefix(e.FEN(next), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq") {
		t.Errorf("FEN after e4 = %q", e.FEN(next))
	}
	// The input position is untouched.
	if got := e.EPD(pos); got != startEPD {
		t.Errorf("start EPD changed to %q", got)
	}
}

func TestChessEngine_Notations(t *testing.T) {
	e := NewChessEngine(Standard)
	tests := []struct {
		token string
		san   string
		uci   string
	}{
		{"Nf3", "Nf3", "g1f3"},
		{"Nf3+", "Nf3", "g1f3"},
		{"Nf3!?", "Nf3", "g1f3"},
		{"Ngf3", "Nf3", "g1f3"},
		{"g1f3", "Nf3", "g1f3"},
		{"d4", "d4", "d2d4"},
	}
	for _, tt := range tests {
		_, played, err := e.Apply(e.Start(), tt.token)
		if err != nil {
			t.Errorf("Apply(%q): %v", tt.token, err)
			continue
		}
		if played.SAN != tt.san || played.UCI != tt.uci {
			t.Errorf("Apply(%q) = %+v, want {%s %s}", tt.token, played, tt.san, tt.uci)
		}
	}
}

func TestChessEngine_IllegalMove(t *testing.T) {
	e := NewChessEngine(Standard)
	pos := e.Start()
	for _, tok := range []string{"e5", "Ke2", "Nf6", "zz", "", "--"} {
		got, _, err := e.Apply(pos, tok)
		if !errors.Is(err, ErrIllegalMove) {
			t.Errorf("Apply(%q) err = %v, want ErrIllegalMove", tok, err)
		}
		if e.EPD(got) != startEPD {
			t.Errorf("Apply(%q) moved the position", tok)
		}
	}
}

func TestChessEngine_EnPassantKey(t *testing.T) {
	e := NewChessEngine(Standard)
	pos := e.Start()
	for _, tok := range []string{"e4", "Nf6", "e5", "d5"} {
		var err error
		pos, _, err = e.Apply(pos, tok)
		if err != nil {
			t.Fatalf("Apply(%s): %v", tok, err)
		}
	}
	want := "rnbqkb1r/ppp1pppp/5n2/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6"
	if got := e.EPD(pos); got != want {
		t.Errorf("EPD = %q, want %q", got, want)
	}

	_, played, err := e.Apply(pos, "exd6")
	if err != nil {
		t.Fatalf("exd6: %v", err)
	}
	if played.UCI != "e5d6" {
		t.Errorf("exd6 UCI = %s", played.UCI)
	}
}

func TestChessEngine_Castling(t *testing.T) {
	const fen = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	tests := []struct {
		variant Variant
		token   string
		uci     string
	}{
		{Standard, "O-O", "e1g1"},
		{Standard, "0-0-0", "e1c1"},
		{Chess960, "O-O", "e1h1"},
		{Chess960, "O-O-O", "e1a1"},
	}
	r := DefaultRegistry()
	for _, tt := range tests {
		e := r.Engine(tt.variant)
		pos, err := e.FromFEN(fen)
		if err != nil {
			t.Fatalf("FromFEN: %v", err)
		}
		_, played, err := e.Apply(pos, tt.token)
		if err != nil {
			t.Errorf("%v %s: %v", tt.variant, tt.token, err)
			continue
		}
		if played.UCI != tt.uci {
			t.Errorf("%v %s: UCI = %s, want %s", tt.variant, tt.token, played.UCI, tt.uci)
		}
		if !strings.HasPrefix(played.SAN, "O-O") {
			t.Errorf("%v %s: SAN = %s", tt.variant, tt.token, played.SAN)
		}
	}
}

func TestChessEngine_Promotion(t *testing.T) {
	e := NewChessEngine(Standard)
	pos, err := e.FromFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range []string{"a8=Q", "a8Q", "a7a8q"} {
		_, played, err := e.Apply(pos, tok)
		if err != nil {
			t.Errorf("Apply(%q): %v", tok, err)
			continue
		}
		if played.UCI != "a7a8q" || played.SAN != "a8=Q" {
			t.Errorf("Apply(%q) = %+v, want {a8=Q a7a8q}", tok, played)
		}
	}

	// Check marks are dropped from the stored SAN, the promotion mark is not.
	pos, err = e.FromFEN("8/P7/8/8/8/8/8/k6K w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	_, played, err := e.Apply(pos, "a8=Q+")
	if err != nil {
		t.Fatal(err)
	}
	if played.SAN != "a8=Q" {
		t.Errorf("SAN = %q, want a8=Q", played.SAN)
	}
}

func TestChessEngine_FromFEN(t *testing.T) {
	e := NewChessEngine(Atomic)
	pos, err := e.FromFEN("8/8/8/8/8/7k/8/7K w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if pos.Variant != Atomic {
		t.Errorf("variant = %v", pos.Variant)
	}
	if got := e.EPD(pos); got != "8/8/8/8/8/7k/8/7K w - -" {
		t.Errorf("EPD = %q", got)
	}

	if _, err := e.FromFEN(startEPD); err != nil {
		t.Errorf("four-field FEN rejected: %v", err)
	}
	for _, bad := range []string{"", "not a fen", "8/8/8 w - - 0"} {
		if _, err := e.FromFEN(bad); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("FromFEN(%q) err = %v, want ErrInvalidFEN", bad, err)
		}
	}
}

func TestChessEngine_ForeignPosition(t *testing.T) {
	e := NewChessEngine(Standard)
	if _, _, err := e.Apply(Position{}, "e4"); !errors.Is(err, ErrForeignPosition) {
		t.Errorf("err = %v", err)
	}
	if e.EPD(NewPosition(Standard, "nope")) != "" {
		t.Error("EPD of foreign handle should be empty")
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, v := range Variants {
		if got := r.Engine(v).Variant(); got != v {
			t.Errorf("Engine(%v).Variant() = %v", v, got)
		}
	}
	if got := (Registry{}).Engine(Horde).Variant(); got != Standard {
		t.Errorf("empty registry fallback = %v", got)
	}
}

func TestChess960_CastlingFromAnyStart(t *testing.T) {
	const (
		start = "nrbbqkrn/pppppppp/8/8/8/8/PPPPPPPP/NRBBQKRN w KQkq - 0 1"
		epd   = "nrbbqkrn/pppppppp/8/8/8/8/PPPPPPPP/NRBBQKRN w KQkq -"
	)
	e := NewChess960Engine()

	for _, fen := range []string{start, strings.Replace(start, "KQkq", "GBgb", 1)} {
		pos, err := e.FromFEN(fen)
		if err != nil {
			t.Fatalf("FromFEN(%q): %v", fen, err)
		}
		if got := e.EPD(pos); got != epd {
			t.Errorf("EPD of %q = %q, want %q", fen, got, epd)
		}
		if got := e.FEN(pos); got != start {
			t.Errorf("FEN of %q = %q", fen, got)
		}

		if _, _, err := e.Apply(pos, "O-O-O"); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("O-O-O through occupied squares: err = %v", err)
		}

		var ucis []string
		for _, tok := range []string{"O-O", "O-O", "a3"} {
			next, played, err := e.Apply(pos, tok)
			if err != nil {
				t.Fatalf("Apply(%s) at %q: %v", tok, e.EPD(pos), err)
			}
			ucis = append(ucis, played.UCI)
			pos = next
		}
		if strings.Join(ucis, " ") != "f1g1 f8g8 a2a3" {
			t.Errorf("ucis = %v", ucis)
		}
		if got, want := e.EPD(pos), "nrbbqrkn/pppppppp/8/8/8/P7/1PPPPPPP/NRBBQRKN b - -"; got != want {
			t.Errorf("EPD = %q, want %q", got, want)
		}
		if got := e.FEN(pos); !strings.HasSuffix(got, " - - 0 2") {
			t.Errorf("FEN = %q", got)
		}
	}
}

func TestChess960_InnerRook(t *testing.T) {
	e := NewChess960Engine()
	pos, err := e.FromFEN("4k3/8/8/8/8/8/8/RR2K3 w B - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.EPD(pos); got != "4k3/8/8/8/8/8/8/RR2K3 w B -" {
		t.Errorf("EPD = %q", got)
	}
	next, played, err := e.Apply(pos, "e1b1")
	if err != nil {
		t.Fatal(err)
	}
	if played.SAN != "O-O-O" || played.UCI != "e1b1" {
		t.Errorf("played = %+v", played)
	}
	if got := e.EPD(next); got != "4k3/8/8/8/8/8/8/R1KR4 b - -" {
		t.Errorf("EPD = %q", got)
	}
}

func TestChess960_Rights(t *testing.T) {
	e := NewChess960Engine()
	pos, err := e.FromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"r3k2r/8/8/8/8/8/8/1R2K2R b Kkq -",
		"r2k3r/8/8/8/8/8/8/1R2K2R w K -",
	}
	for i, tok := range []string{"Rb1", "Kd8"} {
		pos, _, err = e.Apply(pos, tok)
		if err != nil {
			t.Fatalf("Apply(%s): %v", tok, err)
		}
		if got := e.EPD(pos); got != want[i] {
			t.Errorf("after %s EPD = %q, want %q", tok, got, want[i])
		}
	}

	// The king may not cross an attacked square.
	pos, err = e.FromFEN("r3kr2/8/8/8/8/8/8/R3K2R w KQq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Apply(pos, "O-O"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("O-O across f1: err = %v", err)
	}
	if _, played, err := e.Apply(pos, "O-O-O"); err != nil || played.UCI != "e1a1" {
		t.Errorf("O-O-O = %+v, %v", played, err)
	}
}

func TestChess960_StartAndBadFEN(t *testing.T) {
	e := NewChess960Engine()
	if got := e.EPD(e.Start()); got != startEPD {
		t.Errorf("start EPD = %q", got)
	}
	for _, bad := range []string{"4k3/8/8/8/8/8/8/4K3 w K - 0 1", "4k3/8/8/8/8/8/8/4K3 w Z - 0 1", "8/8 w"} {
		if _, err := e.FromFEN(bad); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("FromFEN(%q) err = %v, want ErrInvalidFEN", bad, err)
		}
	}
	if _, _, err := e.Apply(NewChessEngine(Standard).Start(), "e4"); !errors.Is(err, ErrForeignPosition) {
		t.Errorf("foreign position err = %v", err)
	}
}
