package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Chess960Engine plays Chess960 on top of github.com/notnil/chess.
//
// notnil/chess only knows orthodox castling, so the wrapped position never
// carries castling rights. The engine keeps the rook squares that may still
// castle, generates castling itself and renders it king-takes-rook in UCI.
// Castling fields are read as X-FEN or Shredder-FEN and written as X-FEN.
type Chess960Engine struct{}

// NewChess960Engine returns the Chess960 engine.
func NewChess960Engine() *Chess960Engine {
	return &Chess960Engine{}
}

// chess960Position is the handle of a Chess960 Position.
type chess960Position struct {
	pos     *chess.Position // castling rights always "-"
	castles []chess.Square  // rooks that keep a castling right
}

func (e *Chess960Engine) Variant() Variant {
	return Chess960
}

func (e *Chess960Engine) Start() Position {
	p, _ := e.FromFEN(chess.StartingPosition().String())
	return p
}

func (e *Chess960Engine) FromFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 6:
	default:
		return Position{}, fmt.Errorf("%w: %q has %d fields", ErrInvalidFEN, fen, len(fields))
	}
	castling := fields[2]
	fields[2] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := chess.NewGame(opt).Position()
	castles, err := parseCastling(pos.Board(), castling)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return NewPosition(Chess960, &chess960Position{pos: pos, castles: castles}), nil
}

func (e *Chess960Engine) Apply(p Position, token string) (Position, Played, error) {
	st, err := e.unwrap(p)
	if err != nil {
		return p, Played{}, err
	}

	if king, rook, ok := st.castleFor(token); ok {
		next, err := st.castle(king, rook)
		if err != nil {
			return p, Played{}, fmt.Errorf("%w: %q: %v", ErrIllegalMove, token, err)
		}
		san := "O-O"
		if rook.File() < king.File() {
			san = "O-O-O"
		}
		return NewPosition(Chess960, next), Played{SAN: san, UCI: king.String() + rook.String()}, nil
	}

	m := decodeMove(st.pos, token)
	if m == nil {
		return p, Played{}, fmt.Errorf("%w: %q", ErrIllegalMove, token)
	}
	played := Played{
		SAN: sanOf(st.pos, m),
		UCI: chess.UCINotation{}.Encode(st.pos, m),
	}
	next := &chess960Position{pos: st.pos.Update(m), castles: st.afterMove(m)}
	return NewPosition(Chess960, next), played, nil
}

func (e *Chess960Engine) FEN(p Position) string {
	st, err := e.unwrap(p)
	if err != nil {
		return ""
	}
	fields := strings.Fields(st.pos.String())
	if len(fields) > 2 {
		fields[2] = st.castlingField()
	}
	return strings.Join(fields, " ")
}

func (e *Chess960Engine) EPD(p Position) string {
	st, err := e.unwrap(p)
	if err != nil {
		return ""
	}
	return epdOf(st.pos, st.castlingField())
}

func (e *Chess960Engine) unwrap(p Position) (*chess960Position, error) {
	if p.IsZero() {
		return nil, ErrForeignPosition
	}
	st, ok := p.Handle().(*chess960Position)
	if !ok || st == nil {
		return nil, ErrForeignPosition
	}
	return st, nil
}

// castleFor reports whether token names castling for the side to move and
// returns the king and the rook involved. O-O, O-O-O and king-takes-rook
// coordinates are recognized.
func (st *chess960Position) castleFor(token string) (king, rook chess.Square, ok bool) {
	color := st.pos.Turn()
	rank := backRank(color)
	king, found := kingOn(st.pos.Board(), color, rank)
	if !found {
		return 0, 0, false
	}

	side := 0
	switch normalizeSAN(token) {
	case "O-O":
		side = 1
	case "O-O-O":
		side = -1
	default:
		tok := strings.ToLower(strings.TrimSpace(token))
		if len(tok) != 4 || tok[:2] != king.String() {
			return 0, 0, false
		}
		for _, r := range st.castles {
			if r.Rank() == rank && r.String() == tok[2:] {
				return king, r, true
			}
		}
		return 0, 0, false
	}

	for _, r := range st.castles {
		if r.Rank() == rank && sideOf(r, king) == side {
			return king, r, true
		}
	}
	return 0, 0, false
}

// castle moves the king to the g or c file and the rook next to it on the
// inner side. Every square either piece crosses must be empty apart from the
// two of them, and no square the king stands on or crosses may be attacked.
func (st *chess960Position) castle(king, rook chess.Square) (*chess960Position, error) {
	board := st.pos.Board()
	color := st.pos.Turn()
	rank := king.Rank()

	kingTo, rookTo := square(chess.FileG, rank), square(chess.FileF, rank)
	if rook.File() < king.File() {
		kingTo, rookTo = square(chess.FileC, rank), square(chess.FileD, rank)
	}

	for _, sq := range append(span(king, kingTo), span(rook, rookTo)...) {
		if sq != king && sq != rook && board.Piece(sq) != chess.NoPiece {
			return nil, fmt.Errorf("%s is occupied", sq)
		}
	}

	pieces := board.SquareMap()
	kingPiece, rookPiece := pieces[king], pieces[rook]
	delete(pieces, king)
	delete(pieces, rook)
	for _, sq := range span(king, kingTo) {
		if attacked(pieces, sq, color.Other()) {
			return nil, fmt.Errorf("%s is attacked", sq)
		}
	}
	pieces[kingTo] = kingPiece
	pieces[rookTo] = rookPiece

	// Castling is neither a capture nor a pawn move.
	fields := strings.Fields(st.pos.String())
	halfmove, _ := strconv.Atoi(fields[4])
	fullmove, _ := strconv.Atoi(fields[5])
	if color == chess.Black {
		fullmove++
	}
	fen := fmt.Sprintf("%s %s - - %d %d", chess.NewBoard(pieces).String(), color.Other().String(), halfmove+1, fullmove)
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}

	var castles []chess.Square
	for _, r := range st.castles {
		if r.Rank() != rank {
			castles = append(castles, r)
		}
	}
	return &chess960Position{pos: chess.NewGame(opt).Position(), castles: castles}, nil
}

// afterMove returns the castling rights left after m. A king move gives up
// both rights of its side; a rook that moves or is captured loses its own.
func (st *chess960Position) afterMove(m *chess.Move) []chess.Square {
	moved := st.pos.Board().Piece(m.S1())
	var out []chess.Square
	for _, r := range st.castles {
		if r == m.S1() || r == m.S2() {
			continue
		}
		if moved.Type() == chess.King && r.Rank() == backRank(moved.Color()) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// castlingField renders the rights as X-FEN: K or Q for the outermost rook on
// a side, the rook's file letter otherwise.
func (st *chess960Position) castlingField() string {
	board := st.pos.Board()
	var b strings.Builder
	for _, color := range []chess.Color{chess.White, chess.Black} {
		rank := backRank(color)
		king, ok := kingOn(board, color, rank)
		if !ok {
			continue
		}
		for _, side := range []int{1, -1} {
			for _, r := range st.castles {
				if r.Rank() != rank || sideOf(r, king) != side {
					continue
				}
				letter := byte('K')
				if side < 0 {
					letter = 'Q'
				}
				if outer, _ := outerRook(board, color, king, side); outer != r {
					letter = byte('A' + int(r.File()))
				}
				if color == chess.Black {
					letter += 'a' - 'A'
				}
				b.WriteByte(letter)
			}
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// parseCastling reads an X-FEN or Shredder-FEN castling field into the
// squares of the rooks holding a right.
func parseCastling(board *chess.Board, field string) ([]chess.Square, error) {
	if field == "-" {
		return nil, nil
	}
	var castles []chess.Square
	for _, c := range field {
		color := chess.White
		upper := c
		if c >= 'a' && c <= 'z' {
			color = chess.Black
			upper = c - 'a' + 'A'
		}
		rank := backRank(color)
		king, ok := kingOn(board, color, rank)
		if !ok {
			return nil, fmt.Errorf("castling %q: no king on the back rank", field)
		}

		var rook chess.Square
		found := false
		switch {
		case upper == 'K':
			rook, found = outerRook(board, color, king, 1)
		case upper == 'Q':
			rook, found = outerRook(board, color, king, -1)
		case upper >= 'A' && upper <= 'H':
			rook = square(chess.File(upper-'A'), rank)
			p := board.Piece(rook)
			found = p.Type() == chess.Rook && p.Color() == color && rook != king
		}
		if !found {
			return nil, fmt.Errorf("castling %q: no rook for %q", field, c)
		}

		dup := false
		for _, r := range castles {
			dup = dup || r == rook
		}
		if !dup {
			castles = append(castles, rook)
		}
	}
	return castles, nil
}

func backRank(c chess.Color) chess.Rank {
	if c == chess.Black {
		return chess.Rank8
	}
	return chess.Rank1
}

func square(f chess.File, r chess.Rank) chess.Square {
	return chess.Square(int(r)*8 + int(f))
}

func kingOn(board *chess.Board, c chess.Color, rank chess.Rank) (chess.Square, bool) {
	for f := chess.FileA; f <= chess.FileH; f++ {
		sq := square(f, rank)
		if p := board.Piece(sq); p.Type() == chess.King && p.Color() == c {
			return sq, true
		}
	}
	return 0, false
}

// outerRook finds the rook of color c farthest from the king on the given
// side of it (1 towards the h-file, -1 towards the a-file).
func outerRook(board *chess.Board, c chess.Color, king chess.Square, side int) (chess.Square, bool) {
	edge := chess.FileH
	if side < 0 {
		edge = chess.FileA
	}
	for f := int(edge); f != int(king.File()); f -= side {
		sq := square(chess.File(f), king.Rank())
		if p := board.Piece(sq); p.Type() == chess.Rook && p.Color() == c {
			return sq, true
		}
	}
	return 0, false
}

func sideOf(rook, king chess.Square) int {
	if rook.File() > king.File() {
		return 1
	}
	return -1
}

// span lists the squares of a rank from a to b inclusive.
func span(a, b chess.Square) []chess.Square {
	lo, hi := a.File(), b.File()
	if lo > hi {
		lo, hi = hi, lo
	}
	var out []chess.Square
	for f := lo; f <= hi; f++ {
		out = append(out, square(f, a.Rank()))
	}
	return out
}

var (
	knightSteps   = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps     = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	straightSteps = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalSteps = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// attacked reports whether a piece of color by attacks sq on the board given
// as a square map.
func attacked(pieces map[chess.Square]chess.Piece, sq chess.Square, by chess.Color) bool {
	file, rank := int(sq.File()), int(sq.Rank())
	at := func(df, dr int) (chess.Piece, bool) {
		f, r := file+df, rank+dr
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece, false
		}
		return pieces[square(chess.File(f), chess.Rank(r))], true
	}
	is := func(p chess.Piece, types ...chess.PieceType) bool {
		if p == chess.NoPiece || p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// A white pawn attacks from one rank below, a black pawn from one above.
	pawnRank := -1
	if by == chess.Black {
		pawnRank = 1
	}
	for _, df := range []int{-1, 1} {
		if p, ok := at(df, pawnRank); ok && is(p, chess.Pawn) {
			return true
		}
	}
	for _, s := range knightSteps {
		if p, ok := at(s[0], s[1]); ok && is(p, chess.Knight) {
			return true
		}
	}
	for _, s := range kingSteps {
		if p, ok := at(s[0], s[1]); ok && is(p, chess.King) {
			return true
		}
	}
	slide := func(steps [][2]int, types ...chess.PieceType) bool {
		for _, s := range steps {
			for i := 1; ; i++ {
				p, ok := at(s[0]*i, s[1]*i)
				if !ok {
					break
				}
				if p == chess.NoPiece {
					continue
				}
				if is(p, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(straightSteps, chess.Rook, chess.Queen) || slide(diagonalSteps, chess.Bishop, chess.Queen)
}
