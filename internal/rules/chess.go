package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notnil/chess"
)

// ChessEngine implements Engine on top of github.com/notnil/chess with
// orthodox rules, castling included. Chess960 games need Chess960Engine.
type ChessEngine struct {
	variant Variant
}

// NewChessEngine returns an engine that tags its positions with v.
func NewChessEngine(v Variant) *ChessEngine {
	return &ChessEngine{variant: v}
}

func (e *ChessEngine) Variant() Variant {
	return e.variant
}

func (e *ChessEngine) Start() Position {
	return NewPosition(e.variant, chess.StartingPosition())
}

// FromFEN loads a full FEN. A four-field EPD is accepted and given zeroed
// move counters.
func (e *ChessEngine) FromFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 6:
	default:
		return Position{}, fmt.Errorf("%w: %q has %d fields", ErrInvalidFEN, fen, len(fields))
	}
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return NewPosition(e.variant, chess.NewGame(opt).Position()), nil
}

func (e *ChessEngine) Apply(p Position, token string) (Position, Played, error) {
	pos, err := e.unwrap(p)
	if err != nil {
		return p, Played{}, err
	}
	m := decodeMove(pos, token)
	if m == nil {
		return p, Played{}, fmt.Errorf("%w: %q", ErrIllegalMove, token)
	}
	played := Played{
		SAN: sanOf(pos, m),
		UCI: chess.UCINotation{}.Encode(pos, m),
	}
	return NewPosition(e.variant, pos.Update(m)), played, nil
}

func (e *ChessEngine) FEN(p Position) string {
	pos, err := e.unwrap(p)
	if err != nil {
		return ""
	}
	return pos.String()
}

// EPD renders board, side to move, castling rights and the en passant square.
// The en passant square is only kept when a capture on it is legal, so that
// transpositions share a key.
func (e *ChessEngine) EPD(p Position) string {
	pos, err := e.unwrap(p)
	if err != nil {
		return ""
	}
	return epdOf(pos, pos.CastleRights().String())
}

func (e *ChessEngine) unwrap(p Position) (*chess.Position, error) {
	if p.IsZero() {
		return nil, ErrForeignPosition
	}
	pos, ok := p.Handle().(*chess.Position)
	if !ok || pos == nil {
		return nil, ErrForeignPosition
	}
	return pos, nil
}

// epdOf renders pos with the given castling field.
func epdOf(pos *chess.Position, castle string) string {
	ep := "-"
	if sq := pos.EnPassantSquare(); sq != chess.NoSquare && hasEnPassantCapture(pos) {
		ep = sq.String()
	}
	if castle == "" {
		castle = "-"
	}
	return fmt.Sprintf("%s %s %s %s", pos.Board().String(), pos.Turn().String(), castle, ep)
}

// sanOf is the SAN of m as stored in records: promotion marks are kept,
// check and mate marks are not.
func sanOf(pos *chess.Position, m *chess.Move) string {
	return strings.TrimRight(chess.AlgebraicNotation{}.Encode(pos, m), "+#")
}

// decodeMove finds the legal move named by token. Exact SAN is tried first,
// then a lenient SAN match (extra disambiguation, missing capture mark), then
// coordinate notation.
func decodeMove(pos *chess.Position, token string) *chess.Move {
	want := normalizeSAN(token)
	if want == "" {
		return nil
	}
	moves := pos.ValidMoves()
	for _, m := range moves {
		if normalizeSAN(chess.AlgebraicNotation{}.Encode(pos, m)) == want {
			return m
		}
	}
	if m := lenientSAN(pos, moves, want); m != nil {
		return m
	}
	lower := strings.ToLower(want)
	for _, m := range moves {
		if (chess.UCINotation{}).Encode(pos, m) == lower {
			return m
		}
	}
	return nil
}

// sanSuffix strips the marks that do not take part in matching a token to a
// move. The result is a comparison key only, never a stored SAN.
var sanSuffix = strings.NewReplacer("+", "", "#", "", "!", "", "?", "", "=", "", "e.p.", "")

func normalizeSAN(s string) string {
	s = sanSuffix.Replace(strings.TrimSpace(s))
	switch s {
	case "0-0", "o-o":
		return "O-O"
	case "0-0-0", "o-o-o":
		return "O-O-O"
	}
	return s
}

var sanPattern = regexp.MustCompile(`^([NBRQK])?([a-h])?([1-8])?x?([a-h][1-8])([NBRQnbrq])?$`)

var sanPieces = map[string]chess.PieceType{
	"":  chess.Pawn,
	"N": chess.Knight,
	"B": chess.Bishop,
	"R": chess.Rook,
	"Q": chess.Queen,
	"K": chess.King,
}

var sanPromos = map[string]chess.PieceType{
	"":  chess.NoPieceType,
	"N": chess.Knight,
	"B": chess.Bishop,
	"R": chess.Rook,
	"Q": chess.Queen,
}

func lenientSAN(pos *chess.Position, moves []*chess.Move, san string) *chess.Move {
	parts := sanPattern.FindStringSubmatch(san)
	if parts == nil {
		return nil
	}
	piece := sanPieces[parts[1]]
	fromFile, fromRank, to := parts[2], parts[3], parts[4]
	promo := sanPromos[strings.ToUpper(parts[5])]

	var found *chess.Move
	for _, m := range moves {
		if m.S2().String() != to || m.Promo() != promo {
			continue
		}
		if pos.Board().Piece(m.S1()).Type() != piece {
			continue
		}
		from := m.S1().String()
		if fromFile != "" && from[:1] != fromFile {
			continue
		}
		if fromRank != "" && from[1:] != fromRank {
			continue
		}
		if found != nil {
			return nil // still ambiguous
		}
		found = m
	}
	return found
}

func hasEnPassantCapture(pos *chess.Position) bool {
	for _, m := range pos.ValidMoves() {
		if m.HasTag(chess.EnPassant) {
			return true
		}
	}
	return false
}
