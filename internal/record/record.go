// Package record turns the text of one PGN game into headers plus a list of
// per-ply move records carrying notations and position encodings.
package record

import (
	"encoding/json"
)

// MissingHeader is returned by Header for absent keys.
const MissingHeader = "?"

// MoveRecord is one ply.
type MoveRecord struct {
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	FENBefore string `json:"fen_before"`
	EPDBefore string `json:"epd_before"`
	FENAfter  string `json:"fen_after"`
	EPDAfter  string `json:"epd_after"`
}

// GameRecord holds a game's headers and its main-line moves.
type GameRecord struct {
	Headers map[string]string `json:"headers"`
	Moves   []MoveRecord      `json:"moves"`
}

// NewGameRecord returns an empty record.
func NewGameRecord() GameRecord {
	return GameRecord{
		Headers: make(map[string]string),
		Moves:   []MoveRecord{},
	}
}

// Header returns the value for key, or "?" when absent.
func (g GameRecord) Header(key string) string {
	if v, ok := g.Headers[key]; ok {
		return v
	}
	return MissingHeader
}

// ToJSON encodes g. Encoding failures yield "".
func ToJSON(g GameRecord) string {
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return string(data)
}

// FromJSON decodes a record produced by ToJSON. Malformed input yields an
// empty record.
func FromJSON(s string) GameRecord {
	g := NewGameRecord()
	if err := json.Unmarshal([]byte(s), &g); err != nil {
		return NewGameRecord()
	}
	if g.Headers == nil {
		g.Headers = make(map[string]string)
	}
	if g.Moves == nil {
		g.Moves = []MoveRecord{}
	}
	return g
}
