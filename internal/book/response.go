package book

// PositionResponse is the JSON-friendly view of a book position.
type PositionResponse struct {
	EPD   string         `json:"epd"`
	Plays uint64         `json:"plays"`
	Perf  uint64         `json:"perf"`
	Moves []MoveResponse `json:"moves"`
}

type MoveResponse struct {
	SAN    string  `json:"san"` // SAN as first seen (e.g., "e4", "Nf3")
	UCI    string  `json:"uci"` // UCI notation (e.g., "e2e4")
	Count  uint64  `json:"count"`
	Wins   uint64  `json:"wins"`
	Draws  uint64  `json:"draws"`
	Losses uint64  `json:"losses"`
	Perf   uint64  `json:"perf"`
	WinPct float64 `json:"win_pct,omitempty"` // Win percentage (0-100)
}

// ToPositionResponse converts a position to its JSON view with moves in
// Sorted order.
func ToPositionResponse(p *Position) *PositionResponse {
	if p == nil {
		return nil
	}

	resp := &PositionResponse{
		EPD:   p.EPD,
		Plays: p.TotalPlays(),
		Perf:  p.TotalPerf(),
		Moves: make([]MoveResponse, 0, len(p.Moves)),
	}

	for _, m := range p.Sorted() {
		mr := MoveResponse{
			SAN:    m.SAN,
			UCI:    m.UCI,
			Count:  m.Plays(),
			Wins:   m.Win,
			Draws:  m.Draw,
			Losses: m.Loss,
			Perf:   m.Perf(),
		}
		if mr.Count > 0 {
			mr.WinPct = float64(m.Win) / float64(mr.Count) * 100
		}
		resp.Moves = append(resp.Moves, mr)
	}

	return resp
}
