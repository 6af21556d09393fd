package record

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/freeeve/pgnbook/internal/movetext"
	"github.com/freeeve/pgnbook/internal/rules"
)

var tagPairRegex = regexp.MustCompile(`\[\s*([A-Za-z0-9_]+)\s+"((?:[^"\\]|\\.)*)"\s*\]`)

// Extractor replays games through a rules engine.
type Extractor struct {
	Rules rules.Registry
	// Tokenize returns the move source for a game's move text. Defaults to
	// movetext.NewTokenizer.
	Tokenize func(moveText string) movetext.Source
	Log      zerolog.Logger
}

// ExtractStats counts what happened while replaying one game.
type ExtractStats struct {
	Tokens  int // main-line move tokens seen
	Dropped int // tokens rejected by the rules engine
}

// NewExtractor returns an Extractor over the default rules registry.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{
		Rules: rules.DefaultRegistry(),
		Log:   log,
	}
}

var defaultExtractor = NewExtractor(zerolog.Nop())

// Extract parses one game with the default extractor.
func Extract(text string) GameRecord {
	return defaultExtractor.Extract(text)
}

// ParseToJSON extracts text and encodes the result.
func ParseToJSON(text string) string {
	return ToJSON(Extract(text))
}

// Extract parses one game.
func (e *Extractor) Extract(text string) GameRecord {
	g, _ := e.ExtractWithStats(text)
	return g
}

// ExtractWithStats parses one game. Moves the rules engine rejects are dropped
// and the replay continues from the unchanged position.
func (e *Extractor) ExtractWithStats(text string) (GameRecord, ExtractStats) {
	var stats ExtractStats
	g := NewGameRecord()

	headerText, moveText := splitSections(text)
	for _, m := range tagPairRegex.FindAllStringSubmatch(headerText, -1) {
		key, value := m[1], unescape(m[2])
		if !utf8.ValidString(key) || !utf8.ValidString(value) {
			e.Log.Debug().Str("key", key).Msg("skipping header with invalid utf-8")
			continue
		}
		g.Headers[key] = value
	}

	variant := rules.Standard
	if v, ok := g.Headers["Variant"]; ok {
		variant = rules.ParseVariant(v)
	}
	registry := e.Rules
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	engine := registry.Engine(variant)
	pos := engine.Start()
	checkFEN := true

	var src movetext.Source
	if e.Tokenize != nil {
		src = e.Tokenize(moveText)
	} else {
		src = movetext.NewTokenizer(moveText)
	}

	for token := range movetext.NewMainline(src).All() {
		stats.Tokens++

		// The FEN header replaces the start exactly once, before the first move.
		if checkFEN {
			checkFEN = false
			if fen, ok := g.Headers["FEN"]; ok {
				custom, err := engine.FromFEN(fen)
				if err != nil {
					e.Log.Debug().Err(err).Str("fen", fen).Msg("ignoring FEN header")
				} else {
					pos = custom
				}
			}
		}

		next, played, err := engine.Apply(pos, token)
		if err != nil {
			stats.Dropped++
			e.Log.Debug().Err(err).Str("token", token).Str("variant", variant.String()).Msg("dropping move")
			continue
		}
		g.Moves = append(g.Moves, MoveRecord{
			SAN:       played.SAN,
			UCI:       played.UCI,
			FENBefore: engine.FEN(pos),
			EPDBefore: engine.EPD(pos),
			FENAfter:  engine.FEN(next),
			EPDAfter:  engine.EPD(next),
		})
		pos = next
	}

	return g, stats
}

// splitSections separates header lines from move text. Header lines are the
// lines starting with '[' before the first move-text line.
func splitSections(text string) (string, string) {
	var headers strings.Builder
	rest := text
	for rest != "" {
		line, tail, _ := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && trimmed[0] != '[' {
			break
		}
		headers.WriteString(line)
		headers.WriteString("\n")
		rest = tail
	}
	return headers.String(), rest
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(s)
}
