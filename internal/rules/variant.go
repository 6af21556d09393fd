package rules

import "strings"

// Variant identifies the rule set a game is played under.
type Variant uint8

const (
	Standard Variant = iota
	Antichess
	Atomic
	Chess960
	Crazyhouse
	FromPosition
	Horde
	KingOfTheHill
	RacingKings
	ThreeCheck
)

// Variants lists every known variant.
var Variants = []Variant{
	Standard, Antichess, Atomic, Chess960, Crazyhouse,
	FromPosition, Horde, KingOfTheHill, RacingKings, ThreeCheck,
}

var variantNames = map[Variant]string{
	Standard:      "Standard",
	Antichess:     "Antichess",
	Atomic:        "Atomic",
	Chess960:      "Chess960",
	Crazyhouse:    "Crazyhouse",
	FromPosition:  "From Position",
	Horde:         "Horde",
	KingOfTheHill: "King of the Hill",
	RacingKings:   "Racing Kings",
	ThreeCheck:    "Three-check",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "Standard"
}

var variantAliases = map[string]Variant{
	"antichess":        Antichess,
	"anti chess":       Antichess,
	"giveaway":         Antichess,
	"give away":        Antichess,
	"atomic":           Atomic,
	"chess960":         Chess960,
	"chess 960":        Chess960,
	"crazyhouse":       Crazyhouse,
	"crazy house":      Crazyhouse,
	"fromposition":     FromPosition,
	"from position":    FromPosition,
	"horde":            Horde,
	"kingofthehill":    KingOfTheHill,
	"king of the hill": KingOfTheHill,
	"koth":             KingOfTheHill,
	"racingkings":      RacingKings,
	"racing kings":     RacingKings,
	"standard":         Standard,
	"threecheck":       ThreeCheck,
	"three check":      ThreeCheck,
	"3check":           ThreeCheck,
	"3 check":          ThreeCheck,
}

// ParseVariant maps a Variant header value to a Variant. Matching is
// case-insensitive; unknown names are Standard.
func ParseVariant(name string) Variant {
	if v, ok := variantAliases[strings.ToLower(name)]; ok {
		return v
	}
	return Standard
}
