package domain

import "strings"

// BetType is the fourth segment of a market identifier.
type BetType string

const (
	BetTypeMoneyline BetType = "ml"
	BetTypeSpread    BetType = "sp"
	BetTypeOverUnder BetType = "ou"
	BetTypeYesNo     BetType = "yn"
)

// Targets with a fixed meaning. Any digits-only target is a player id.
const (
	TargetHome = "home"
	TargetAway = "away"
	TargetAll  = "all"
)

const marketIDSegments = 5

// MarketID is a parsed market identifier:
//
//	{category}-{target}-{period}-{betType}-{side}
//
// Examples: "points-home-game-sp-home", "batting_hits-10293-game-ou-over".
type MarketID struct {
	Raw      string
	Category string
	Target   string
	Period   string
	BetType  BetType
	Side     string

	// PlayerScoped is true when the target is a player id (digits only).
	PlayerScoped bool
	// Excluded marks yes/no markets, which are never displayed or settled.
	Excluded bool
}

// ParseMarketID decodes an identifier. It is total: anything that is not exactly
// five non-empty segments returns ok=false and a zero MarketID.
func ParseMarketID(raw string) (MarketID, bool) {
	parts := strings.Split(raw, "-")
	if len(parts) != marketIDSegments {
		return MarketID{}, false
	}
	for _, p := range parts {
		if p == "" {
			return MarketID{}, false
		}
	}

	id := MarketID{
		Raw:      raw,
		Category: parts[0],
		Target:   parts[1],
		Period:   parts[2],
		BetType:  BetType(parts[3]),
		Side:     parts[4],
	}
	id.PlayerScoped = isDigits(id.Target)
	id.Excluded = id.BetType == BetTypeYesNo || strings.Contains(raw, "-yn-")
	return id, true
}

// IsTeamTarget reports whether the target is home or away.
func (m MarketID) IsTeamTarget() bool {
	return m.Target == TargetHome || m.Target == TargetAway
}

// IsFullPeriod reports whether the market covers the whole game.
func (m MarketID) IsFullPeriod() bool {
	return IsFullPeriod(m.Period)
}

// IsFullPeriod reports whether a period token means the whole game.
// Feeds use "game", and "reg" (regulation) for sports with overtime.
func IsFullPeriod(period string) bool {
	switch period {
	case "game", "reg", "full":
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
