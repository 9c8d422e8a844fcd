package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WagerDraft is everything the mapper needs to build one wager row.
type WagerDraft struct {
	UserID     string
	ExternalID string
	Selection  Selection
	Stake      decimal.Decimal
	Payout     decimal.Decimal
	GroupID    string // empty for singles
	LegIndex   int    // position within the group
	PlacedAt   time.Time
}

// MapWager turns a draft into the canonical wager row. It is pure: unknown
// sports, markets or labels degrade to generic values instead of failing.
func MapWager(d WagerDraft) Wager {
	sel := d.Selection
	id, parsed := ParseMarketID(sel.MarketID)
	kind := InferBetKind(sel.MarketID)

	w := Wager{
		UserID:          d.UserID,
		ExternalID:      d.ExternalID,
		Sport:           SportFamily(sel.SportKey),
		League:          LeagueFor(sel.SportKey),
		BetType:         kind,
		Description:     describe(sel, id, parsed),
		EventID:         sel.EventID,
		MarketID:        sel.MarketID,
		Price:           sel.Price,
		Line:            sel.Line,
		Stake:           d.Stake,
		PotentialPayout: d.Payout,
		Status:          StatusPending,
		PlacedAt:        d.PlacedAt.UTC(),
		HomeTeam:        sel.HomeTeam,
		AwayTeam:        sel.AwayTeam,
		Side:            InferSide(sel.MarketID),
		GroupID:         d.GroupID,
		IsGroup:         d.GroupID != "",
		LegIndex:        d.LegIndex,
	}
	if !sel.GameTime.IsZero() {
		gt := sel.GameTime.UTC()
		w.GameTime = &gt
	}
	if parsed && id.PlayerScoped {
		w.PlayerName = ExtractPlayerName(sel.Label, sel.PlayerName)
	}
	if parsed && (kind == KindPlayerProp || kind == KindGameProp) {
		w.PropType = ExtractPropType(id.Category)
	}
	// Group siblings record only their own status: money fields are zero, not null.
	if w.IsGroup && d.Stake.IsZero() {
		w.Profit = decimal.NewNullDecimal(decimal.Zero)
	}
	return w
}

var leagues = map[string]string{
	"basketball_nba":            "NBA",
	"basketball_wnba":           "WNBA",
	"basketball_ncaab":          "NCAAB",
	"americanfootball_nfl":      "NFL",
	"americanfootball_ncaaf":    "NCAAF",
	"baseball_mlb":              "MLB",
	"icehockey_nhl":             "NHL",
	"soccer_epl":                "EPL",
	"soccer_usa_mls":            "MLS",
	"soccer_uefa_champs_league": "UCL",
}

// LeagueFor maps a sport key to its league code. Unknown keys fall back to the
// last segment of the key in upper case, or "OTHER".
func LeagueFor(sportKey string) string {
	key := strings.ToLower(strings.TrimSpace(sportKey))
	if l, ok := leagues[key]; ok {
		return l
	}
	if i := strings.LastIndexByte(key, '_'); i >= 0 && i < len(key)-1 {
		return strings.ToUpper(key[i+1:])
	}
	if key != "" {
		if _, known := leagueFamilies[key]; known {
			return strings.ToUpper(key)
		}
	}
	return "OTHER"
}

var (
	reMoneyline = regexp.MustCompile(`-ml-`)
	reSpread    = regexp.MustCompile(`-sp-`)
	reTeamTotal = regexp.MustCompile(`-(all|home|away)-[^-]+-ou-`)
	reSide      = regexp.MustCompile(`(?:^|-)(over|under|home|away)$`)
	rePlayerOU  = regexp.MustCompile(`(?i)^(.+?)\s+(?:over|under|o|u)\s*[\d.]+`)
	rePlayerSep = regexp.MustCompile(`^(.+?)\s+[-–:]\s+`)
)

// InferBetKind classifies a raw identifier. It works on unparseable strings
// too, and defaults to player prop when nothing matches.
func InferBetKind(raw string) BetKind {
	if id, ok := ParseMarketID(raw); ok {
		switch {
		case id.PlayerScoped:
			return KindPlayerProp
		case id.BetType == BetTypeMoneyline:
			return KindMoneyline
		case id.BetType == BetTypeSpread && id.IsTeamTarget():
			return KindSpread
		case id.BetType == BetTypeOverUnder:
			return KindTotal
		default:
			return KindGameProp
		}
	}

	switch {
	case reMoneyline.MatchString(raw):
		return KindMoneyline
	case reSpread.MatchString(raw):
		return KindSpread
	case reTeamTotal.MatchString(raw):
		return KindTotal
	}
	return KindPlayerProp
}

// InferSide returns over/under/home/away, or "" when the side is something else
// (a yes/no value, a player id).
func InferSide(raw string) string {
	if id, ok := ParseMarketID(raw); ok {
		switch id.Side {
		case "over", "under", TargetHome, TargetAway:
			return id.Side
		}
		return ""
	}
	if m := reSide.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// ExtractPlayerName prefers the explicit hint and otherwise reads the name off
// labels like "LeBron James Over 25.5" or "LeBron James - Points".
func ExtractPlayerName(label, hint string) string {
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	label = strings.TrimSpace(label)
	if m := rePlayerOU.FindStringSubmatch(label); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := rePlayerSep.FindStringSubmatch(label); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var propTypes = map[string]string{
	"points":                  "Points",
	"rebounds":                "Rebounds",
	"assists":                 "Assists",
	"steals":                  "Steals",
	"blocks":                  "Blocks",
	"turnovers":               "Turnovers",
	"threePointersMade":       "Threes",
	"points+rebounds+assists": "PRA",
	"points+rebounds":         "Points + Rebounds",
	"points+assists":          "Points + Assists",
	"rebounds+assists":        "Rebounds + Assists",
	"batting_hits":            "Hits",
	"batting_homeRuns":        "Home Runs",
	"batting_totalBases":      "Total Bases",
	"batting_RBI":             "RBIs",
	"batting_stolenBases":     "Stolen Bases",
	"pitching_strikeouts":     "Strikeouts",
	"pitching_outs":           "Outs Recorded",
	"passing_yards":           "Passing Yards",
	"passing_touchdowns":      "Passing TDs",
	"rushing_yards":           "Rushing Yards",
	"receiving_yards":         "Receiving Yards",
	"receiving_receptions":    "Receptions",
	"touchdowns":              "Touchdowns",
	"goals":                   "Goals",
	"shots_onGoal":            "Shots On Goal",
	"shots_onTarget":          "Shots On Target",
	"goalie_saves":            "Saves",
}

// ExtractPropType maps a known statistic token to its label; anything else is humanized.
func ExtractPropType(category string) string {
	if p, ok := propTypes[category]; ok {
		return p
	}
	return Humanize(category)
}

func describe(sel Selection, id MarketID, parsed bool) string {
	if l := strings.TrimSpace(sel.Label); l != "" {
		return l
	}
	if !parsed {
		return sel.MarketID
	}
	desc := DisplayName(id)
	if id.BetType == BetTypeMoneyline || id.BetType == BetTypeSpread {
		desc = teamFor(sel, id.Side) + " " + desc
	}
	if sel.Line != nil {
		desc += " " + formatLine(*sel.Line, id.BetType == BetTypeSpread)
	}
	desc += fmt.Sprintf(" (%s)", FormatAmerican(sel.Price))
	return strings.TrimSpace(desc)
}

func teamFor(sel Selection, side string) string {
	switch side {
	case TargetHome:
		return sel.HomeTeam
	case TargetAway:
		return sel.AwayTeam
	}
	return ""
}

func formatLine(line float64, signed bool) string {
	s := strconv.FormatFloat(line, 'f', -1, 64)
	if signed && line > 0 {
		return "+" + s
	}
	return s
}

// FormatAmerican renders a price with an explicit sign: +150, -110.
func FormatAmerican(price int) string {
	if price > 0 {
		return "+" + strconv.Itoa(price)
	}
	return strconv.Itoa(price)
}
