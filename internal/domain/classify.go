package domain

import (
	"strings"
	"unicode"
)

// MainCategory is the top level of the display hierarchy.
type MainCategory string

const (
	MainCoreLines   MainCategory = "core-lines"
	MainPlayerProps MainCategory = "player-props"
	MainTeamProps   MainCategory = "team-props"
	MainGameProps   MainCategory = "game-props"
)

// Fallback bucket for sports without a table and for unknown categories.
const (
	BucketAll   = "All"
	BucketOther = "Other"
)

// Classification places a market in the three-level display hierarchy.
type Classification struct {
	Main        MainCategory
	Sub         string
	SubSub      string
	DisplayName string
}

type bucket struct {
	sub    string
	subSub string
}

type prefixBucket struct {
	prefix string
	bucket
}

type sportTable struct {
	exact    map[string]bucket
	prefixes []prefixBucket
}

// sportTables is keyed by sport family (the part of the sport key before "_").
var sportTables = map[string]sportTable{
	"baseball": {
		exact: map[string]bucket{
			"points":                {"Game", "Runs"},
			"batting_hits":          {"Hitters", "Offense"},
			"batting_singles":       {"Hitters", "Offense"},
			"batting_doubles":       {"Hitters", "Offense"},
			"batting_triples":       {"Hitters", "Offense"},
			"batting_homeRuns":      {"Hitters", "Offense"},
			"batting_RBI":           {"Hitters", "Offense"},
			"batting_totalBases":    {"Hitters", "Offense"},
			"batting_basesOnBalls":  {"Hitters", "Discipline"},
			"batting_strikeouts":    {"Hitters", "Discipline"},
			"batting_stolenBases":   {"Hitters", "Speed"},
			"pitching_strikeouts":   {"Pitchers", "Strikeouts"},
			"pitching_outs":         {"Pitchers", "Outs"},
			"pitching_hits":         {"Pitchers", "Allowed"},
			"pitching_earnedRuns":   {"Pitchers", "Allowed"},
			"pitching_basesOnBalls": {"Pitchers", "Allowed"},
			"pitching_win":          {"Pitchers", "Decisions"},
		},
		prefixes: []prefixBucket{
			{"batting_", bucket{"Hitters", BucketOther}},
			{"pitching_", bucket{"Pitchers", BucketOther}},
		},
	},
	"basketball": {
		exact: map[string]bucket{
			"points":                  {"Scoring", "Points"},
			"threePointersMade":       {"Scoring", "Threes"},
			"freeThrowsMade":          {"Scoring", "Free Throws"},
			"rebounds":                {"Rebounding", "Rebounds"},
			"assists":                 {"Playmaking", "Assists"},
			"turnovers":               {"Playmaking", "Turnovers"},
			"steals":                  {"Defense", "Steals"},
			"blocks":                  {"Defense", "Blocks"},
			"points+rebounds+assists": {"Combos", "Points + Rebounds + Assists"},
			"points+rebounds":         {"Combos", "Points + Rebounds"},
			"points+assists":          {"Combos", "Points + Assists"},
			"rebounds+assists":        {"Combos", "Rebounds + Assists"},
			"doubleDouble":            {"Specials", "Double Double"},
			"tripleDouble":            {"Specials", "Triple Double"},
		},
	},
	"americanfootball": {
		exact: map[string]bucket{
			"points":                {"Game", "Points"},
			"touchdowns":            {"Scoring", "Touchdowns"},
			"passing_yards":         {"Passing", "Yards"},
			"passing_touchdowns":    {"Passing", "Touchdowns"},
			"passing_completions":   {"Passing", "Completions"},
			"passing_attempts":      {"Passing", "Attempts"},
			"passing_interceptions": {"Passing", "Interceptions"},
			"rushing_yards":         {"Rushing", "Yards"},
			"rushing_attempts":      {"Rushing", "Attempts"},
			"rushing_touchdowns":    {"Rushing", "Touchdowns"},
			"receiving_yards":       {"Receiving", "Yards"},
			"receiving_receptions":  {"Receiving", "Receptions"},
			"receiving_touchdowns":  {"Receiving", "Touchdowns"},
			"defense_sacks":         {"Defense", "Sacks"},
			"defense_interceptions": {"Defense", "Interceptions"},
			"defense_tackles":       {"Defense", "Tackles"},
			"kicking_totalPoints":   {"Kicking", "Points"},
			"fieldGoals_made":       {"Kicking", "Field Goals"},
		},
		prefixes: []prefixBucket{
			{"passing_", bucket{"Passing", BucketOther}},
			{"rushing_", bucket{"Rushing", BucketOther}},
			{"receiving_", bucket{"Receiving", BucketOther}},
			{"defense_", bucket{"Defense", BucketOther}},
		},
	},
	"icehockey": {
		exact: map[string]bucket{
			"points":       {"Game", "Goals"},
			"goals":        {"Scoring", "Goals"},
			"assists":      {"Scoring", "Assists"},
			"shots_onGoal": {"Shots", "On Goal"},
			"goalie_saves": {"Goaltending", "Saves"},
		},
	},
	"soccer": {
		exact: map[string]bucket{
			"points":         {"Game", "Goals"},
			"goals":          {"Scoring", "Goals"},
			"assists":        {"Scoring", "Assists"},
			"shots":          {"Shots", "Total"},
			"shots_onTarget": {"Shots", "On Target"},
			"corners":        {"Set Pieces", "Corners"},
			"yellowCards":    {"Discipline", "Cards"},
			"cards":          {"Discipline", "Cards"},
		},
	},
}

// leagueFamilies lets callers pass a bare league code instead of a sport key.
var leagueFamilies = map[string]string{
	"mlb":   "baseball",
	"nba":   "basketball",
	"wnba":  "basketball",
	"ncaab": "basketball",
	"nfl":   "americanfootball",
	"ncaaf": "americanfootball",
	"nhl":   "icehockey",
	"epl":   "soccer",
	"mls":   "soccer",
}

// SportFamily reduces a sport key ("basketball_nba") or league code ("NBA")
// to the family used by the classification tables.
func SportFamily(sportKey string) string {
	key := strings.ToLower(strings.TrimSpace(sportKey))
	if fam, ok := leagueFamilies[key]; ok {
		return fam
	}
	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}
	return key
}

// Classify maps a parsed identifier to its display buckets. Excluded (yes/no)
// markets return ok=false; every other market gets a non-empty triple.
func Classify(id MarketID, sportKey string) (Classification, bool) {
	if id.Excluded || id.Raw == "" {
		return Classification{}, false
	}
	b := lookupBucket(SportFamily(sportKey), id.Category)
	return Classification{
		Main:        mainCategory(id),
		Sub:         b.sub,
		SubSub:      b.subSub,
		DisplayName: DisplayName(id),
	}, true
}

func mainCategory(id MarketID) MainCategory {
	switch {
	case id.IsTeamTarget() && id.IsFullPeriod() &&
		(id.BetType == BetTypeMoneyline || id.BetType == BetTypeSpread):
		return MainCoreLines
	case id.Target == TargetAll && id.IsFullPeriod() && id.BetType == BetTypeOverUnder:
		return MainCoreLines
	case id.PlayerScoped:
		return MainPlayerProps
	case id.IsTeamTarget():
		return MainTeamProps
	default:
		return MainGameProps
	}
}

func lookupBucket(family, category string) bucket {
	table, ok := sportTables[family]
	if !ok {
		return bucket{BucketAll, BucketAll}
	}
	if b, ok := table.exact[category]; ok {
		return b
	}
	for _, p := range table.prefixes {
		if strings.HasPrefix(category, p.prefix) {
			return p.bucket
		}
	}
	return bucket{BucketOther, BucketAll}
}

// DisplayName humanizes the category and, for over/under and yes/no markets,
// appends the capitalized side: "batting_homeRuns" + "over" → "Batting Home Runs Over".
func DisplayName(id MarketID) string {
	name := Humanize(id.Category)
	if id.BetType == BetTypeOverUnder || id.BetType == BetTypeYesNo {
		name += " " + Capitalize(id.Side)
	}
	return name
}

// Humanize turns a raw feed token into words: underscores become spaces,
// camelCase is split and every word is capitalized. Runs of capitals ("RBI") stay intact.
func Humanize(token string) string {
	token = strings.ReplaceAll(token, "+", " + ")
	token = strings.ReplaceAll(token, "_", " ")

	var sb strings.Builder
	runes := []rune(token)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}

	words := strings.Fields(sb.String())
	for i, w := range words {
		words[i] = Capitalize(w)
	}
	return strings.Join(words, " ")
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
