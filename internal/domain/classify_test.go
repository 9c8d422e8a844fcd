package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifyRaw(t *testing.T, raw, sport string) Classification {
	t.Helper()
	id, ok := ParseMarketID(raw)
	require.True(t, ok, raw)
	c, ok := Classify(id, sport)
	require.True(t, ok, raw)
	return c
}

func TestClassify_CoreLines(t *testing.T) {
	assert.Equal(t, MainCoreLines, classifyRaw(t, "points-home-game-ml-home", "basketball_nba").Main)
	assert.Equal(t, MainCoreLines, classifyRaw(t, "points-away-game-sp-away", "basketball_nba").Main)
	assert.Equal(t, MainCoreLines, classifyRaw(t, "points-all-game-ou-over", "basketball_nba").Main)
	assert.Equal(t, MainCoreLines, classifyRaw(t, "points-all-reg-ou-under", "icehockey_nhl").Main)
}

func TestClassify_TeamProps(t *testing.T) {
	// Partial-period moneyline and team totals fall outside core lines.
	assert.Equal(t, MainTeamProps, classifyRaw(t, "points-home-1h-ml-home", "basketball_nba").Main)
	assert.Equal(t, MainTeamProps, classifyRaw(t, "points-home-game-ou-over", "basketball_nba").Main)
}

func TestClassify_PlayerAndGameProps(t *testing.T) {
	assert.Equal(t, MainPlayerProps, classifyRaw(t, "rebounds-2544-game-ou-over", "basketball_nba").Main)
	assert.Equal(t, MainGameProps, classifyRaw(t, "points-all-1q-ou-over", "basketball_nba").Main)
	assert.Equal(t, MainGameProps, classifyRaw(t, "corners-all-game-sp-home", "soccer_epl").Main)
}

func TestClassify_BaseballHitters(t *testing.T) {
	c := classifyRaw(t, "batting_homeRuns-10293-game-ou-over", "baseball_mlb")
	assert.Equal(t, MainPlayerProps, c.Main)
	assert.Equal(t, "Hitters", c.Sub)
	assert.Equal(t, "Offense", c.SubSub)
	assert.Equal(t, "Batting Home Runs Over", c.DisplayName)

	assert.Equal(t, "Discipline", classifyRaw(t, "batting_basesOnBalls-10293-game-ou-over", "MLB").SubSub)
	assert.Equal(t, "Speed", classifyRaw(t, "batting_stolenBases-10293-game-ou-over", "mlb").SubSub)
}

func TestClassify_PrefixBucket(t *testing.T) {
	c := classifyRaw(t, "batting_sacFlies-10293-game-ou-over", "baseball_mlb")
	assert.Equal(t, "Hitters", c.Sub)
	assert.Equal(t, BucketOther, c.SubSub)
}

func TestClassify_UnknownSportFallsBackToAll(t *testing.T) {
	c := classifyRaw(t, "aces-4411-game-ou-over", "tennis_atp")
	assert.Equal(t, BucketAll, c.Sub)
	assert.Equal(t, BucketAll, c.SubSub)
}

func TestClassify_ExcludedYesNo(t *testing.T) {
	id, ok := ParseMarketID("tripleDouble-2544-game-yn-yes")
	require.True(t, ok)
	_, ok = Classify(id, "basketball_nba")
	assert.False(t, ok)
}

// Every non-yes/no identifier gets a non-empty triple for every known sport.
func TestClassify_Completeness(t *testing.T) {
	sports := []string{"baseball_mlb", "basketball_nba", "americanfootball_nfl", "icehockey_nhl", "soccer_epl", "tennis_atp", ""}
	categories := []string{"points", "batting_hits", "pitching_outs", "rebounds", "passing_yards", "goals", "mysteryStat"}
	targets := []string{"home", "away", "all", "12345"}
	periods := []string{"game", "1h", "reg"}
	betTypes := []string{"ml", "sp", "ou"}

	for _, s := range sports {
		for _, cat := range categories {
			for _, tg := range targets {
				for _, p := range periods {
					for _, bt := range betTypes {
						raw := cat + "-" + tg + "-" + p + "-" + bt + "-over"
						c := classifyRaw(t, raw, s)
						assert.NotEmpty(t, c.Main, raw)
						assert.NotEmpty(t, c.Sub, raw)
						assert.NotEmpty(t, c.SubSub, raw)
						assert.NotEmpty(t, c.DisplayName, raw)
					}
				}
			}
		}
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Batting Home Runs", Humanize("batting_homeRuns"))
	assert.Equal(t, "Batting RBI", Humanize("batting_RBI"))
	assert.Equal(t, "Points + Rebounds + Assists", Humanize("points+rebounds+assists"))
	assert.Equal(t, "Three Pointers Made", Humanize("threePointersMade"))
	assert.Equal(t, "", Humanize(""))
}

func TestDisplayName_SideOnlyForTotals(t *testing.T) {
	ml, _ := ParseMarketID("points-home-game-ml-home")
	ou, _ := ParseMarketID("points-all-game-ou-under")
	assert.Equal(t, "Points", DisplayName(ml))
	assert.Equal(t, "Points Under", DisplayName(ou))
}

func TestSportFamily(t *testing.T) {
	assert.Equal(t, "basketball", SportFamily("basketball_nba"))
	assert.Equal(t, "basketball", SportFamily("NBA"))
	assert.Equal(t, "soccer", SportFamily("soccer_usa_mls"))
	assert.Equal(t, "cricket", SportFamily("cricket"))
}
