package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMarketID_TeamSpread(t *testing.T) {
	id, ok := ParseMarketID("points-home-game-sp-home")
	assert.True(t, ok)
	assert.Equal(t, "points", id.Category)
	assert.Equal(t, TargetHome, id.Target)
	assert.Equal(t, "game", id.Period)
	assert.Equal(t, BetTypeSpread, id.BetType)
	assert.Equal(t, "home", id.Side)
	assert.False(t, id.PlayerScoped)
	assert.False(t, id.Excluded)
	assert.True(t, id.IsTeamTarget())
	assert.True(t, id.IsFullPeriod())
}

func TestParseMarketID_PlayerScoped(t *testing.T) {
	id, ok := ParseMarketID("batting_hits-10293-game-ou-over")
	assert.True(t, ok)
	assert.True(t, id.PlayerScoped)
	assert.False(t, id.IsTeamTarget())
}

func TestParseMarketID_YesNoExcluded(t *testing.T) {
	id, ok := ParseMarketID("doubleDouble-3321-game-yn-yes")
	assert.True(t, ok)
	assert.True(t, id.Excluded)
}

func TestParseMarketID_Unparseable(t *testing.T) {
	inputs := []string{
		"",
		"points",
		"points-home-game-sp",
		"points-home-game-sp-home-extra",
		"points--game-sp-home",
		"-----",
		"points-home-game-sp-",
	}
	for _, in := range inputs {
		id, ok := ParseMarketID(in)
		assert.False(t, ok, in)
		assert.Equal(t, MarketID{}, id, in)
	}
}

// Parsed ids always have every field populated.
func TestParseMarketID_Totality(t *testing.T) {
	inputs := []string{
		"a-b-c-d-e", "points-all-1q-ou-under", "x-1-2-3-4", "💥-home-game-ml-away",
		"--", "a-b", "a-b-c-d-e-f-g", "points-home-game-ml-home\n",
	}
	for _, in := range inputs {
		id, ok := ParseMarketID(in)
		if !ok {
			continue
		}
		assert.NotEmpty(t, id.Category, in)
		assert.NotEmpty(t, id.Target, in)
		assert.NotEmpty(t, id.Period, in)
		assert.NotEmpty(t, id.BetType, in)
		assert.NotEmpty(t, id.Side, in)
		assert.Equal(t, in, id.Raw)
	}
}

func TestIsFullPeriod(t *testing.T) {
	assert.True(t, IsFullPeriod("game"))
	assert.True(t, IsFullPeriod("reg"))
	assert.False(t, IsFullPeriod("1h"))
	assert.False(t, IsFullPeriod("1q"))
}
