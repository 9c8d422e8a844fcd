package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func leg(id, market, status string, outcome *string) SlipLeg {
	return SlipLeg{
		ID:       id,
		Status:   status,
		Outcome:  outcome,
		AtRisk:   decimal.NewFromInt(10),
		ToWin:    decimal.RequireFromString("26.40"),
		EventID:  "evt-" + id,
		SportKey: "basketball_nba",
		MarketID: market,
		Price:    -110,
	}
}

// --- LegStatusFromFeed ---

func TestLegStatusFromFeed(t *testing.T) {
	assert.Equal(t, StatusWon, LegStatusFromFeed("completed", strPtr("win")))
	assert.Equal(t, StatusLost, LegStatusFromFeed("Settled", strPtr("LOSS")))
	assert.Equal(t, StatusVoid, LegStatusFromFeed("completed", strPtr("push")))
	assert.Equal(t, StatusCancelled, LegStatusFromFeed("canceled", nil))
	assert.Equal(t, StatusPending, LegStatusFromFeed("open", strPtr("win")))
}

// A completed leg whose outcome is still unknown is not guessed.
func TestLegStatusFromFeed_CompletedWithoutOutcomeStaysPending(t *testing.T) {
	assert.Equal(t, StatusPending, LegStatusFromFeed("completed", nil))
	assert.Equal(t, StatusPending, LegStatusFromFeed("completed", strPtr("")))
	assert.Equal(t, StatusPending, LegStatusFromFeed("completed", strPtr("tbd")))
}

// --- ShouldWrite / MergeSettlement ---

func TestShouldWrite_NewRow(t *testing.T) {
	assert.True(t, ShouldWrite(nil, SettlementState{Status: StatusPending}))
}

func TestShouldWrite_TransitionOutOfPending(t *testing.T) {
	old := &SettlementState{Status: StatusPending}
	assert.True(t, ShouldWrite(old, SettlementState{Status: StatusWon}))
}

func TestShouldWrite_Idempotent(t *testing.T) {
	now := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)
	next := SettlementState{Status: StatusWon, Profit: decimal.NewNullDecimal(decimal.NewFromInt(9))}

	first := MergeSettlement(&SettlementState{Status: StatusPending}, next, now)
	require.NotNil(t, first.SettledAt)
	assert.True(t, ShouldWrite(&SettlementState{Status: StatusPending}, first))

	// Same update again, later: settled_at is kept so nothing changes.
	second := MergeSettlement(&first, next, now.Add(time.Hour))
	assert.False(t, ShouldWrite(&first, second))
	assert.True(t, first.SettledAt.Equal(*second.SettledAt))
}

func TestShouldWrite_ProfitNullnessMatters(t *testing.T) {
	old := &SettlementState{Status: StatusVoid, Profit: decimal.NullDecimal{}}
	assert.True(t, ShouldWrite(old, SettlementState{Status: StatusVoid, Profit: decimal.NewNullDecimal(decimal.Zero)}))
}

func TestMergeSettlement_NeverRegressesSettledRow(t *testing.T) {
	settledAt := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)
	old := &SettlementState{
		Status:    StatusLost,
		Profit:    decimal.NewNullDecimal(decimal.NewFromInt(-10)),
		SettledAt: &settledAt,
	}
	merged := MergeSettlement(old, SettlementState{Status: StatusPending}, settledAt.Add(time.Hour))

	assert.Equal(t, StatusLost, merged.Status)
	assert.True(t, merged.Profit.Valid)
	assert.Equal(t, "-10", merged.Profit.Decimal.String())
	assert.Equal(t, &settledAt, merged.SettledAt)
	assert.False(t, ShouldWrite(old, merged))
}

func TestMergeSettlement_StatusChangeRestampsSettledAt(t *testing.T) {
	first := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)
	old := &SettlementState{Status: StatusWon, SettledAt: &first}
	later := first.Add(2 * time.Hour)

	merged := MergeSettlement(old, SettlementState{Status: StatusVoid}, later)
	require.NotNil(t, merged.SettledAt)
	assert.True(t, merged.SettledAt.Equal(later))
}

// --- PlanSlip ---

func TestPlanSlip_SingleLegGroupIsSingle(t *testing.T) {
	plan, err := PlanSlip(Slip{
		ID:     "s1",
		UserID: "u1",
		Kind:   "parlay",
		Legs:   []SlipLeg{leg("l1", "points-home-game-ml-home", "completed", strPtr("lost"))},
	})
	require.NoError(t, err)
	assert.False(t, plan.Group)
	require.Len(t, plan.Legs, 1)

	w := plan.Legs[0].Wager
	assert.False(t, w.IsGroup)
	assert.Empty(t, w.GroupID)
	assert.Equal(t, "l1", w.ExternalID)
	assert.Equal(t, StatusLost, w.Status)
	assert.Equal(t, "-10", w.Profit.Decimal.String())
	assert.Equal(t, "36.4", w.PotentialPayout.String())
}

func TestPlanSlip_GroupLossCarriedByFirstLeg(t *testing.T) {
	plan, err := PlanSlip(Slip{
		ID:     "s2",
		UserID: "u1",
		Legs: []SlipLeg{
			leg("a", "points-home-game-ml-home", "completed", strPtr("won")),
			leg("b", "points-all-game-ou-over", "completed", strPtr("lost")),
			leg("c", "rebounds-2544-game-ou-over", "open", nil),
		},
	})
	require.NoError(t, err)
	assert.True(t, plan.Group)
	assert.Equal(t, OutcomeLoss, plan.Outcome)
	require.Len(t, plan.Legs, 3)

	first := plan.Legs[0]
	assert.Equal(t, StatusWon, first.State.Status)
	assert.Equal(t, "-10", first.State.Profit.Decimal.String())
	assert.Equal(t, "10", first.Wager.Stake.String())

	assert.Equal(t, StatusLost, plan.Legs[1].State.Status)
	assert.Equal(t, StatusPending, plan.Legs[2].State.Status)
	for _, pl := range plan.Legs {
		assert.Equal(t, "s2", pl.Wager.GroupID)
		assert.True(t, pl.Wager.IsGroup)
	}
}

func TestPlanSlip_PendingGroupHasNullProfit(t *testing.T) {
	plan, err := PlanSlip(Slip{
		ID: "s3",
		Legs: []SlipLeg{
			leg("a", "points-home-game-ml-home", "completed", strPtr("won")),
			leg("b", "points-all-game-ou-over", "completed", nil),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, plan.Outcome)
	assert.False(t, plan.Legs[0].State.Profit.Valid)
}

func TestPlanSlip_WinAndPush(t *testing.T) {
	win, err := PlanSlip(Slip{ID: "w", Legs: []SlipLeg{
		leg("a", "points-home-game-ml-home", "completed", strPtr("won")),
		leg("b", "points-all-game-ou-over", "completed", strPtr("won")),
	}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, win.Outcome)
	assert.Equal(t, "26.4", win.Legs[0].State.Profit.Decimal.String())

	push, err := PlanSlip(Slip{ID: "p", Legs: []SlipLeg{
		leg("a", "points-home-game-ml-home", "completed", strPtr("won")),
		leg("b", "points-all-game-ou-over", "completed", strPtr("void")),
	}})
	require.NoError(t, err)
	assert.Equal(t, OutcomePush, push.Outcome)
	assert.True(t, push.Legs[0].State.Profit.Decimal.IsZero())
}

// Exactly one member of a group carries stake and profit.
func TestPlanSlip_NonFirstLegInvariant(t *testing.T) {
	outcomes := [][]*string{
		{strPtr("won"), strPtr("won"), strPtr("won")},
		{strPtr("lost"), strPtr("won"), nil},
		{strPtr("won"), strPtr("lost"), strPtr("void")},
	}
	for _, oc := range outcomes {
		legs := make([]SlipLeg, len(oc))
		for i, o := range oc {
			legs[i] = leg(string(rune('a'+i)), "points-all-game-ou-over", "completed", o)
		}
		plan, err := PlanSlip(Slip{ID: "g", Legs: legs})
		require.NoError(t, err)

		carriers := 0
		for _, pl := range plan.Legs {
			if pl.Wager.CarriesMoney() {
				carriers++
				continue
			}
			assert.True(t, pl.Wager.Stake.IsZero())
			assert.True(t, pl.Wager.PotentialPayout.IsZero())
			assert.True(t, pl.State.Profit.Valid)
			assert.True(t, pl.State.Profit.Decimal.IsZero())
		}
		assert.Equal(t, 1, carriers)
	}
}

func TestPlanSlip_SkipsExcludedAndUnparseable(t *testing.T) {
	plan, err := PlanSlip(Slip{ID: "s4", Legs: []SlipLeg{
		leg("a", "doubleDouble-2544-game-yn-yes", "completed", strPtr("won")),
		leg("b", "points-home-game-ml-home", "completed", strPtr("won")),
		leg("c", "bogus", "completed", strPtr("won")),
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Skipped)
	require.Len(t, plan.Legs, 1)
	// The first persisted leg takes over the money fields.
	assert.True(t, plan.Legs[0].Wager.CarriesMoney())
	assert.Equal(t, "b", plan.Legs[0].Wager.ExternalID)
	assert.Equal(t, 1, plan.Legs[0].Wager.LegIndex)
}

func TestPlanSlip_SyntheticExternalIDs(t *testing.T) {
	a := leg("", "points-home-game-ml-home", "open", nil)
	b := leg("", "points-all-game-ou-over", "open", nil)
	plan, err := PlanSlip(Slip{ID: "slip9", Legs: []SlipLeg{a, b}})
	require.NoError(t, err)
	assert.Equal(t, "slip9-0", plan.Legs[0].Wager.ExternalID)
	assert.Equal(t, "slip9-1", plan.Legs[1].Wager.ExternalID)
	assert.Equal(t, 0, plan.Legs[0].Wager.LegIndex)
	assert.Equal(t, 1, plan.Legs[1].Wager.LegIndex)
}

func TestPlanSlip_Invalid(t *testing.T) {
	plan, err := PlanSlip(Slip{})
	require.NoError(t, err)
	assert.Empty(t, plan.Legs)

	_, err = PlanSlip(Slip{Legs: []SlipLeg{leg("", "points-home-game-ml-home", "open", nil)}})
	assert.ErrorIs(t, err, ErrInvalidSlip)
}
