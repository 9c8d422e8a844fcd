package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Slip is one upstream settlement record after boundary validation: a single
// wager or a parlay, with every leg as reported by the sportsbook.
type Slip struct {
	ID       string
	UserID   string
	Kind     string // feed type tag, informational only
	PlacedAt time.Time
	Legs     []SlipLeg
}

// SlipLeg carries the upstream view of one leg. Amounts are slip-level
// figures repeated on each leg by the feed.
type SlipLeg struct {
	ID         string
	Status     string
	Outcome    *string
	AtRisk     decimal.Decimal
	ToWin      decimal.Decimal
	EventID    string
	SportKey   string
	HomeTeam   string
	AwayTeam   string
	GameTime   time.Time
	MarketID   string
	Price      int
	Line       *float64
	Label      string
	PlayerName string
}

// IsGroup reports whether the slip settles as a parlay. A "parlay" tag with a
// single leg is still a single wager.
func (s Slip) IsGroup() bool { return len(s.Legs) > 1 }

// LegStatusFromFeed maps a feed status/outcome pair onto a wager status.
// A completed leg with no usable outcome stays pending.
func LegStatusFromFeed(status string, outcome *string) WagerStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "cancelled", "canceled":
		return StatusCancelled
	case "completed", "complete", "settled", "graded", "closed":
	default:
		return StatusPending
	}
	if outcome == nil {
		return StatusPending
	}
	switch strings.ToLower(strings.TrimSpace(*outcome)) {
	case "win", "won":
		return StatusWon
	case "loss", "lost", "lose":
		return StatusLost
	case "push", "void", "draw", "refund", "refunded":
		return StatusVoid
	}
	return StatusPending
}

// SettlementState is the mutable part of a persisted wager.
type SettlementState struct {
	Status    WagerStatus
	Profit    decimal.NullDecimal
	SettledAt *time.Time
}

// Equal compares status, profit (including null-ness) and settled_at.
func (s SettlementState) Equal(o SettlementState) bool {
	if s.Status != o.Status || s.Profit.Valid != o.Profit.Valid {
		return false
	}
	if s.Profit.Valid && !s.Profit.Decimal.Equal(o.Profit.Decimal) {
		return false
	}
	switch {
	case s.SettledAt == nil && o.SettledAt == nil:
		return true
	case s.SettledAt == nil || o.SettledAt == nil:
		return false
	}
	return s.SettledAt.Equal(*o.SettledAt)
}

// ShouldWrite decides whether next must be persisted over old. A missing row is
// always written, and so is a transition out of pending even when the rest
// compares equal.
func ShouldWrite(old *SettlementState, next SettlementState) bool {
	if old == nil {
		return true
	}
	if old.Status == StatusPending && next.Status != StatusPending {
		return true
	}
	return !old.Equal(next)
}

// MergeSettlement folds a freshly computed state into the stored one. Settled
// data is never regressed: a terminal row stays terminal when the feed falls
// back to pending, and a known profit is not replaced by null.
func MergeSettlement(old *SettlementState, next SettlementState, now time.Time) SettlementState {
	out := next
	if old == nil {
		if out.Status.Terminal() {
			t := now.UTC()
			out.SettledAt = &t
		} else {
			out.SettledAt = nil
		}
		return out
	}

	if old.Status.Terminal() && !next.Status.Terminal() {
		out.Status = old.Status
		out.SettledAt = old.SettledAt
	} else if out.Status.Terminal() {
		if old.Status == out.Status && old.SettledAt != nil {
			out.SettledAt = old.SettledAt
		} else {
			t := now.UTC()
			out.SettledAt = &t
		}
	} else {
		out.SettledAt = nil
	}

	if old.Profit.Valid && !out.Profit.Valid {
		out.Profit = old.Profit
	}
	return out
}

// PlannedLeg is one wager row the reconciler should make sure exists, with the
// settlement state the feed currently implies for it.
type PlannedLeg struct {
	Wager Wager
	State SettlementState
}

// SlipPlan is the outcome of reading one slip.
type SlipPlan struct {
	Group   bool
	Outcome GroupOutcome // only meaningful for groups
	Legs    []PlannedLeg
	Skipped int // legs with unparseable or yes/no markets
}

// PlanSlip turns a slip into per-leg wager rows and target states. The first
// persisted leg of a group carries the money fields derived from the group
// outcome; siblings carry zero stake and zero profit and only their own status.
func PlanSlip(slip Slip) (SlipPlan, error) {
	if len(slip.Legs) == 0 {
		return SlipPlan{}, nil
	}
	if slip.ID == "" && slip.Legs[0].ID == "" {
		return SlipPlan{}, ErrInvalidSlip
	}

	plan := SlipPlan{Group: slip.IsGroup()}
	statuses := make([]WagerStatus, len(slip.Legs))
	for i, leg := range slip.Legs {
		statuses[i] = LegStatusFromFeed(leg.Status, leg.Outcome)
	}

	stake := slip.Legs[0].AtRisk
	toWin := slip.Legs[0].ToWin
	payout := stake.Add(toWin)

	groupID := slip.ID
	if groupID == "" {
		groupID = slip.Legs[0].ID
	}
	if plan.Group {
		plan.Outcome = DeriveGroupOutcome(statuses)
	}

	carrierAssigned := false
	for i, leg := range slip.Legs {
		id, ok := ParseMarketID(leg.MarketID)
		if !ok || id.Excluded {
			plan.Skipped++
			continue
		}

		draft := WagerDraft{
			UserID:     slip.UserID,
			ExternalID: legExternalID(slip, groupID, i),
			Selection: Selection{
				EventID:    leg.EventID,
				SportKey:   leg.SportKey,
				HomeTeam:   leg.HomeTeam,
				AwayTeam:   leg.AwayTeam,
				GameTime:   leg.GameTime,
				MarketID:   leg.MarketID,
				Price:      leg.Price,
				Line:       leg.Line,
				Label:      leg.Label,
				PlayerName: leg.PlayerName,
			},
			LegIndex: i,
			PlacedAt: slip.PlacedAt,
		}

		var state SettlementState
		state.Status = statuses[i]
		switch {
		case !plan.Group:
			draft.Stake, draft.Payout = leg.AtRisk, leg.AtRisk.Add(leg.ToWin)
			state.Profit = singleProfit(state.Status, leg.AtRisk, leg.ToWin)
		case !carrierAssigned:
			carrierAssigned = true
			draft.GroupID = groupID
			draft.Stake, draft.Payout = stake, payout
			state.Profit = groupProfit(plan.Outcome, stake, toWin)
		default:
			draft.GroupID = groupID
			draft.Stake, draft.Payout = decimal.Zero, decimal.Zero
			state.Profit = decimal.NewNullDecimal(decimal.Zero)
		}

		w := MapWager(draft)
		w.Status = state.Status
		w.Profit = state.Profit
		plan.Legs = append(plan.Legs, PlannedLeg{Wager: w, State: state})
	}
	return plan, nil
}

func legExternalID(slip Slip, slipID string, i int) string {
	if id := slip.Legs[i].ID; id != "" {
		return id
	}
	if len(slip.Legs) == 1 {
		return slipID
	}
	return slipID + "-" + strconv.Itoa(i)
}

func singleProfit(s WagerStatus, atRisk, toWin decimal.Decimal) decimal.NullDecimal {
	switch s {
	case StatusWon:
		return decimal.NewNullDecimal(toWin)
	case StatusLost:
		return decimal.NewNullDecimal(atRisk.Neg())
	case StatusVoid, StatusCancelled:
		return decimal.NewNullDecimal(decimal.Zero)
	}
	return decimal.NullDecimal{}
}

func groupProfit(o GroupOutcome, stake, toWin decimal.Decimal) decimal.NullDecimal {
	switch o {
	case OutcomeWin:
		return decimal.NewNullDecimal(toWin)
	case OutcomeLoss:
		return decimal.NewNullDecimal(stake.Neg())
	case OutcomePush:
		return decimal.NewNullDecimal(decimal.Zero)
	}
	return decimal.NullDecimal{}
}
