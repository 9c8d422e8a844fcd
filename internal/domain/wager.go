package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerStatus is the settlement state of one persisted wager row.
type WagerStatus string

const (
	StatusPending   WagerStatus = "pending"
	StatusWon       WagerStatus = "won"
	StatusLost      WagerStatus = "lost"
	StatusVoid      WagerStatus = "void"
	StatusCancelled WagerStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s WagerStatus) Terminal() bool {
	return s != StatusPending && s != ""
}

// BetKind is the coarse bet type stored on a wager.
type BetKind string

const (
	KindMoneyline  BetKind = "moneyline"
	KindSpread     BetKind = "spread"
	KindTotal      BetKind = "total"
	KindPlayerProp BetKind = "player_prop"
	KindGameProp   BetKind = "game_prop"
)

// Stake bounds and parlay size limits.
var (
	MinStake = decimal.NewFromInt(1)
	MaxStake = decimal.NewFromInt(10_000)
)

const (
	MinParlayLegs = 2
	MaxParlayLegs = 10
)

// ValidateStake checks 1 ≤ stake ≤ 10000.
func ValidateStake(stake decimal.Decimal) error {
	if stake.LessThan(MinStake) || stake.GreaterThan(MaxStake) {
		return ErrInvalidStake
	}
	return nil
}

// ValidateLegCount checks 2 ≤ legs ≤ 10.
func ValidateLegCount(n int) error {
	if n < MinParlayLegs || n > MaxParlayLegs {
		return ErrLegCount
	}
	return nil
}

// Selection is one leg as picked by the user, before it is persisted.
type Selection struct {
	EventID    string    `json:"event_id"`
	SportKey   string    `json:"sport_key"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	GameTime   time.Time `json:"game_time"`
	MarketID   string    `json:"market_id"`
	Price      int       `json:"price"`
	Line       *float64  `json:"line,omitempty"`
	Label      string    `json:"label,omitempty"`       // e.g. "LeBron James Over 25.5"
	PlayerName string    `json:"player_name,omitempty"` // optional hint from the client
}

// Wager is the canonical persisted wager row. A parlay is several rows sharing
// GroupID; only the first carries stake, payout and profit.
type Wager struct {
	UserID          string
	ExternalID      string
	Sport           string
	League          string
	BetType         BetKind
	Description     string
	EventID         string
	MarketID        string
	Price           int
	Line            *float64
	Stake           decimal.Decimal
	PotentialPayout decimal.Decimal
	Status          WagerStatus
	Profit          decimal.NullDecimal
	PlacedAt        time.Time
	SettledAt       *time.Time
	GameTime        *time.Time
	HomeTeam        string
	AwayTeam        string
	PlayerName      string
	PropType        string
	Side            string
	GroupID         string
	IsGroup         bool
	LegIndex        int
}

// CarriesMoney reports whether this row holds the stake of its wager
// (singles always do, group siblings never do).
func (w Wager) CarriesMoney() bool {
	return !w.IsGroup || !w.Stake.IsZero()
}

// GroupOutcome is the derived result of a parlay.
type GroupOutcome string

const (
	OutcomePending GroupOutcome = "pending"
	OutcomeWin     GroupOutcome = "win"
	OutcomeLoss    GroupOutcome = "loss"
	OutcomePush    GroupOutcome = "push"
)

// DeriveGroupOutcome folds leg statuses with the order loss > pending > push > win.
// Void and cancelled legs both count as pushes.
func DeriveGroupOutcome(statuses []WagerStatus) GroupOutcome {
	pending, push := false, false
	for _, s := range statuses {
		switch s {
		case StatusLost:
			return OutcomeLoss
		case StatusWon:
		case StatusVoid, StatusCancelled:
			push = true
		default:
			pending = true
		}
	}
	switch {
	case pending || len(statuses) == 0:
		return OutcomePending
	case push:
		return OutcomePush
	default:
		return OutcomeWin
	}
}
