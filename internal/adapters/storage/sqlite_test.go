package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/betsync/internal/adapters/storage"
	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *storage.Storage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeQuote(eventID, marketID string, price int) domain.BestQuote {
	line := 221.5
	return domain.BestQuote{
		EventID:    eventID,
		Source:     "draftkings",
		MarketName: "Points Over",
		MarketID:   marketID,
		Price:      price,
		Line:       &line,
		ObservedAt: time.Now().UTC().Truncate(time.Second),
		BookPrices: map[string]int{"draftkings": price, "fanduel": price - 5},
		BookLinks:  map[string]string{"draftkings": "https://dk/evt"},
	}
}

func makeWager(extID string, stake int64) domain.Wager {
	return domain.Wager{
		UserID:          "u1",
		ExternalID:      extID,
		Sport:           "basketball",
		League:          "NBA",
		BetType:         domain.KindTotal,
		Description:     "Points Over 221.5 (-110)",
		EventID:         "evt1",
		MarketID:        "points-all-game-ou-over",
		Price:           -110,
		Stake:           decimal.NewFromInt(stake),
		PotentialPayout: decimal.RequireFromString("19.09"),
		Status:          domain.StatusPending,
		PlacedAt:        time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		Side:            "over",
	}
}

// --- quotes ---

func TestStorage_OpeningQuoteIsImmutable(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	inserted, err := db.SaveOpeningQuote(ctx, makeQuote("evt1", "points-all-game-ou-over", -110))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = db.SaveOpeningQuote(ctx, makeQuote("evt1", "points-all-game-ou-over", 120))
	require.NoError(t, err)
	assert.False(t, inserted)

	opening, err := db.GetOpeningQuotes(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, opening, 1)
	assert.Equal(t, -110, opening[0].Price)
	assert.Equal(t, map[string]int{"draftkings": -110, "fanduel": -115}, opening[0].BookPrices)
	require.NotNil(t, opening[0].Line)
	assert.InDelta(t, 221.5, *opening[0].Line, 1e-9)
}

func TestStorage_CurrentQuoteUpsertAndCache(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	written, err := db.UpsertCurrentQuote(ctx, makeQuote("evt1", "points-all-game-ou-over", -110))
	require.NoError(t, err)
	assert.True(t, written)

	// Same price and line: skipped by the cache.
	written, err = db.UpsertCurrentQuote(ctx, makeQuote("evt1", "points-all-game-ou-over", -110))
	require.NoError(t, err)
	assert.False(t, written)

	written, err = db.UpsertCurrentQuote(ctx, makeQuote("evt1", "points-all-game-ou-over", -105))
	require.NoError(t, err)
	assert.True(t, written)

	current, err := db.GetCurrentQuotes(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, -105, current[0].Price)
	assert.Equal(t, "https://dk/evt", current[0].BookLinks["draftkings"])
}

func TestStorage_CurrentQuoteBookPricesOnlyChange(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	first := makeQuote("evt1", "points-home-game-ml-home", -110)
	first.ObservedAt = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	first.BookPrices = map[string]int{"draftkings": -110, "fanduel": -115}
	written, err := db.UpsertCurrentQuote(ctx, first)
	require.NoError(t, err)
	require.True(t, written)

	// Best price unchanged, another book moved.
	next := first
	next.ObservedAt = first.ObservedAt.Add(5 * time.Minute)
	next.BookPrices = map[string]int{"draftkings": -110, "fanduel": -150}
	written, err = db.UpsertCurrentQuote(ctx, next)
	require.NoError(t, err)
	assert.True(t, written)

	current, err := db.GetCurrentQuotes(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, -150, current[0].BookPrices["fanduel"])
	assert.Equal(t, next.ObservedAt, current[0].ObservedAt)
}

func TestStorage_CurrentQuoteUnchangedRefreshesObservedAt(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	q := makeQuote("evt1", "points-all-game-ou-over", -110)
	q.ObservedAt = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	_, err := db.UpsertCurrentQuote(ctx, q)
	require.NoError(t, err)

	q.ObservedAt = q.ObservedAt.Add(time.Hour)
	written, err := db.UpsertCurrentQuote(ctx, q)
	require.NoError(t, err)
	assert.False(t, written)

	current, err := db.GetCurrentQuotes(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, q.ObservedAt, current[0].ObservedAt)
}

func TestStorage_WarmCacheAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.db")
	ctx := context.Background()
	q := makeQuote("evt1", "points-all-game-ou-over", -110)

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	written, err := db.UpsertCurrentQuote(ctx, q)
	require.NoError(t, err)
	require.True(t, written)
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	written, err = db.UpsertCurrentQuote(ctx, q)
	require.NoError(t, err)
	assert.False(t, written)

	q.BookPrices = map[string]int{"draftkings": -110, "fanduel": -140}
	written, err = db.UpsertCurrentQuote(ctx, q)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestStorage_GetQuotes_Empty(t *testing.T) {
	db := newStore(t)
	quotes, err := db.GetCurrentQuotes(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

// --- wagers ---

func TestStorage_InsertWagersAndList(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	first := makeWager("p1-0", 10)
	first.GroupID, first.IsGroup = "p1", true
	second := makeWager("p1-1", 0)
	second.GroupID, second.IsGroup = "p1", true
	second.PotentialPayout = decimal.Zero
	second.Profit = decimal.NewNullDecimal(decimal.Zero)

	require.NoError(t, db.InsertWagers(ctx, []domain.Wager{first, second}))

	group, err := db.ListGroup(ctx, "u1", "p1")
	require.NoError(t, err)
	require.Len(t, group, 2)
	assert.Equal(t, "10", group[0].Stake.String())
	assert.False(t, group[0].Profit.Valid)
	assert.True(t, group[1].Stake.IsZero())
	assert.True(t, group[1].Profit.Valid)
	assert.True(t, group[1].IsGroup)
	assert.Equal(t, first.PlacedAt, group[0].PlacedAt)

	all, err := db.ListWagers(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := db.ListWagers(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStorage_ListGroupByLegIndex(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	// External ids sort opposite to leg positions.
	carrier := makeWager("zz-carrier", 10)
	carrier.GroupID, carrier.IsGroup = "g1", true
	sibling := makeWager("aa-sibling", 0)
	sibling.GroupID, sibling.IsGroup, sibling.LegIndex = "g1", true, 1
	sibling.PotentialPayout = decimal.Zero

	require.NoError(t, db.InsertWagers(ctx, []domain.Wager{carrier, sibling}))

	group, err := db.ListGroup(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Len(t, group, 2)
	assert.Equal(t, "zz-carrier", group[0].ExternalID)
	assert.Equal(t, 0, group[0].LegIndex)
	assert.Equal(t, "aa-sibling", group[1].ExternalID)
	assert.Equal(t, 1, group[1].LegIndex)
}

func TestStorage_InsertWagersIsAtomic(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	require.NoError(t, db.InsertWagers(ctx, []domain.Wager{makeWager("dup", 10)}))

	// The second row collides, so the first must not be kept either.
	err := db.InsertWagers(ctx, []domain.Wager{makeWager("fresh", 10), makeWager("dup", 10)})
	require.Error(t, err)

	state, err := db.GetSettlementState(ctx, "u1", "fresh")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStorage_UpsertWagerOnlyTouchesSettlement(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	w := makeWager("s1", 10)
	require.NoError(t, db.UpsertWager(ctx, w))

	settledAt := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	w.Status = domain.StatusWon
	w.Profit = decimal.NewNullDecimal(decimal.RequireFromString("9.09"))
	w.SettledAt = &settledAt
	w.Stake = decimal.NewFromInt(999)
	w.Description = "changed"
	require.NoError(t, db.UpsertWager(ctx, w))

	state, err := db.GetSettlementState(ctx, "u1", "s1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, domain.StatusWon, state.Status)
	assert.Equal(t, "9.09", state.Profit.Decimal.String())
	require.NotNil(t, state.SettledAt)
	assert.True(t, settledAt.Equal(*state.SettledAt))

	rows, err := db.ListWagers(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].Stake.String())
	assert.Equal(t, "Points Over 221.5 (-110)", rows[0].Description)
}

func TestStorage_GetSettlementState_Missing(t *testing.T) {
	db := newStore(t)
	state, err := db.GetSettlementState(context.Background(), "u1", "nope")
	require.NoError(t, err)
	assert.Nil(t, state)
}
