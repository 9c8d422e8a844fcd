package domain

import (
	"sort"
	"time"
)

// DefaultPriceCeiling is the largest |price| accepted from a feed. Anything
// above it is garbage and must never be persisted.
const DefaultPriceCeiling = 9999

// minAmericanAbs: American prices live outside (-100, +100).
const minAmericanAbs = 100

// Quote is one price observation for a market from one source.
type Quote struct {
	EventID    string
	Source     string // sportsbook key, e.g. "draftkings"
	MarketID   string // raw identifier
	Price      int    // American odds
	Line       *float64
	Link       string // deep link into the sportsbook, display only
	ObservedAt time.Time
}

// Event is a game as listed by the feed.
type Event struct {
	ID        string
	SportKey  string
	League    string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
}

// Started reports whether quotes for the event must stop refreshing:
// its start time plus buffer has elapsed.
func (e Event) Started(now time.Time, buffer time.Duration) bool {
	if e.StartTime.IsZero() {
		return false
	}
	return !now.Before(e.StartTime.Add(buffer))
}

// BestQuote is the persisted view of a market: the chosen price plus every
// source's price and link, kept for legacy display only.
type BestQuote struct {
	EventID    string
	Source     string
	MarketName string
	MarketID   string
	Price      int
	Line       *float64
	ObservedAt time.Time
	BookPrices map[string]int
	BookLinks  map[string]string
}

// ValidPrice reports whether a feed price is plausible American odds within the ceiling.
func ValidPrice(price, ceiling int) bool {
	if ceiling <= 0 {
		ceiling = DefaultPriceCeiling
	}
	abs := price
	if abs < 0 {
		abs = -abs
	}
	return abs >= minAmericanAbs && abs <= ceiling
}

// BetterPrice reports whether a pays more per unit staked than b.
// Any positive price beats any negative one, a larger positive beats a smaller
// one and a negative closer to zero beats a more negative one. For valid
// American prices that is plain integer order.
func BetterPrice(a, b int) bool {
	switch {
	case a > 0 && b < 0:
		return true
	case a < 0 && b > 0:
		return false
	default:
		return a > b
	}
}

// SelectBest picks the most favorable valid quote. Ties on price go to the
// lexicographically smallest source so the result does not depend on input
// order. ok is false when no quote passes the ceiling.
func SelectBest(quotes []Quote, ceiling int) (Quote, bool) {
	valid := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if ValidPrice(q.Price, ceiling) {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return Quote{}, false
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Price != valid[j].Price {
			return BetterPrice(valid[i].Price, valid[j].Price)
		}
		return valid[i].Source < valid[j].Source
	})
	return valid[0], true
}

// BuildBestQuote selects the best price among quotes that share an event and
// market and folds every source into the legacy per-book columns.
func BuildBestQuote(id MarketID, quotes []Quote, ceiling int) (BestQuote, bool) {
	best, ok := SelectBest(quotes, ceiling)
	if !ok {
		return BestQuote{}, false
	}

	bq := BestQuote{
		EventID:    best.EventID,
		Source:     best.Source,
		MarketName: DisplayName(id),
		MarketID:   id.Raw,
		Price:      best.Price,
		Line:       best.Line,
		ObservedAt: best.ObservedAt,
		BookPrices: make(map[string]int, len(quotes)),
		BookLinks:  make(map[string]string, len(quotes)),
	}
	for _, q := range quotes {
		if !ValidPrice(q.Price, ceiling) {
			continue
		}
		bq.BookPrices[q.Source] = q.Price
		if q.Link != "" {
			bq.BookLinks[q.Source] = q.Link
		}
	}
	return bq, true
}

// GroupByMarket buckets quotes by market identifier, keeping feed order.
func GroupByMarket(quotes []Quote) (order []string, groups map[string][]Quote) {
	groups = make(map[string][]Quote)
	for _, q := range quotes {
		if _, seen := groups[q.MarketID]; !seen {
			order = append(order, q.MarketID)
		}
		groups[q.MarketID] = append(groups[q.MarketID], q)
	}
	return order, groups
}
