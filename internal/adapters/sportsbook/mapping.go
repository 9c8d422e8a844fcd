package sportsbook

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
}

// parseTime accepts the handful of layouts the feed uses. Empty or unknown
// strings give the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parsePrice reads an American price sent as -110, "-110" or -110.0.
func parsePrice(n json.Number) (int, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	if i, err := json.Number(s).Int64(); err == nil {
		return int(i), nil
	}
	f, err := json.Number(s).Float64()
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, err)
	}
	return int(math.Round(f)), nil
}

func mapEvents(raw []eventDTO, league string) []domain.Event {
	events := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		e := domain.Event{
			ID:        r.ID,
			SportKey:  r.SportKey,
			League:    r.League,
			HomeTeam:  r.HomeTeam,
			AwayTeam:  r.AwayTeam,
			StartTime: parseTime(r.StartTime),
		}
		if e.League == "" {
			e.League = league
		}
		events = append(events, e)
	}
	return events
}

// mapQuotes converts odds rows; rows without a source, market or readable
// price are dropped here. Range checks belong to the selector.
func mapQuotes(eventID string, raw []oddsDTO, observedAt time.Time) []domain.Quote {
	quotes := make([]domain.Quote, 0, len(raw))
	for _, r := range raw {
		if r.Sportsbook == "" || r.MarketID == "" {
			continue
		}
		price, err := parsePrice(r.Price)
		if err != nil {
			continue
		}
		q := domain.Quote{
			EventID:    eventID,
			Source:     strings.ToLower(r.Sportsbook),
			MarketID:   r.MarketID,
			Price:      price,
			Link:       r.DeepLink,
			ObservedAt: observedAt,
		}
		if r.Points != "" {
			if v, err := r.Points.Float64(); err == nil {
				q.Line = &v
			}
		}
		quotes = append(quotes, q)
	}
	return quotes
}
