package sportsbook

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Raw DTOs of the feed. They never leave this package; mapping.go and
// records.go turn them into domain values.

// eventsResponse is GET /v1/leagues/{league}/events.
type eventsResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID        string `json:"id"`
	SportKey  string `json:"sport_key"`
	League    string `json:"league"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	StartTime string `json:"start_time"`
}

// oddsResponse is GET /v1/events/{id}/odds. Prices sometimes come as strings,
// so numeric fields use json.Number.
type oddsResponse struct {
	EventID string    `json:"event_id"`
	Odds    []oddsDTO `json:"odds"`
}

type oddsDTO struct {
	Sportsbook string      `json:"sportsbook"`
	MarketID   string      `json:"market_id"`
	Price      json.Number `json:"price"`
	Points     json.Number `json:"points"`
	DeepLink   string      `json:"deep_link"`
}

// slipsResponse is GET /v1/slips?since=. Records are decoded one by one so a
// bad record does not sink the page.
type slipsResponse struct {
	Records []json.RawMessage `json:"records"`
}

// legDTO is one leg as the feed reports it. Amounts are slip-level and
// repeated on every leg.
type legDTO struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Outcome    *string         `json:"outcome"`
	AtRisk     decimal.Decimal `json:"at_risk"`
	ToWin      decimal.Decimal `json:"to_win"`
	EventID    string          `json:"event_id"`
	SportKey   string          `json:"sport_key"`
	HomeTeam   string          `json:"home_team"`
	AwayTeam   string          `json:"away_team"`
	GameTime   string          `json:"game_time"`
	MarketID   string          `json:"market_id"`
	Price      json.Number     `json:"price"`
	Line       *float64        `json:"line"`
	Label      string          `json:"label"`
	PlayerName string          `json:"player_name"`
}

// recordEnvelope carries the type tag of a slip record.
type recordEnvelope struct {
	Type string `json:"type"`
}

// singleRecord is a slip of type "single": one leg under "leg".
type singleRecord struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	PlacedAt string `json:"placed_at"`
	Leg      legDTO `json:"leg"`
}

// parlayRecord is a slip of type "parlay": legs under "legs".
type parlayRecord struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	PlacedAt string   `json:"placed_at"`
	Legs     []legDTO `json:"legs"`
}
