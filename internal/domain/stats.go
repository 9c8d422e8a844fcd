package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngestStats summarizes one league cycle.
type IngestStats struct {
	League          string
	Events          int
	EventsStarted   int
	FetchFailures   int
	Markets         int
	Unparseable     int
	Excluded        int
	NoValidPrice    int
	OpeningInserted int
	CurrentWritten  int
	WriteFailures   int
	Duration        time.Duration
}

// SyncStats summarizes one reconciliation pass.
type SyncStats struct {
	Slips   int
	Written int
	Skipped int // no-op writes and unparseable legs
	Failed  int
}

// Add accumulates o into s.
func (s *SyncStats) Add(o SyncStats) {
	s.Slips += o.Slips
	s.Written += o.Written
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// SettledLeg is published after every settlement write.
type SettledLeg struct {
	UserID     string              `json:"user_id"`
	ExternalID string              `json:"external_id"`
	GroupID    string              `json:"group_id,omitempty"`
	Status     WagerStatus         `json:"status"`
	Profit     decimal.NullDecimal `json:"profit"`
	SettledAt  *time.Time          `json:"settled_at,omitempty"`
}

// WagerSummary aggregates settled figures for a report.
type WagerSummary struct {
	Total   int
	Pending int
	Won     int
	Lost    int
	Pushed  int
	Staked  decimal.Decimal
	Profit  decimal.Decimal
}

// Summarize counts only rows that carry money, so a parlay counts once.
func Summarize(wagers []Wager) WagerSummary {
	var s WagerSummary
	for _, w := range wagers {
		if !w.CarriesMoney() {
			continue
		}
		s.Total++
		s.Staked = s.Staked.Add(w.Stake)
		// A parlay carrier keeps its own leg status, so results are read off profit.
		switch {
		case !w.Profit.Valid:
			s.Pending++
			continue
		case w.Profit.Decimal.IsPositive():
			s.Won++
		case w.Profit.Decimal.IsNegative():
			s.Lost++
		default:
			s.Pushed++
		}
		s.Profit = s.Profit.Add(w.Profit.Decimal)
	}
	return s
}
