package sportsbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// Record types accepted from the settlement feed.
const (
	RecordSingle = "single"
	RecordParlay = "parlay"
)

var (
	ErrUnknownRecord = errors.New("sportsbook: unknown record type")
	ErrInvalidRecord = errors.New("sportsbook: invalid record")
)

// DecodeRecord validates one raw settlement record and turns it into a slip.
// It is the only place feed JSON is interpreted: anything that fails here is
// skipped by the caller and never reaches settlement.
func DecodeRecord(data []byte) (domain.Slip, error) {
	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Slip{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	switch strings.ToLower(env.Type) {
	case RecordSingle:
		var r singleRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return domain.Slip{}, fmt.Errorf("%w: single: %v", ErrInvalidRecord, err)
		}
		return buildSlip(RecordSingle, r.ID, r.UserID, r.PlacedAt, []legDTO{r.Leg})
	case RecordParlay:
		var r parlayRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return domain.Slip{}, fmt.Errorf("%w: parlay: %v", ErrInvalidRecord, err)
		}
		return buildSlip(RecordParlay, r.ID, r.UserID, r.PlacedAt, r.Legs)
	default:
		return domain.Slip{}, fmt.Errorf("%w: %q", ErrUnknownRecord, env.Type)
	}
}

func buildSlip(kind, id, userID, placedAt string, legs []legDTO) (domain.Slip, error) {
	if userID == "" {
		return domain.Slip{}, fmt.Errorf("%w: missing user_id", ErrInvalidRecord)
	}
	if id == "" && (len(legs) == 0 || legs[0].ID == "") {
		return domain.Slip{}, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if len(legs) == 0 {
		return domain.Slip{}, fmt.Errorf("%w: no legs", ErrInvalidRecord)
	}

	slip := domain.Slip{
		ID:       id,
		UserID:   userID,
		Kind:     kind,
		PlacedAt: parseTime(placedAt),
		Legs:     make([]domain.SlipLeg, 0, len(legs)),
	}
	for i, l := range legs {
		price, err := parsePrice(l.Price)
		if err != nil {
			return domain.Slip{}, fmt.Errorf("%w: leg %d: %v", ErrInvalidRecord, i, err)
		}
		if l.AtRisk.IsNegative() || l.ToWin.IsNegative() {
			return domain.Slip{}, fmt.Errorf("%w: leg %d: negative amount", ErrInvalidRecord, i)
		}
		slip.Legs = append(slip.Legs, domain.SlipLeg{
			ID:         l.ID,
			Status:     l.Status,
			Outcome:    l.Outcome,
			AtRisk:     l.AtRisk,
			ToWin:      l.ToWin,
			EventID:    l.EventID,
			SportKey:   l.SportKey,
			HomeTeam:   l.HomeTeam,
			AwayTeam:   l.AwayTeam,
			GameTime:   parseTime(l.GameTime),
			MarketID:   l.MarketID,
			Price:      price,
			Line:       l.Line,
			Label:      l.Label,
			PlayerName: l.PlayerName,
		})
	}
	return slip, nil
}
