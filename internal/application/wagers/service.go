// Package wagers records user wagers: single selections and combination
// (parlay) wagers stored as one row per leg.
package wagers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/alejandrodnm/betsync/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SingleRequest is one selection at one stake.
type SingleRequest struct {
	UserID    string
	Selection domain.Selection
	Stake     decimal.Decimal
}

// ParlayRequest combines several selections under one stake.
type ParlayRequest struct {
	UserID string
	Legs   []domain.Selection
	Stake  decimal.Decimal
}

// Service validates submissions and persists them pending.
type Service struct {
	store ports.WagerStorage
	now   func() time.Time
	newID func() string
}

// NewService builds a Service over the given store.
func NewService(store ports.WagerStorage) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SubmitSingle stores one pending wager whose payout is computed from the
// selection's price.
func (s *Service) SubmitSingle(ctx context.Context, req SingleRequest) (domain.Wager, error) {
	if err := validate(req.UserID, req.Stake, []domain.Selection{req.Selection}); err != nil {
		return domain.Wager{}, err
	}

	payout, err := domain.Payout(req.Stake, req.Selection.Price)
	if err != nil {
		return domain.Wager{}, fmt.Errorf("wagers.SubmitSingle: %w", err)
	}

	w := domain.MapWager(domain.WagerDraft{
		UserID:     req.UserID,
		ExternalID: s.newID(),
		Selection:  req.Selection,
		Stake:      req.Stake,
		Payout:     payout,
		PlacedAt:   s.now(),
	})

	if err := s.store.InsertWagers(ctx, []domain.Wager{w}); err != nil {
		return domain.Wager{}, fmt.Errorf("wagers.SubmitSingle: insert: %w", err)
	}
	slog.Info("wager recorded", "user", w.UserID, "id", w.ExternalID, "market", w.MarketID, "stake", w.Stake.StringFixed(2))
	return w, nil
}

// SubmitParlay stores a combination wager as one row per leg sharing a
// fresh group id. Only the first row carries stake and payout. The rows are
// inserted together or not at all.
func (s *Service) SubmitParlay(ctx context.Context, req ParlayRequest) ([]domain.Wager, error) {
	if err := domain.ValidateLegCount(len(req.Legs)); err != nil {
		return nil, err
	}
	if err := validate(req.UserID, req.Stake, req.Legs); err != nil {
		return nil, err
	}

	prices := make([]int, len(req.Legs))
	for i, leg := range req.Legs {
		prices[i] = leg.Price
	}
	payout, combined, err := domain.ParlayPayout(req.Stake, prices)
	if err != nil {
		return nil, fmt.Errorf("wagers.SubmitParlay: %w", err)
	}

	groupID := s.newID()
	placed := s.now()
	rows := make([]domain.Wager, len(req.Legs))
	for i, leg := range req.Legs {
		d := domain.WagerDraft{
			UserID:     req.UserID,
			ExternalID: s.newID(),
			Selection:  leg,
			Stake:      decimal.Zero,
			Payout:     decimal.Zero,
			GroupID:    groupID,
			LegIndex:   i,
			PlacedAt:   placed,
		}
		if i == 0 {
			d.Stake = req.Stake
			d.Payout = payout
		}
		rows[i] = domain.MapWager(d)
	}

	if err := s.store.InsertWagers(ctx, rows); err != nil {
		return nil, fmt.Errorf("wagers.SubmitParlay: insert: %w", err)
	}
	slog.Info("parlay recorded",
		"user", req.UserID,
		"group", groupID,
		"legs", len(rows),
		"combined", domain.FormatAmerican(combined),
		"payout", payout.StringFixed(2),
	)
	return rows, nil
}

// List returns the user's most recent wagers, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]domain.Wager, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrMissingUser
	}
	ws, err := s.store.ListWagers(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("wagers.List: %w", err)
	}
	return ws, nil
}

// Group returns every leg of one combination wager, money-carrying leg first.
func (s *Service) Group(ctx context.Context, userID, groupID string) ([]domain.Wager, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrMissingUser
	}
	ws, err := s.store.ListGroup(ctx, userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("wagers.Group: %w", err)
	}
	return ws, nil
}

func validate(userID string, stake decimal.Decimal, legs []domain.Selection) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrMissingUser
	}
	if err := domain.ValidateStake(stake); err != nil {
		return err
	}
	for _, leg := range legs {
		if strings.TrimSpace(leg.MarketID) == "" {
			return domain.ErrMissingMarket
		}
		if id, ok := domain.ParseMarketID(leg.MarketID); ok && id.Excluded {
			return domain.ErrExcludedMarket
		}
		if !domain.ValidPrice(leg.Price, domain.DefaultPriceCeiling) {
			return fmt.Errorf("%w: %d", domain.ErrInvalidOdds, leg.Price)
		}
	}
	return nil
}
