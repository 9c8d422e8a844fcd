package ports

import (
	"context"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// WagerStorage persists wager rows keyed by (user id, external id).
type WagerStorage interface {
	// InsertWagers writes all rows in one transaction: either every row is
	// stored or none is.
	InsertWagers(ctx context.Context, wagers []domain.Wager) error

	// GetSettlementState returns nil when the row does not exist.
	GetSettlementState(ctx context.Context, userID, externalID string) (*domain.SettlementState, error)

	// UpsertWager inserts the row, or on conflict updates only status, profit
	// and settled_at.
	UpsertWager(ctx context.Context, w domain.Wager) error

	ListWagers(ctx context.Context, userID string, limit int) ([]domain.Wager, error)
	ListGroup(ctx context.Context, userID, groupID string) ([]domain.Wager, error)
}

// Store is everything a process needs from a single backing database.
type Store interface {
	QuoteStorage
	WagerStorage
	Close() error
}
