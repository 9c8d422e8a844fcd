package ports

import (
	"context"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// QuoteStorage persists the two views of a market's price.
type QuoteStorage interface {
	// SaveOpeningQuote inserts the quote only if no opening quote exists for
	// (event, market). It reports whether a row was written.
	SaveOpeningQuote(ctx context.Context, q domain.BestQuote) (bool, error)

	// UpsertCurrentQuote replaces the current quote for (event, market). It
	// reports false when the stored quote already had the same price and line.
	UpsertCurrentQuote(ctx context.Context, q domain.BestQuote) (bool, error)

	GetOpeningQuotes(ctx context.Context, eventID string) ([]domain.BestQuote, error)
	GetCurrentQuotes(ctx context.Context, eventID string) ([]domain.BestQuote, error)
}
