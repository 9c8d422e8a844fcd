package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// ErrRateLimited is returned by feed adapters when the upstream refuses a
// request for rate reasons. Ingestion abandons the current cycle on it.
var ErrRateLimited = errors.New("feed: rate limited")

// EventProvider lists the events a league currently has on the board.
type EventProvider interface {
	FetchEvents(ctx context.Context, league string) ([]domain.Event, error)
}

// QuoteProvider returns every source's quotes for one event.
type QuoteProvider interface {
	FetchEventQuotes(ctx context.Context, eventID string) ([]domain.Quote, error)
}

// SlipProvider returns settlement slips updated since the given time. The same
// slip may be returned again on later calls.
type SlipProvider interface {
	FetchSlips(ctx context.Context, since time.Time) ([]domain.Slip, error)
}
