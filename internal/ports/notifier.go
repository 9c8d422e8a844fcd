package ports

import (
	"context"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// Notifier reports the result of each background cycle to an operator.
type Notifier interface {
	NotifyIngest(ctx context.Context, stats domain.IngestStats) error
	NotifySync(ctx context.Context, stats domain.SyncStats) error
}
