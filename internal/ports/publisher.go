package ports

import (
	"context"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// SettlementPublisher announces settlement writes to downstream consumers.
type SettlementPublisher interface {
	PublishSettled(ctx context.Context, leg domain.SettledLeg) error
}
