// Package settlement reconciles persisted wagers against the settlement feed.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/alejandrodnm/betsync/internal/ports"
)

const (
	defaultInterval = time.Minute
	defaultLookback = 72 * time.Hour
)

// Config holds the reconciliation loop settings.
type Config struct {
	Interval time.Duration
	// Lookback is the window of slips requested from the feed on every pass.
	// The feed is replayable and writes are idempotent, so overlap is harmless.
	Lookback time.Duration
	Once     bool
}

// Reconciler turns feed slips into wager rows and settlement updates.
type Reconciler struct {
	cfg       Config
	slips     ports.SlipProvider
	store     ports.WagerStorage
	publisher ports.SettlementPublisher
	notifier  ports.Notifier
	now       func() time.Time
}

// New builds a Reconciler. slips is only needed by Run/RunOnce; publisher
// and notifier may be nil.
func New(
	cfg Config,
	slips ports.SlipProvider,
	store ports.WagerStorage,
	publisher ports.SettlementPublisher,
	notifier ports.Notifier,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	return &Reconciler{
		cfg:       cfg,
		slips:     slips,
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run polls the feed until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	slog.Info("settlement starting", "interval", r.cfg.Interval, "lookback", r.cfg.Lookback, "once", r.cfg.Once)

	if _, err := r.RunOnce(ctx); err != nil {
		slog.Error("settlement pass failed", "err", err)
		if r.cfg.Once {
			return err
		}
	}
	if r.cfg.Once {
		return nil
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("settlement stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				slog.Error("settlement pass failed", "err", err)
			}
		}
	}
}

// RunOnce fetches the slips in the lookback window and reconciles each of
// them. A failing slip does not stop the others; all failures are joined.
func (r *Reconciler) RunOnce(ctx context.Context) (domain.SyncStats, error) {
	var total domain.SyncStats

	since := r.now().Add(-r.cfg.Lookback)
	slips, err := r.slips.FetchSlips(ctx, since)
	if err != nil {
		return total, fmt.Errorf("settlement.RunOnce: fetch: %w", err)
	}

	var errs []error
	for _, slip := range slips {
		stats, err := r.ReconcileSlip(ctx, slip)
		total.Add(stats)
		if err != nil {
			errs = append(errs, err)
		}
	}

	slog.Info("settlement pass done",
		"slips", total.Slips,
		"written", total.Written,
		"skipped", total.Skipped,
		"failed", total.Failed,
	)
	if r.notifier != nil {
		if err := r.notifier.NotifySync(ctx, total); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return total, fmt.Errorf("settlement.RunOnce: %w", err)
	}
	return total, nil
}

// ReconcileSlip applies one slip. Each leg is read, merged with its stored
// state and written only when something changed. One leg failing never
// prevents the others from being written.
func (r *Reconciler) ReconcileSlip(ctx context.Context, slip domain.Slip) (domain.SyncStats, error) {
	stats := domain.SyncStats{Slips: 1}

	plan, err := domain.PlanSlip(slip)
	if err != nil {
		stats.Failed++
		return stats, fmt.Errorf("settlement.ReconcileSlip: slip %q: %w", slip.ID, err)
	}
	stats.Skipped += plan.Skipped

	var errs []error
	for _, leg := range plan.Legs {
		w := leg.Wager

		old, err := r.store.GetSettlementState(ctx, w.UserID, w.ExternalID)
		if err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("settlement.ReconcileSlip: read %s: %w", w.ExternalID, err))
			continue
		}

		next := domain.MergeSettlement(old, leg.State, r.now())
		if !domain.ShouldWrite(old, next) {
			stats.Skipped++
			continue
		}

		w.Status = next.Status
		w.Profit = next.Profit
		w.SettledAt = next.SettledAt
		if err := r.store.UpsertWager(ctx, w); err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("settlement.ReconcileSlip: write %s: %w", w.ExternalID, err))
			continue
		}
		stats.Written++
		slog.Debug("wager settled", "user", w.UserID, "id", w.ExternalID, "status", w.Status)

		r.publish(ctx, w)
	}

	return stats, errors.Join(errs...)
}

func (r *Reconciler) publish(ctx context.Context, w domain.Wager) {
	if r.publisher == nil {
		return
	}
	ev := domain.SettledLeg{
		UserID:     w.UserID,
		ExternalID: w.ExternalID,
		GroupID:    w.GroupID,
		Status:     w.Status,
		Profit:     w.Profit,
		SettledAt:  w.SettledAt,
	}
	if err := r.publisher.PublishSettled(ctx, ev); err != nil {
		slog.Warn("publish settled", "id", w.ExternalID, "err", err)
	}
}
