package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/alejandrodnm/betsync/internal/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultInterval     = 5 * time.Minute
	defaultLeagueDelay  = 2 * time.Second
	defaultCycleTimeout = 2 * time.Minute
	defaultStartBuffer  = 5 * time.Minute
	defaultWorkers      = 4
)

// Config holds the ingestion settings.
type Config struct {
	Leagues      []string
	Interval     time.Duration // between full passes over Leagues
	LeagueDelay  time.Duration // minimum spacing between two league cycles
	CycleTimeout time.Duration // per league
	StartBuffer  time.Duration // current quotes freeze this long after start
	PriceCeiling int
	// SportCeilings overrides PriceCeiling per sport key or sport family.
	SportCeilings map[string]int
	FetchWorkers  int
	Once          bool
}

// DefaultConfig returns the settings used when the config file is silent.
func DefaultConfig() Config {
	return Config{
		Interval:     defaultInterval,
		LeagueDelay:  defaultLeagueDelay,
		CycleTimeout: defaultCycleTimeout,
		StartBuffer:  defaultStartBuffer,
		PriceCeiling: domain.DefaultPriceCeiling,
		FetchWorkers: defaultWorkers,
	}
}

// Ingestor pulls events and quotes per league, keeps the best price per
// market and persists it as opening and current quotes.
type Ingestor struct {
	cfg      Config
	events   ports.EventProvider
	quotes   ports.QuoteProvider
	store    ports.QuoteStorage
	notifier ports.Notifier
	pacer    *rate.Limiter
	now      func() time.Time
}

// New builds an Ingestor. notifier may be nil.
func New(
	cfg Config,
	events ports.EventProvider,
	quotes ports.QuoteProvider,
	store ports.QuoteStorage,
	notifier ports.Notifier,
) *Ingestor {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = def.CycleTimeout
	}
	if cfg.StartBuffer < 0 {
		cfg.StartBuffer = 0
	}
	if cfg.PriceCeiling <= 0 {
		cfg.PriceCeiling = def.PriceCeiling
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = def.FetchWorkers
	}

	pacer := rate.NewLimiter(rate.Inf, 1)
	if cfg.LeagueDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.LeagueDelay), 1)
	}

	return &Ingestor{
		cfg:      cfg,
		events:   events,
		quotes:   quotes,
		store:    store,
		notifier: notifier,
		pacer:    pacer,
		now:      time.Now,
	}
}

// Run ingests every configured league until ctx is cancelled.
// With cfg.Once a single pass is made.
func (in *Ingestor) Run(ctx context.Context) error {
	slog.Info("ingest starting",
		"leagues", len(in.cfg.Leagues),
		"interval", in.cfg.Interval,
		"workers", in.cfg.FetchWorkers,
		"once", in.cfg.Once,
	)

	if _, err := in.RunOnce(ctx); err != nil && in.cfg.Once {
		return err
	}
	if in.cfg.Once {
		return nil
	}

	ticker := time.NewTicker(in.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ingest stopped")
			return nil
		case <-ticker.C:
			if _, err := in.RunOnce(ctx); err != nil {
				slog.Error("ingest pass failed", "err", err)
			}
		}
	}
}

// RunOnce makes one sequential pass over the configured leagues. A league
// that fails is logged and skipped; the pass only stops early when ctx is
// done.
func (in *Ingestor) RunOnce(ctx context.Context) ([]domain.IngestStats, error) {
	all := make([]domain.IngestStats, 0, len(in.cfg.Leagues))
	var failed []error

	for _, league := range in.cfg.Leagues {
		if err := in.pacer.Wait(ctx); err != nil {
			return all, fmt.Errorf("ingest.RunOnce: %w", err)
		}

		stats, err := in.IngestLeague(ctx, league)
		if err != nil {
			slog.Warn("league cycle aborted", "league", league, "err", err)
			failed = append(failed, err)
			if ctx.Err() != nil {
				return all, fmt.Errorf("ingest.RunOnce: %w", ctx.Err())
			}
			continue
		}
		all = append(all, stats)

		if in.notifier != nil {
			if err := in.notifier.NotifyIngest(ctx, stats); err != nil {
				slog.Warn("notifier error", "err", err)
			}
		}
	}

	if len(failed) == len(in.cfg.Leagues) && len(failed) > 0 {
		return all, fmt.Errorf("ingest.RunOnce: every league failed: %w", errors.Join(failed...))
	}
	return all, nil
}

// IngestLeague runs one fetch cycle for a league. Fetching happens first and
// persistence only starts once every fetch is in, so an aborted cycle writes
// nothing.
func (in *Ingestor) IngestLeague(ctx context.Context, league string) (domain.IngestStats, error) {
	start := in.now()
	stats := domain.IngestStats{League: league}

	ctx, cancel := context.WithTimeout(ctx, in.cfg.CycleTimeout)
	defer cancel()

	events, err := in.events.FetchEvents(ctx, league)
	if err != nil {
		return stats, fmt.Errorf("ingest.IngestLeague: events %s: %w", league, err)
	}
	stats.Events = len(events)

	open := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if ev.Started(start, in.cfg.StartBuffer) {
			stats.EventsStarted++
			continue
		}
		open = append(open, ev)
	}

	quotes, failures, err := in.fetchQuotes(ctx, open)
	if err != nil {
		return stats, fmt.Errorf("ingest.IngestLeague: quotes %s: %w", league, err)
	}
	stats.FetchFailures = failures

	for i, ev := range open {
		if quotes[i] == nil {
			continue
		}
		in.persistEvent(ctx, ev, quotes[i], &stats)
	}

	stats.Duration = in.now().Sub(start)
	slog.Debug("league cycle done",
		"league", league,
		"events", stats.Events,
		"markets", stats.Markets,
		"opening", stats.OpeningInserted,
		"current", stats.CurrentWritten,
	)
	return stats, nil
}

// fetchQuotes loads quotes for each event with a bounded worker count. Each
// worker writes only its own slot. A rate limit or an expired deadline aborts
// the whole fetch; any other per-event failure leaves a nil slot.
func (in *Ingestor) fetchQuotes(ctx context.Context, events []domain.Event) ([][]domain.Quote, int, error) {
	results := make([][]domain.Quote, len(events))
	failed := make([]bool, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.cfg.FetchWorkers)

	for i, ev := range events {
		g.Go(func() error {
			qs, err := in.quotes.FetchEventQuotes(gctx, ev.ID)
			if err != nil {
				if errors.Is(err, ports.ErrRateLimited) || gctx.Err() != nil {
					return err
				}
				slog.Debug("event quotes failed", "event", ev.ID, "err", err)
				failed[i] = true
				return nil
			}
			if qs == nil {
				qs = []domain.Quote{}
			}
			results[i] = qs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	return results, n, nil
}

func (in *Ingestor) persistEvent(ctx context.Context, ev domain.Event, quotes []domain.Quote, stats *domain.IngestStats) {
	ceiling := in.ceilingFor(ev.SportKey)
	order, groups := domain.GroupByMarket(quotes)

	for _, raw := range order {
		id, ok := domain.ParseMarketID(raw)
		if !ok {
			stats.Unparseable++
			continue
		}
		if id.Excluded {
			stats.Excluded++
			continue
		}

		best, ok := domain.BuildBestQuote(id, groups[raw], ceiling)
		if !ok {
			stats.NoValidPrice++
			continue
		}
		best.EventID = ev.ID
		stats.Markets++

		inserted, err := in.store.SaveOpeningQuote(ctx, best)
		if err != nil {
			stats.WriteFailures++
			slog.Warn("save opening quote", "event", ev.ID, "market", raw, "err", err)
			continue
		}
		if inserted {
			stats.OpeningInserted++
		}

		if ev.Started(in.now(), in.cfg.StartBuffer) {
			continue
		}
		written, err := in.store.UpsertCurrentQuote(ctx, best)
		if err != nil {
			stats.WriteFailures++
			slog.Warn("upsert current quote", "event", ev.ID, "market", raw, "err", err)
			continue
		}
		if written {
			stats.CurrentWritten++
		}
	}
}

// ceilingFor resolves the price ceiling: sport key first, then its family,
// then the global value.
func (in *Ingestor) ceilingFor(sportKey string) int {
	if c, ok := in.cfg.SportCeilings[sportKey]; ok && c > 0 {
		return c
	}
	if c, ok := in.cfg.SportCeilings[domain.SportFamily(sportKey)]; ok && c > 0 {
		return c
	}
	return in.cfg.PriceCeiling
}
