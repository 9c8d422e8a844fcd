package sportsbook

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
)

// FetchEvents lists the events of a league.
func (c *Client) FetchEvents(ctx context.Context, league string) ([]domain.Event, error) {
	var resp eventsResponse
	if err := c.get(ctx, "/v1/leagues/"+url.PathEscape(league)+"/events", nil, &resp); err != nil {
		return nil, fmt.Errorf("sportsbook.FetchEvents: %w", err)
	}
	return mapEvents(resp.Events, league), nil
}

// FetchEventQuotes returns every sportsbook's prices for one event.
func (c *Client) FetchEventQuotes(ctx context.Context, eventID string) ([]domain.Quote, error) {
	var resp oddsResponse
	if err := c.get(ctx, "/v1/events/"+url.PathEscape(eventID)+"/odds", nil, &resp); err != nil {
		return nil, fmt.Errorf("sportsbook.FetchEventQuotes: %w", err)
	}
	return mapQuotes(eventID, resp.Odds, c.now().UTC()), nil
}

// FetchSlips returns the settlement slips updated since the given time.
// Records that fail validation are logged and skipped.
func (c *Client) FetchSlips(ctx context.Context, since time.Time) ([]domain.Slip, error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}

	var resp slipsResponse
	if err := c.get(ctx, "/v1/slips", q, &resp); err != nil {
		return nil, fmt.Errorf("sportsbook.FetchSlips: %w", err)
	}

	slips := make([]domain.Slip, 0, len(resp.Records))
	for i, raw := range resp.Records {
		slip, err := DecodeRecord(raw)
		if err != nil {
			slog.Debug("skipping slip record", "index", i, "err", err)
			continue
		}
		slips = append(slips, slip)
	}
	return slips, nil
}
