package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/betsync/internal/domain"
)

const quoteColumns = `event_id, market_id, market_name, source, price, line, book_prices, book_links, observed_at`

// SaveOpeningQuote inserts the first quote seen for (event, market). Later calls
// for the same key leave the stored row untouched and return false.
func (s *Storage) SaveOpeningQuote(ctx context.Context, q domain.BestQuote) (bool, error) {
	args, err := quoteArgs(q)
	if err != nil {
		return false, fmt.Errorf("storage.SaveOpeningQuote: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO opening_quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id, market_id) DO NOTHING`), args...)
	if err != nil {
		return false, fmt.Errorf("storage.SaveOpeningQuote: insert %s/%s: %w", q.EventID, q.MarketID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.SaveOpeningQuote: rows affected: %w", err)
	}
	return n > 0, nil
}

// UpsertCurrentQuote writes the latest best quote for (event, market). When the
// cache shows the same source, price, line and per-book prices were already
// written, only observed_at is refreshed and it returns false.
func (s *Storage) UpsertCurrentQuote(ctx context.Context, q domain.BestQuote) (bool, error) {
	prices, links, err := encodeBooks(q)
	if err != nil {
		return false, fmt.Errorf("storage.UpsertCurrentQuote: %w", err)
	}
	key := cacheKey(q.EventID, q.MarketID)
	next := toCached(q, prices, links)

	s.mu.Lock()
	prev, ok := s.cache[key]
	s.mu.Unlock()
	if ok && prev == next {
		if _, err := s.db.ExecContext(ctx, s.q(`
			UPDATE current_quotes SET observed_at = ?
			WHERE event_id = ? AND market_id = ?`),
			q.ObservedAt.UTC(), q.EventID, q.MarketID); err != nil {
			return false, fmt.Errorf("storage.UpsertCurrentQuote: touch %s/%s: %w", q.EventID, q.MarketID, err)
		}
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO current_quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id, market_id) DO UPDATE SET
			market_name = excluded.market_name,
			source      = excluded.source,
			price       = excluded.price,
			line        = excluded.line,
			book_prices = excluded.book_prices,
			book_links  = excluded.book_links,
			observed_at = excluded.observed_at`), quoteRow(q, prices, links)...); err != nil {
		return false, fmt.Errorf("storage.UpsertCurrentQuote: upsert %s/%s: %w", q.EventID, q.MarketID, err)
	}

	s.mu.Lock()
	s.cache[key] = next
	s.mu.Unlock()
	return true, nil
}

// GetOpeningQuotes returns the opening quotes of an event ordered by market.
func (s *Storage) GetOpeningQuotes(ctx context.Context, eventID string) ([]domain.BestQuote, error) {
	out, err := s.listQuotes(ctx, "opening_quotes", eventID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOpeningQuotes: %w", err)
	}
	return out, nil
}

// GetCurrentQuotes returns the current quotes of an event ordered by market.
func (s *Storage) GetCurrentQuotes(ctx context.Context, eventID string) ([]domain.BestQuote, error) {
	out, err := s.listQuotes(ctx, "current_quotes", eventID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetCurrentQuotes: %w", err)
	}
	return out, nil
}

func (s *Storage) listQuotes(ctx context.Context, table, eventID string) ([]domain.BestQuote, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+quoteColumns+`
		FROM `+table+`
		WHERE event_id = ?
		ORDER BY market_id`), eventID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []domain.BestQuote
	for rows.Next() {
		var (
			bq           domain.BestQuote
			line         sql.NullFloat64
			prices, link []byte
		)
		if err := rows.Scan(&bq.EventID, &bq.MarketID, &bq.MarketName, &bq.Source,
			&bq.Price, &line, &prices, &link, &bq.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if line.Valid {
			v := line.Float64
			bq.Line = &v
		}
		if err := json.Unmarshal(prices, &bq.BookPrices); err != nil {
			return nil, fmt.Errorf("decode book_prices: %w", err)
		}
		if err := json.Unmarshal(link, &bq.BookLinks); err != nil {
			return nil, fmt.Errorf("decode book_links: %w", err)
		}
		bq.ObservedAt = bq.ObservedAt.UTC()
		out = append(out, bq)
	}
	return out, rows.Err()
}

// warmCache loads the current quotes so the first cycle after a restart does
// not rewrite every market.
func (s *Storage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM current_quotes`,
	)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var (
			bq           domain.BestQuote
			line         sql.NullFloat64
			prices, link []byte
		)
		if rows.Scan(&bq.EventID, &bq.MarketID, &bq.MarketName, &bq.Source,
			&bq.Price, &line, &prices, &link, &bq.ObservedAt) != nil {
			continue
		}
		if line.Valid {
			v := line.Float64
			bq.Line = &v
		}
		// Re-encode so JSONB formatting matches what encodeBooks produces.
		if json.Unmarshal(prices, &bq.BookPrices) != nil || json.Unmarshal(link, &bq.BookLinks) != nil {
			continue
		}
		p, l, err := encodeBooks(bq)
		if err != nil {
			continue
		}
		s.cache[cacheKey(bq.EventID, bq.MarketID)] = toCached(bq, p, l)
	}
}

// quoteArgs returns the insert arguments for quoteColumns.
func quoteArgs(q domain.BestQuote) ([]any, error) {
	prices, links, err := encodeBooks(q)
	if err != nil {
		return nil, err
	}
	return quoteRow(q, prices, links), nil
}

func quoteRow(q domain.BestQuote, prices, links string) []any {
	var line sql.NullFloat64
	if q.Line != nil {
		line = sql.NullFloat64{Float64: *q.Line, Valid: true}
	}
	return []any{
		q.EventID, q.MarketID, q.MarketName, q.Source, q.Price, line,
		prices, links, q.ObservedAt.UTC(),
	}
}

// encodeBooks marshals the per-book maps. Map keys are sorted, so equal maps
// encode to equal strings.
func encodeBooks(q domain.BestQuote) (string, string, error) {
	prices, err := json.Marshal(nonNilPrices(q.BookPrices))
	if err != nil {
		return "", "", fmt.Errorf("encode book_prices: %w", err)
	}
	links, err := json.Marshal(nonNilLinks(q.BookLinks))
	if err != nil {
		return "", "", fmt.Errorf("encode book_links: %w", err)
	}
	return string(prices), string(links), nil
}

func toCached(q domain.BestQuote, prices, links string) cachedQuote {
	c := cachedQuote{source: q.Source, price: q.Price, books: prices + "|" + links}
	if q.Line != nil {
		c.line, c.hasLn = *q.Line, true
	}
	return c
}

func cacheKey(eventID, marketID string) string {
	return eventID + "|" + marketID
}

func nonNilPrices(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func nonNilLinks(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
