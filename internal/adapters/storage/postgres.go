package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS opening_quotes (
    event_id     TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    market_name  TEXT NOT NULL,
    source       TEXT NOT NULL,
    price        INTEGER NOT NULL,
    line         DOUBLE PRECISION,
    book_prices  JSONB NOT NULL DEFAULT '{}',
    book_links   JSONB NOT NULL DEFAULT '{}',
    observed_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (event_id, market_id)
);

CREATE TABLE IF NOT EXISTS current_quotes (
    event_id     TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    market_name  TEXT NOT NULL,
    source       TEXT NOT NULL,
    price        INTEGER NOT NULL,
    line         DOUBLE PRECISION,
    book_prices  JSONB NOT NULL DEFAULT '{}',
    book_links   JSONB NOT NULL DEFAULT '{}',
    observed_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (event_id, market_id)
);

CREATE TABLE IF NOT EXISTS wagers (
    user_id          TEXT NOT NULL,
    external_id      TEXT NOT NULL,
    sport            TEXT NOT NULL,
    league           TEXT NOT NULL,
    bet_type         TEXT NOT NULL,
    description      TEXT NOT NULL,
    event_id         TEXT,
    market_id        TEXT,
    price            INTEGER NOT NULL,
    line             DOUBLE PRECISION,
    stake            NUMERIC(12,2) NOT NULL,
    potential_payout NUMERIC(12,2) NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending',
    profit           NUMERIC(12,2),
    placed_at        TIMESTAMPTZ NOT NULL,
    settled_at       TIMESTAMPTZ,
    game_time        TIMESTAMPTZ,
    home_team        TEXT,
    away_team        TEXT,
    player_name      TEXT,
    prop_type        TEXT,
    side             TEXT,
    group_id         TEXT,
    is_group         BOOLEAN NOT NULL DEFAULT FALSE,
    leg_index        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, external_id)
);

CREATE INDEX IF NOT EXISTS idx_current_observed ON current_quotes(observed_at);
CREATE INDEX IF NOT EXISTS idx_wagers_user      ON wagers(user_id, placed_at DESC);
CREATE INDEX IF NOT EXISTS idx_wagers_group     ON wagers(user_id, group_id);
CREATE INDEX IF NOT EXISTS idx_wagers_status    ON wagers(status);
`

// NewPostgresStorage connects to dsn ("postgres://..."), checks the connection
// and applies the schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStorage: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewPostgresStorage: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewPostgresStorage: apply schema: %w", err)
	}

	s := newStorage(db, dialectPostgres)
	s.migrate(ctx)
	s.pruneOld(ctx)
	s.warmCache(ctx)
	return s, nil
}

// rebind rewrites ? placeholders as $1, $2, ... Queries in this package never
// contain a literal question mark.
func rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
