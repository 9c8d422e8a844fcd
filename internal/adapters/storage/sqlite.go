package storage

// sqlite.go: quotes and wagers in one database file.
//
//   - opening_quotes: one row per (event, market), written once and never updated.
//   - current_quotes: one row per (event, market), UPSERT every ingestion cycle.
//     An in-memory cache turns the write into an observed_at touch when source,
//     price, line and per-book prices did not change, which is most markets on
//     most cycles.
//   - wagers: one row per (user, external id). Money is stored as TEXT so
//     decimals round-trip exactly.

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS opening_quotes (
    event_id     TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    market_name  TEXT NOT NULL,
    source       TEXT NOT NULL,
    price        INTEGER NOT NULL,
    line         REAL,
    book_prices  TEXT NOT NULL DEFAULT '{}',
    book_links   TEXT NOT NULL DEFAULT '{}',
    observed_at  TIMESTAMP NOT NULL,
    PRIMARY KEY (event_id, market_id)
);

CREATE TABLE IF NOT EXISTS current_quotes (
    event_id     TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    market_name  TEXT NOT NULL,
    source       TEXT NOT NULL,
    price        INTEGER NOT NULL,
    line         REAL,
    book_prices  TEXT NOT NULL DEFAULT '{}',
    book_links   TEXT NOT NULL DEFAULT '{}',
    observed_at  TIMESTAMP NOT NULL,
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
    line             REAL,
    stake            TEXT NOT NULL,
    potential_payout TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending',
    profit           TEXT,
    placed_at        TIMESTAMP NOT NULL,
    settled_at       TIMESTAMP,
    game_time        TIMESTAMP,
    home_team        TEXT,
    away_team        TEXT,
    player_name      TEXT,
    prop_type        TEXT,
    side             TEXT,
    group_id         TEXT,
    is_group         INTEGER NOT NULL DEFAULT 0,
    leg_index        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, external_id)
);

CREATE INDEX IF NOT EXISTS idx_current_observed ON current_quotes(observed_at);
CREATE INDEX IF NOT EXISTS idx_wagers_user      ON wagers(user_id, placed_at DESC);
CREATE INDEX IF NOT EXISTS idx_wagers_group     ON wagers(user_id, group_id);
CREATE INDEX IF NOT EXISTS idx_wagers_status    ON wagers(status);
`

// NewSQLiteStorage opens (or creates) the database at path, applies the schema,
// prunes stale current quotes and warms the write cache.
func NewSQLiteStorage(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := newStorage(db, dialectSQLite)
	s.migrate(context.Background())
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}
