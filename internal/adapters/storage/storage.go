package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/alejandrodnm/betsync/internal/ports"
)

var _ ports.Store = (*Storage)(nil)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// retentionCurrent bounds how long a current quote outlives its last refresh.
const retentionCurrent = 30 * 24 * time.Hour

// cachedQuote is the last current quote written for a market. books holds
// the encoded per-book prices and links.
type cachedQuote struct {
	source string
	price  int
	line   float64
	hasLn  bool
	books  string
}

// Storage implements ports.Store on top of database/sql, for SQLite and Postgres.
type Storage struct {
	db      *sql.DB
	dialect dialect
	cache   map[string]cachedQuote // event|market → last written current quote
	mu      sync.Mutex
}

func newStorage(db *sql.DB, d dialect) *Storage {
	return &Storage{
		db:      db,
		dialect: d,
		cache:   make(map[string]cachedQuote),
	}
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// q adapts a query written with ? placeholders to the dialect.
func (s *Storage) q(query string) string {
	if s.dialect == dialectPostgres {
		return rebind(query)
	}
	return query
}

// migrate adds columns missing from databases created by older versions.
// Each statement fails harmlessly when the column already exists.
func (s *Storage) migrate(ctx context.Context) {
	for _, stmt := range []string{
		"ALTER TABLE wagers ADD COLUMN leg_index INTEGER NOT NULL DEFAULT 0",
	} {
		s.db.ExecContext(ctx, stmt)
	}
}

// pruneOld drops current quotes that have not been refreshed for a long time.
// Opening quotes are kept.
func (s *Storage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCurrent)
	s.db.ExecContext(ctx, s.q(`DELETE FROM current_quotes WHERE observed_at < ?`), cutoff)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
