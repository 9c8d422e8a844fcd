package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/betsync/internal/domain"
)

const wagerColumns = `user_id, external_id, sport, league, bet_type, description, event_id, market_id,
	price, line, stake, potential_payout, status, profit, placed_at, settled_at, game_time,
	home_team, away_team, player_name, prop_type, side, group_id, is_group, leg_index`

const wagerPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

// InsertWagers stores every row in one transaction. A duplicate (user,
// external id) fails the whole batch.
func (s *Storage) InsertWagers(ctx context.Context, wagers []domain.Wager) error {
	if len(wagers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.InsertWagers: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO wagers (`+wagerColumns+`) VALUES (`+wagerPlaceholders+`)`))
	if err != nil {
		return fmt.Errorf("storage.InsertWagers: prepare: %w", err)
	}
	defer stmt.Close()

	for _, w := range wagers {
		if _, err := stmt.ExecContext(ctx, wagerArgs(w)...); err != nil {
			return fmt.Errorf("storage.InsertWagers: insert %s: %w", w.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.InsertWagers: commit: %w", err)
	}
	return nil
}

// UpsertWager inserts a wager, or when it already exists updates only its
// settlement fields. Stake and identifying columns are never rewritten.
func (s *Storage) UpsertWager(ctx context.Context, w domain.Wager) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO wagers (`+wagerColumns+`) VALUES (`+wagerPlaceholders+`)
		ON CONFLICT (user_id, external_id) DO UPDATE SET
			status     = excluded.status,
			profit     = excluded.profit,
			settled_at = excluded.settled_at`), wagerArgs(w)...)
	if err != nil {
		return fmt.Errorf("storage.UpsertWager: %s: %w", w.ExternalID, err)
	}
	return nil
}

// GetSettlementState returns the stored status, profit and settled_at of a
// wager, or nil when there is no such row.
func (s *Storage) GetSettlementState(ctx context.Context, userID, externalID string) (*domain.SettlementState, error) {
	var (
		st        domain.SettlementState
		status    string
		settledAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT status, profit, settled_at FROM wagers
		WHERE user_id = ? AND external_id = ?`), userID, externalID,
	).Scan(&status, &st.Profit, &settledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.GetSettlementState: %s: %w", externalID, err)
	}

	st.Status = domain.WagerStatus(status)
	if settledAt.Valid {
		t := settledAt.Time.UTC()
		st.SettledAt = &t
	}
	return &st, nil
}

// ListWagers returns a user's most recent wagers, newest first. limit <= 0
// means no limit.
func (s *Storage) ListWagers(ctx context.Context, userID string, limit int) ([]domain.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE user_id = ?
		ORDER BY placed_at DESC, group_id, leg_index, external_id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	out, err := s.queryWagers(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListWagers: %w", err)
	}
	return out, nil
}

// ListGroup returns every leg of a parlay by leg position, so the
// money-carrying leg comes first.
func (s *Storage) ListGroup(ctx context.Context, userID, groupID string) ([]domain.Wager, error) {
	out, err := s.queryWagers(ctx, s.q(`
		SELECT `+wagerColumns+` FROM wagers
		WHERE user_id = ? AND group_id = ?
		ORDER BY leg_index, external_id`), userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("storage.ListGroup: %w", err)
	}
	return out, nil
}

func (s *Storage) queryWagers(ctx context.Context, query string, args ...any) ([]domain.Wager, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWager(rows *sql.Rows) (domain.Wager, error) {
	var (
		w                                domain.Wager
		betType, status                  string
		eventID, marketID                sql.NullString
		homeTeam, awayTeam, player, prop sql.NullString
		side, groupID                    sql.NullString
		line                             sql.NullFloat64
		settledAt, gameTime              sql.NullTime
	)
	if err := rows.Scan(
		&w.UserID, &w.ExternalID, &w.Sport, &w.League, &betType, &w.Description,
		&eventID, &marketID, &w.Price, &line, &w.Stake, &w.PotentialPayout,
		&status, &w.Profit, &w.PlacedAt, &settledAt, &gameTime,
		&homeTeam, &awayTeam, &player, &prop, &side, &groupID, &w.IsGroup, &w.LegIndex,
	); err != nil {
		return domain.Wager{}, err
	}

	w.BetType = domain.BetKind(betType)
	w.Status = domain.WagerStatus(status)
	w.EventID = eventID.String
	w.MarketID = marketID.String
	w.HomeTeam = homeTeam.String
	w.AwayTeam = awayTeam.String
	w.PlayerName = player.String
	w.PropType = prop.String
	w.Side = side.String
	w.GroupID = groupID.String
	w.PlacedAt = w.PlacedAt.UTC()
	if line.Valid {
		v := line.Float64
		w.Line = &v
	}
	if settledAt.Valid {
		t := settledAt.Time.UTC()
		w.SettledAt = &t
	}
	if gameTime.Valid {
		t := gameTime.Time.UTC()
		w.GameTime = &t
	}
	return w, nil
}

func wagerArgs(w domain.Wager) []any {
	var line sql.NullFloat64
	if w.Line != nil {
		line = sql.NullFloat64{Float64: *w.Line, Valid: true}
	}
	return []any{
		w.UserID, w.ExternalID, w.Sport, w.League, string(w.BetType), w.Description,
		nullString(w.EventID), nullString(w.MarketID), w.Price, line,
		w.Stake.StringFixed(2), w.PotentialPayout.StringFixed(2), string(w.Status), w.Profit,
		w.PlacedAt.UTC(), nullTime(w.SettledAt), nullTime(w.GameTime),
		nullString(w.HomeTeam), nullString(w.AwayTeam), nullString(w.PlayerName),
		nullString(w.PropType), nullString(w.Side), nullString(w.GroupID), w.IsGroup, w.LegIndex,
	}
}
