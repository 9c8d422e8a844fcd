package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/betsync/internal/application/wagers"
	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 1 << 20
)

type singleBody struct {
	UserID    string           `json:"user_id"`
	Stake     decimal.Decimal  `json:"stake"`
	Selection domain.Selection `json:"selection"`
}

type parlayBody struct {
	UserID string             `json:"user_id"`
	Stake  decimal.Decimal    `json:"stake"`
	Legs   []domain.Selection `json:"legs"`
}

type wagerView struct {
	ExternalID      string     `json:"external_id"`
	UserID          string     `json:"user_id"`
	Sport           string     `json:"sport"`
	League          string     `json:"league"`
	BetType         string     `json:"bet_type"`
	Description     string     `json:"description"`
	EventID         string     `json:"event_id,omitempty"`
	MarketID        string     `json:"market_id"`
	Price           int        `json:"price"`
	Line            *float64   `json:"line,omitempty"`
	Stake           string     `json:"stake"`
	PotentialPayout string     `json:"potential_payout"`
	Status          string     `json:"status"`
	Profit          *string    `json:"profit"`
	PlacedAt        time.Time  `json:"placed_at"`
	SettledAt       *time.Time `json:"settled_at,omitempty"`
	GameTime        *time.Time `json:"game_time,omitempty"`
	HomeTeam        string     `json:"home_team,omitempty"`
	AwayTeam        string     `json:"away_team,omitempty"`
	PlayerName      string     `json:"player_name,omitempty"`
	PropType        string     `json:"prop_type,omitempty"`
	Side            string     `json:"side,omitempty"`
	GroupID         string     `json:"group_id,omitempty"`
	IsGroup         bool       `json:"is_group"`
	LegIndex        int        `json:"leg_index"`
}

type quoteView struct {
	Source     string            `json:"source"`
	MarketName string            `json:"market_name"`
	MarketID   string            `json:"market_id"`
	Price      int               `json:"price"`
	Line       *float64          `json:"line,omitempty"`
	ObservedAt time.Time         `json:"observed_at"`
	BookPrices map[string]int    `json:"book_prices,omitempty"`
	BookLinks  map[string]string `json:"book_links,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) createWager(w http.ResponseWriter, r *http.Request) {
	var body singleBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	wager, err := s.wagers.SubmitSingle(r.Context(), wagers.SingleRequest{
		UserID:    body.UserID,
		Selection: body.Selection,
		Stake:     body.Stake,
	})
	if err != nil {
		respondSubmitError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toWagerView(wager))
}

func (s *Server) createParlay(w http.ResponseWriter, r *http.Request) {
	var body parlayBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rows, err := s.wagers.SubmitParlay(r.Context(), wagers.ParlayRequest{
		UserID: body.UserID,
		Legs:   body.Legs,
		Stake:  body.Stake,
	})
	if err != nil {
		respondSubmitError(w, err)
		return
	}

	views := make([]wagerView, len(rows))
	for i, row := range rows {
		views[i] = toWagerView(row)
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"group_id":         rows[0].GroupID,
		"stake":            rows[0].Stake.StringFixed(2),
		"potential_payout": rows[0].PotentialPayout.StringFixed(2),
		"legs":             views,
	})
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := parseIntParam(r, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.wagers.List(r.Context(), userID, limit)
	if err != nil {
		respondSubmitError(w, err)
		return
	}

	views := make([]wagerView, len(rows))
	for i, row := range rows {
		views[i] = toWagerView(row)
	}
	sum := domain.Summarize(rows)
	respondJSON(w, http.StatusOK, map[string]any{
		"wagers": views,
		"count":  len(views),
		"summary": map[string]any{
			"total":   sum.Total,
			"pending": sum.Pending,
			"won":     sum.Won,
			"lost":    sum.Lost,
			"pushed":  sum.Pushed,
			"staked":  sum.Staked.StringFixed(2),
			"profit":  sum.Profit.StringFixed(2),
		},
	})
}

// getParlay shows one combination wager leg by leg with its derived outcome.
func (s *Server) getParlay(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	groupID := chi.URLParam(r, "groupID")

	rows, err := s.wagers.Group(r.Context(), userID, groupID)
	if err != nil {
		respondSubmitError(w, err)
		return
	}
	if len(rows) == 0 {
		respondError(w, http.StatusNotFound, "parlay not found", nil)
		return
	}

	views := make([]wagerView, len(rows))
	statuses := make([]domain.WagerStatus, len(rows))
	carrier := rows[0]
	for i, row := range rows {
		views[i] = toWagerView(row)
		statuses[i] = row.Status
		if row.CarriesMoney() && !carrier.CarriesMoney() {
			carrier = row
		}
	}

	var profit *string
	if carrier.Profit.Valid {
		p := carrier.Profit.Decimal.StringFixed(2)
		profit = &p
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"group_id":         groupID,
		"outcome":          domain.DeriveGroupOutcome(statuses),
		"stake":            carrier.Stake.StringFixed(2),
		"potential_payout": carrier.PotentialPayout.StringFixed(2),
		"profit":           profit,
		"legs":             views,
	})
}

func (s *Server) classifyMarket(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "marketID")
	id, ok := domain.ParseMarketID(raw)
	if !ok {
		respondError(w, http.StatusBadRequest, domain.ErrUnparseableMarket.Error(), nil)
		return
	}

	c, ok := domain.Classify(id, r.URL.Query().Get("sport"))
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, domain.ErrExcludedMarket.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"market_id":     id.Raw,
		"main":          c.Main,
		"sub":           c.Sub,
		"sub_sub":       c.SubSub,
		"display_name":  c.DisplayName,
		"player_scoped": id.PlayerScoped,
		"bet_kind":      domain.InferBetKind(id.Raw),
	})
}

func (s *Server) eventQuotes(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	opening, err := s.quotes.GetOpeningQuotes(r.Context(), eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load opening quotes", err)
		return
	}
	current, err := s.quotes.GetCurrentQuotes(r.Context(), eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load current quotes", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"event_id": eventID,
		"opening":  toQuoteViews(opening),
		"current":  toQuoteViews(current),
	})
}

func toWagerView(w domain.Wager) wagerView {
	v := wagerView{
		ExternalID:      w.ExternalID,
		UserID:          w.UserID,
		Sport:           w.Sport,
		League:          w.League,
		BetType:         string(w.BetType),
		Description:     w.Description,
		EventID:         w.EventID,
		MarketID:        w.MarketID,
		Price:           w.Price,
		Line:            w.Line,
		Stake:           w.Stake.StringFixed(2),
		PotentialPayout: w.PotentialPayout.StringFixed(2),
		Status:          string(w.Status),
		PlacedAt:        w.PlacedAt,
		SettledAt:       w.SettledAt,
		GameTime:        w.GameTime,
		HomeTeam:        w.HomeTeam,
		AwayTeam:        w.AwayTeam,
		PlayerName:      w.PlayerName,
		PropType:        w.PropType,
		Side:            w.Side,
		GroupID:         w.GroupID,
		IsGroup:         w.IsGroup,
		LegIndex:        w.LegIndex,
	}
	if w.Profit.Valid {
		p := w.Profit.Decimal.StringFixed(2)
		v.Profit = &p
	}
	return v
}

func toQuoteViews(qs []domain.BestQuote) []quoteView {
	out := make([]quoteView, len(qs))
	for i, q := range qs {
		out[i] = quoteView{
			Source:     q.Source,
			MarketName: q.MarketName,
			MarketID:   q.MarketID,
			Price:      q.Price,
			Line:       q.Line,
			ObservedAt: q.ObservedAt,
			BookPrices: q.BookPrices,
			BookLinks:  q.BookLinks,
		}
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// validationErrors are reported to the caller verbatim.
var validationErrors = []error{
	domain.ErrInvalidStake,
	domain.ErrLegCount,
	domain.ErrTooFewLegs,
	domain.ErrInvalidOdds,
	domain.ErrExcludedMarket,
	domain.ErrMissingUser,
	domain.ErrMissingMarket,
}

func respondSubmitError(w http.ResponseWriter, err error) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			respondError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}
	respondError(w, http.StatusInternalServerError, "internal error", err)
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(param))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Warn("http error", "status", status, "message", message, "err", err)
	}
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
