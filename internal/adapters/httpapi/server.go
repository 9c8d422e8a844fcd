// Package httpapi exposes wager submission, wager history, market
// classification and stored quotes over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/betsync/internal/application/wagers"
	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/alejandrodnm/betsync/internal/ports"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// WagerService is the part of the submission service the API drives.
type WagerService interface {
	SubmitSingle(ctx context.Context, req wagers.SingleRequest) (domain.Wager, error)
	SubmitParlay(ctx context.Context, req wagers.ParlayRequest) ([]domain.Wager, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Wager, error)
	Group(ctx context.Context, userID, groupID string) ([]domain.Wager, error)
}

// Options configures the router.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	wagers WagerService
	quotes ports.QuoteStorage
	now    func() time.Time
}

// NewServer builds the handler set.
func NewServer(svc WagerService, quotes ports.QuoteStorage) *Server {
	return &Server{wagers: svc, quotes: quotes, now: time.Now}
}

// Router mounts every route with the standard middleware chain.
func (s *Server) Router(opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/wagers", s.createWager)
		r.Post("/parlays", s.createParlay)
		r.Get("/users/{userID}/wagers", s.listWagers)
		r.Get("/users/{userID}/parlays/{groupID}", s.getParlay)
		r.Get("/markets/{marketID}/classification", s.classifyMarket)
		r.Get("/events/{eventID}/quotes", s.eventQuotes)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.now().UTC(),
	})
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
