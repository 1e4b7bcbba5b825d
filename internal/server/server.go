package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apperrors "searchsync/internal/errors"
	"searchsync/internal/payments"
	syncer "searchsync/internal/sync"
)

// Pinger is what the health endpoint needs from the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	logger         *slog.Logger
	db             Pinger
	search         *SearchHandler
	payments       *payments.Handler
	orchestrator   *syncer.Orchestrator
	allowedOrigins []string
}

func New(logger *slog.Logger, db Pinger, search *SearchHandler, paymentsHandler *payments.Handler, orchestrator *syncer.Orchestrator, allowedOrigins []string) *Server {
	return &Server{
		logger:         logger,
		db:             db,
		search:         search,
		payments:       paymentsHandler,
		orchestrator:   orchestrator,
		allowedOrigins: allowedOrigins,
	}
}

func (s *Server) Mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/v1/search", s.search.Handle)
		r.Post("/v1/payments/orders", s.payments.CreateOrder)
	})

	return r
}

// handleHealth reports liveness. The database must answer; the search
// index being degraded is reported but does not fail the check, since
// the worker deliberately keeps serving without search.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnavailable, "Database unavailable", err))
		return
	}

	apperrors.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"sync":   string(s.orchestrator.State()),
	})
}
