// Package server wires the remote service: the schedule mirror,
// the push subscription registry, and pairing.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	sharedmw "github.com/dukerupert/brightday/internal/middleware"
	"github.com/dukerupert/brightday/internal/remotesvc/handler"
	"github.com/dukerupert/brightday/internal/remotesvc/middleware"
	"github.com/dukerupert/brightday/internal/remotesvc/store"
)

type Config struct {
	// JWTSecret signs pairing tokens. Required.
	JWTSecret string
}

type Server struct {
	db            *sql.DB
	scheduleH     *handler.ScheduleHandler
	subscriptionH *handler.SubscriptionHandler
	pairingH      *handler.PairingHandler
	jwtSecret     []byte
	rateLimiter   *sharedmw.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	scheduleStore := store.NewScheduleStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	userStore := store.NewUserStore(db)

	secret := []byte(cfg.JWTSecret)

	return &Server{
		db:            db,
		scheduleH:     handler.NewScheduleHandler(scheduleStore, logger.With("component", "schedule")),
		subscriptionH: handler.NewSubscriptionHandler(subscriptionStore, logger.With("component", "subscription")),
		pairingH:      handler.NewPairingHandler(userStore, secret, logger.With("component", "pairing")),
		jwtSecret:     secret,
		rateLimiter:   sharedmw.NewRateLimiter(),
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *sharedmw.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Pairing routes are the only unauthenticated surface, so they get
	// a per-IP rate limit.
	limited := sharedmw.RateLimit(s.rateLimiter, sharedmw.RealIP, 10, time.Minute)
	mux.Handle("POST /api/register", limited(http.HandlerFunc(s.pairingH.Register)))
	mux.Handle("POST /api/pair", limited(http.HandlerFunc(s.pairingH.Pair)))

	authMw := middleware.RequireAuth(s.jwtSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMw(h)
	}

	mux.Handle("GET /api/users/{user}/schedules", protected(s.scheduleH.ModifiedSince))
	mux.Handle("GET /api/users/{user}/schedules/{date}", protected(s.scheduleH.Get))
	mux.Handle("PUT /api/users/{user}/schedules/{date}", protected(s.scheduleH.Put))
	mux.Handle("DELETE /api/users/{user}/schedules/{date}", protected(s.scheduleH.Delete))

	mux.Handle("GET /api/users/{user}/subscriptions", protected(s.subscriptionH.List))
	mux.Handle("POST /api/users/{user}/subscriptions", protected(s.subscriptionH.Upsert))
	mux.Handle("DELETE /api/users/{user}/subscriptions", protected(s.subscriptionH.Delete))

	return sharedmw.RequestLogger(s.logger)(mux)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
