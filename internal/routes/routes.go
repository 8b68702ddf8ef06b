// Package routes assembles the chi router.
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/journal-backend/internal/handlers"
	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/middleware"
)

// Options carries everything the router needs.
type Options struct {
	Handler        *handlers.Handler
	Auth           middleware.Authenticator
	Limiter        middleware.Limiter
	Logger         *logrus.Logger
	AllowedOrigin  string
	RequestTimeout time.Duration
	Production     bool
	// TrustProxy honours X-Forwarded-For and friends. Enable it only behind a
	// proxy that overwrites them, otherwise clients pick their own IP.
	TrustProxy bool
}

// NewRouter returns the router with the shared middleware stack applied.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(logger.Middleware(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigin))
	if opts.Production {
		r.Use(middleware.SecurityHeaders)
	}
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	SetupRoutes(r, opts)
	return r
}

// SetupRoutes registers the API endpoints on r.
func SetupRoutes(r chi.Router, opts Options) {
	h := opts.Handler

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Credential endpoints are rate limited per client IP.
	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(middleware.RateLimit(opts.Limiter, "auth"))
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(opts.Auth))

		r.Get("/me", h.Me)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Get("/{id}", h.GetEntry)
			r.Put("/{id}", h.UpdateEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":"method not allowed"}`))
	})
}
