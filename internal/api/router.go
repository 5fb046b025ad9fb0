package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sidedish/sidedish/internal/database"
	mw "github.com/sidedish/sidedish/internal/middleware"
	inats "github.com/sidedish/sidedish/internal/nats"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth handlers
	Register http.HandlerFunc
	Login    http.HandlerFunc
	Refresh  http.HandlerFunc
	Logout   http.HandlerFunc

	// User profiles
	GetMe         http.HandlerFunc
	UpdateMe      http.HandlerFunc
	GetProfile    http.HandlerFunc

	// Project showcases
	ListProjects  http.HandlerFunc
	GetProject    http.HandlerFunc
	UpdateProject http.HandlerFunc
	DeleteProject http.HandlerFunc
	LikeProject   http.HandlerFunc
	UnlikeProject http.HandlerFunc
	ListComments  http.HandlerFunc
	CreateComment http.HandlerFunc
	DeleteComment http.HandlerFunc

	// Whispers (private feedback)
	SendWhisper     http.HandlerFunc
	ListInbox       http.HandlerFunc
	ListOutbox      http.HandlerFunc
	MarkWhisperRead http.HandlerFunc

	// Drafts + AI copywriting
	SaveDraft       http.HandlerFunc
	ListDrafts      http.HandlerFunc
	GetDraft        http.HandlerFunc
	DeleteDraft     http.HandlerFunc
	PublishDraft    http.HandlerFunc
	SelectCandidate http.HandlerFunc
	Generate        http.HandlerFunc
	GetUsage        http.HandlerFunc

	// Image uploads
	UploadImage http.HandlerFunc

	// Activity feed
	ListActivity http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, natsClient *inats.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public) — optionally rate-limited
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Public reads
		r.Get("/users/{handle}", h.GetProfile)
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{projectID}", h.GetProject)
		r.Get("/projects/{projectID}/comments", h.ListComments)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", h.GetMe)
				r.Put("/", h.UpdateMe)
			})

			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Put("/", h.UpdateProject)
				r.Delete("/", h.DeleteProject)
				r.Post("/like", h.LikeProject)
				r.Delete("/like", h.UnlikeProject)
				r.Post("/comments", h.CreateComment)
				r.Delete("/comments/{commentID}", h.DeleteComment)
			})

			r.Route("/whispers", func(r chi.Router) {
				r.Post("/", h.SendWhisper)
				r.Get("/inbox", h.ListInbox)
				r.Get("/outbox", h.ListOutbox)
				r.Post("/{whisperID}/read", h.MarkWhisperRead)
			})

			r.Route("/drafts", func(r chi.Router) {
				r.Get("/", h.ListDrafts)
				r.Post("/", h.SaveDraft)

				r.Route("/{draftID}", func(r chi.Router) {
					r.Get("/", h.GetDraft)
					r.Delete("/", h.DeleteDraft)
					r.Post("/publish", h.PublishDraft)
					r.Post("/generate", h.Generate)
					r.Get("/usage", h.GetUsage)
					r.Post("/candidates/{candidateID}/select", h.SelectCandidate)
				})
			})

			r.Post("/uploads/images", h.UploadImage)
			r.Get("/activity", h.ListActivity)
		})
	})

	return r
}
