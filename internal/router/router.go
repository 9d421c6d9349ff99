package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/middleware"
)

// Handlers groups the HTTP handlers the router mounts. WebSocket may be nil
// when no Redis pub/sub is available.
type Handlers struct {
	Chat      *handlers.ChatHandler
	Contact   *handlers.ContactHandler
	Project   *handlers.ProjectHandler
	Analytics *handlers.AnalyticsHandler
	Admin     *handlers.AdminHandler
	WebSocket http.HandlerFunc
}

func New(
	jwtAuth *middleware.JWTAuth,
	h Handlers,
	m *metrics.Metrics,
	burstLimiter *middleware.RateLimiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(logger.Component("http"), m))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(corsOptions(frontendURL)))

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Chat (public, daily quota enforced by the service) ────
		r.Post("/chat", h.Chat.Ask)
		r.Get("/chat/usage", h.Chat.Usage)

		// ──── Public projects ────
		r.Get("/projects", h.Project.List)

		// ──── Burst-limited public forms ────
		r.Group(func(r chi.Router) {
			r.Use(burstLimiter.Middleware)
			r.Post("/contact", h.Contact.Submit)
			r.Post("/admin/login", h.Admin.Login)
		})

		// ──── Admin ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/contacts", h.Contact.List)
			r.Post("/projects", h.Project.Create)
			r.Put("/projects/{id}", h.Project.Update)
			r.Delete("/projects/{id}", h.Project.Delete)
			r.Get("/analytics", h.Analytics.Get)
			r.Post("/init-defaults", h.Project.InitDefaults)
		})

		// ──── WebSocket (token query param) ────
		if h.WebSocket != nil {
			r.Get("/ws", h.WebSocket)
		}
	})

	return r
}

func corsOptions(frontendURL string) cors.Options {
	origins := []string{"*"}
	if frontendURL != "" {
		origins = []string{frontendURL}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: frontendURL != "",
		MaxAge:           int((12 * time.Hour).Seconds()),
	}
}
