package api

import (
	"net/http"
	"time"

	"novachat-backend/internal/config"
	"novachat-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler *handlers.AuthHandler
	ChatHandler *handlers.ChatHandlers
	RateLimiter *RateLimiter // nil disables rate limiting
	Config      *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	// The chat endpoint waits for the full inference stream, so the request
	// timeout has to sit above the gateway's own deadline.
	r.Use(middleware.Timeout(deps.Config.InferenceTimeout + 15*time.Second))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No session required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.Get("/google/login", deps.AuthHandler.HandleGoogleLogin)
		r.Get("/google/callback", deps.AuthHandler.HandleGoogleCallback)
	})

	// --- Authenticated Routes (Session required) ---
	r.Route("/v1/chat", func(r chi.Router) {
		if deps.ChatHandler == nil {
			panic("ChatHandler dependency is nil in router setup")
		}
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Limit)
		}

		r.Post("/", deps.ChatHandler.HandleSendMessage)
		r.Get("/", deps.ChatHandler.HandleGetChat)
		r.Delete("/", deps.ChatHandler.HandleDeleteChat)
	})

	return r
}
