package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"novachat-backend/internal/api"
	"novachat-backend/internal/auth"
	"novachat-backend/internal/config"
	"novachat-backend/internal/handlers"
	"novachat-backend/internal/llm"
	"novachat-backend/internal/services"
	"novachat-backend/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting NovaChat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		log.Fatalf("FATAL: Unable to ping database: %v\n", err)
	}
	log.Println("Database connection pool established and pinged successfully.")

	// 3. Initialize Dependencies (Store, Gateway, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool)
	log.Println("Postgres store initialized.")

	inferenceClient := llm.NewOpenAIClient(cfg.InferenceAPIKey, cfg.InferenceBaseURL)
	gateway := llm.NewGateway(inferenceClient, llm.Config{
		Model:     cfg.InferenceModel,
		MaxTokens: cfg.InferenceMaxToken,
		Timeout:   cfg.InferenceTimeout,
	})
	log.Printf("Inference gateway initialized (model %s).", cfg.InferenceModel)

	var google auth.GoogleVerifier
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
		log.Println("Google OAuth initialized.")
	} else {
		log.Println("WARN: GOOGLE_CLIENT_ID/SECRET not set, Google sign-in disabled.")
	}

	authService := services.NewAuthService(pgStore, google, cfg)
	log.Println("AuthService initialized.")
	chatService := services.NewChatService(pgStore, gateway)
	log.Println("ChatService initialized.")

	secureCookie := strings.HasPrefix(cfg.OAuthRedirectURL, "https://")
	authHandler := handlers.NewAuthHandler(authService, cfg.TokenExpiration, secureCookie)
	chatHandler := handlers.NewChatHandlers(chatService)
	log.Println("Handlers initialized.")

	// Optional Redis-backed rate limiting on the chat group
	var rateLimiter *api.RateLimiter
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("FATAL: Invalid REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(dbCtx).Err(); err != nil {
			log.Fatalf("FATAL: Unable to ping redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = api.NewRateLimiter(redisClient, 30, time.Minute)
		log.Println("Redis rate limiter initialized.")
	}

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler: authHandler,
		ChatHandler: chatHandler,
		RateLimiter: rateLimiter,
		Config:      cfg,
	})
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		// Chat responses wait for the full upstream stream before writing.
		WriteTimeout: cfg.InferenceTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
