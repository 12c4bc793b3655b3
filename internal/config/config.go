package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort    string
	DatabaseURL string
	RedisURL    string // Optional; rate limiting is disabled when empty

	// Session tokens
	JWTSecret       string
	TokenExpiration time.Duration

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// Inference upstream (OpenAI-compatible endpoint)
	InferenceAPIKey   string
	InferenceBaseURL  string
	InferenceModel    string
	InferenceMaxToken int64
	InferenceTimeout  time.Duration

	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	hfKey := getEnv("HF_API_KEY", "")
	if hfKey == "" {
		return nil, fmt.Errorf("HF_API_KEY environment variable is not set")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	// The original web session lived for two hours; keep that as the default.
	tokenExpHours := getEnvInt("SESSION_EXPIRATION_HOURS", 2)
	inferenceTimeout := getEnvInt("INFERENCE_TIMEOUT_SECONDS", 60)
	maxTokens := getEnvInt("INFERENCE_MAX_TOKENS", 500)

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        dbURL,
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          jwtSecret,
		TokenExpiration:    time.Duration(tokenExpHours) * time.Hour,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/v1/auth/google/callback"),
		InferenceAPIKey:    hfKey,
		InferenceBaseURL:   getEnv("INFERENCE_BASE_URL", "https://router.huggingface.co/v1"),
		InferenceModel:     getEnv("INFERENCE_MODEL", "google/gemma-2-2b-it"),
		InferenceMaxToken:  int64(maxTokens),
		InferenceTimeout:   time.Duration(inferenceTimeout) * time.Second,
		CORSAllowedOrigins: []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, Model=%s, TokenExp=%s, InferenceTimeout=%s",
		cfg.HTTPPort, cfg.InferenceModel, cfg.TokenExpiration, cfg.InferenceTimeout)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return v
}
