package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"novachat-backend/internal/auth"
	"novachat-backend/internal/config"
	"novachat-backend/internal/models"
	"novachat-backend/internal/store"

	"github.com/google/uuid"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrValidation         = errors.New("input validation failed")
	ErrOAuthNotConfigured = errors.New("google sign-in is not configured")
	ErrOAuthExchange      = errors.New("google sign-in failed")
)

type AuthService struct {
	store  store.Store
	google auth.GoogleVerifier // nil when GOOGLE_CLIENT_ID is unset
	cfg    *config.Config
}

func NewAuthService(s store.Store, google auth.GoogleVerifier, cfg *config.Config) *AuthService {
	return &AuthService{
		store:  s,
		google: google,
		cfg:    cfg,
	}
}

// Signup creates a new password-backed user.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Error checking user existence for %s: %v", email, err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", email, err)
		return nil, ErrHashingPassword
	}

	user := &models.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		log.Printf("Error creating user for %s: %v", email, err)
		return nil, fmt.Errorf("creating user failed: %w", err)
	}

	log.Printf("Successfully signed up user %s (ID: %s)", email, user.ID)
	return user, nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't reveal whether the user exists or the password is wrong
			return "", nil, ErrInvalidCredentials
		}
		log.Printf("Error retrieving user %s during login: %v", email, err)
		return "", nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	// Google-backed accounts have no password to check
	if user.HashedPassword == "" || !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		log.Printf("Error generating JWT for user %s (ID: %s): %v", email, user.ID, err)
		return "", nil, ErrCreatingToken
	}

	log.Printf("Successfully logged in user %s (ID: %s)", email, user.ID)
	return token, user, nil
}

// GoogleAuthURL returns the Google consent URL for the given CSRF state.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrOAuthNotConfigured
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleSignIn completes the OAuth callback: exchanges the code, upserts the
// user keyed by the Google subject, and issues a session token.
func (s *AuthService) GoogleSignIn(ctx context.Context, code string) (string, *models.User, error) {
	if s.google == nil {
		return "", nil, ErrOAuthNotConfigured
	}

	googleUser, err := s.google.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google OAuth exchange failed: %v", err)
		return "", nil, ErrOAuthExchange
	}

	user, err := s.store.UpsertGoogleUser(ctx, googleUser.Subject, googleUser.Email, googleUser.Name)
	if err != nil {
		log.Printf("Error upserting google user %s: %v", googleUser.Subject, err)
		return "", nil, fmt.Errorf("failed to store user: %w", err)
	}

	token, err := auth.NewAccessToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		log.Printf("Error generating JWT for google user %s: %v", user.ID, err)
		return "", nil, ErrCreatingToken
	}

	log.Printf("Successfully signed in google user %s (ID: %s)", user.Email, user.ID)
	return token, user, nil
}
