package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"novachat-backend/internal/auth"
	"novachat-backend/internal/models"
	"novachat-backend/internal/services"
	"novachat-backend/pkg/httputil"
)

const oauthStateCookie = "oauth_state"

// AuthService defines the interface expected from the auth service.
// This promotes loose coupling and testability.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GoogleAuthURL(state string) (string, error)
	GoogleSignIn(ctx context.Context, code string) (string, *models.User, error)
}

type AuthHandler struct {
	authService  AuthService
	tokenTTL     time.Duration
	secureCookie bool
}

func NewAuthHandler(authSvc AuthService, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authSvc,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

// HandleSignup handles the POST /v1/auth/signup request.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Signup handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			httputil.RespondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Signup failed due to an internal error")
		}
		return
	}

	resp := models.UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles the POST /v1/auth/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Login handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error")
		}
		return
	}

	h.setSessionCookie(w, token)
	httputil.RespondJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User: models.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	})
}

// HandleGoogleLogin handles GET /v1/auth/google/login. It pins a random CSRF
// state in a short-lived cookie and redirects to the Google consent screen.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		log.Printf("Error generating OAuth state: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Sign-in failed due to an internal error")
		return
	}

	url, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		if errors.Is(err, services.ErrOAuthNotConfigured) {
			httputil.RespondError(w, http.StatusNotFound, "Google sign-in is not enabled")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Sign-in failed due to an internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/v1/auth/google",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

// HandleGoogleCallback handles GET /v1/auth/google/callback. It validates the
// CSRF state, completes the code exchange, and issues the session token.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		httputil.RespondError(w, http.StatusUnauthorized, "Invalid OAuth state")
		return
	}

	// The state is single-use: expire the cookie as soon as it is consumed.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/v1/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	token, user, err := h.authService.GoogleSignIn(r.Context(), code)
	if err != nil {
		log.Printf("Google callback failed: %v", err)
		switch {
		case errors.Is(err, services.ErrOAuthNotConfigured):
			httputil.RespondError(w, http.StatusNotFound, "Google sign-in is not enabled")
		case errors.Is(err, services.ErrOAuthExchange):
			httputil.RespondError(w, http.StatusUnauthorized, "Google sign-in failed")
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Sign-in failed due to an internal error")
		}
		return
	}

	h.setSessionCookie(w, token)
	httputil.RespondJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User: models.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	})
}

// setSessionCookie mirrors the session token into a cookie for browser
// clients that don't manage an Authorization header themselves.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
