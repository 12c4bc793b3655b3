package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"novachat-backend/internal/auth"
	"novachat-backend/internal/models"
	"novachat-backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthService returns canned responses for handler tests.
type stubAuthService struct {
	signInToken string
	signInUser  *models.User
	signInErr   error
}

func (s *stubAuthService) Signup(_ context.Context, _, _ string) (*models.User, error) {
	return nil, services.ErrValidation
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (string, *models.User, error) {
	return "", nil, services.ErrInvalidCredentials
}

func (s *stubAuthService) GoogleAuthURL(state string) (string, error) {
	return "https://accounts.google.test/auth?state=" + state, nil
}

func (s *stubAuthService) GoogleSignIn(_ context.Context, _ string) (string, *models.User, error) {
	return s.signInToken, s.signInUser, s.signInErr
}

func callbackRequest(state, cookieState string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/google/callback?state="+state+"&code=authcode", nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: cookieState})
	}
	return req
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleGoogleCallback_ExpiresStateCookie(t *testing.T) {
	svc := &stubAuthService{
		signInToken: "session-token",
		signInUser:  &models.User{ID: uuid.New(), Email: "user@example.com"},
	}
	h := NewAuthHandler(svc, time.Hour, false)

	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, callbackRequest("abc123", "abc123"))

	assert.Equal(t, http.StatusOK, rec.Code)

	session := findCookie(t, rec, auth.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, "session-token", session.Value)

	// The state cookie is single-use and must not survive the callback.
	state := findCookie(t, rec, oauthStateCookie)
	require.NotNil(t, state)
	assert.Empty(t, state.Value)
	assert.Negative(t, state.MaxAge)
}

func TestHandleGoogleCallback_ExpiresStateCookieOnExchangeFailure(t *testing.T) {
	svc := &stubAuthService{signInErr: services.ErrOAuthExchange}
	h := NewAuthHandler(svc, time.Hour, false)

	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, callbackRequest("abc123", "abc123"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	state := findCookie(t, rec, oauthStateCookie)
	require.NotNil(t, state)
	assert.Negative(t, state.MaxAge)
}

func TestHandleGoogleCallback_RejectsStateMismatch(t *testing.T) {
	svc := &stubAuthService{signInToken: "session-token"}
	h := NewAuthHandler(svc, time.Hour, false)

	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, callbackRequest("attacker", "abc123"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, findCookie(t, rec, auth.SessionCookieName))
}

func TestHandleGoogleCallback_RejectsMissingCookie(t *testing.T) {
	svc := &stubAuthService{signInToken: "session-token"}
	h := NewAuthHandler(svc, time.Hour, false)

	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, callbackRequest("abc123", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, findCookie(t, rec, auth.SessionCookieName))
}
