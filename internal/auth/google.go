package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleUser is the subset of Google's OIDC userinfo response the service uses.
type GoogleUser struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier abstracts the Google OAuth code exchange so the auth service
// can be tested with a fake instead of a live identity provider.
type GoogleVerifier interface {
	// AuthCodeURL returns the consent-screen URL for the given CSRF state.
	AuthCodeURL(state string) string
	// Exchange swaps an authorization code for the authenticated Google user.
	Exchange(ctx context.Context, code string) (*GoogleUser, error)
}

// GoogleOAuth implements GoogleVerifier against the real Google endpoints.
type GoogleOAuth struct {
	config      *oauth2.Config
	userinfoURL string
}

// NewGoogleOAuth builds a GoogleVerifier from client credentials and the
// callback URL registered with Google.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		userinfoURL: googleUserinfoURL,
	}
}

// AuthCodeURL returns the Google consent URL carrying the CSRF state.
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange swaps the authorization code for an access token and fetches the
// userinfo record identifying the principal.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get(g.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching google userinfo failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding google userinfo failed: %w", err)
	}
	if user.Subject == "" {
		return nil, fmt.Errorf("google userinfo response missing subject")
	}

	return &user, nil
}
