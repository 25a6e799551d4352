package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleUserInfoURL is the OpenID Connect userinfo endpoint
const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// oauthExchangeTimeout bounds the token exchange so an unresponsive
// provider can't hang the request
const oauthExchangeTimeout = 10 * time.Second

var ErrEmailNotVerified = errors.New("google account email is not verified")

// GoogleProfile is the verified external identity consumed by the
// identity service. The provider's handshake internals stop here.
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleClient performs the OAuth code exchange and userinfo fetch against Google
type GoogleClient struct {
	config oauth2.Config
}

func NewGoogleClient(clientID, clientSecret, redirectURL string) *GoogleClient {
	return &GoogleClient{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthCodeURL returns the provider authorization URL for the given state
func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's verified profile.
// redirectURI overrides the configured redirect when the client supplies its own.
func (g *GoogleClient) Exchange(ctx context.Context, code, redirectURI string) (*GoogleProfile, error) {
	cfg := g.config
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}

	ctx, cancel := context.WithTimeout(ctx, oauthExchangeTimeout)
	defer cancel()

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	client := cfg.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request returned status %d", resp.StatusCode)
	}

	extracted := struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if extracted.Email == "" || !extracted.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &GoogleProfile{
		Subject: extracted.Sub,
		Email:   extracted.Email,
		Name:    extracted.Name,
		Picture: extracted.Picture,
	}, nil
}
