// Package quotefeed implements ports.CandleSource against a Schwab-shaped
// market-data API: OAuth2 authorization-code token acquisition and
// refresh, plus rate-limited REST polling for candle history.
package quotefeed

import (
	"context"
	"fmt"

	"futuresregime/internal/adapters/credstore"
	"golang.org/x/oauth2"
)

// AuthConfig describes the vendor's OAuth2 endpoints and this
// application's registered client credentials.
type AuthConfig struct {
	AppKey      string
	AppSecret   string
	RedirectURI string
	AuthURL     string
	TokenURL    string
}

// oauth2Config builds the golang.org/x/oauth2 configuration for cfg.
func (cfg AuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.AppKey,
		ClientSecret: cfg.AppSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
		Scopes: []string{"readonly"},
	}
}

// AuthManager drives the authorization-code flow and subsequent refreshes.
type AuthManager struct {
	cfg AuthConfig
	oc  *oauth2.Config
}

// NewAuthManager constructs an AuthManager from cfg.
func NewAuthManager(cfg AuthConfig) *AuthManager {
	return &AuthManager{cfg: cfg, oc: cfg.oauth2Config()}
}

// AuthCodeURL builds the URL the operator visits in a browser to grant
// consent, with the given opaque CSRF-protection state value.
func (a *AuthManager) AuthCodeURL(state string) string {
	return a.oc.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code returned by the redirect
// callback for an access/refresh token pair.
func (a *AuthManager) ExchangeCode(ctx context.Context, code string) (credstore.Token, error) {
	tok, err := a.oc.Exchange(ctx, code)
	if err != nil {
		return credstore.Token{}, fmt.Errorf("quotefeed: exchange authorization code: %w", err)
	}
	return toStoredToken(tok), nil
}

// Refresh exchanges a refresh token for a fresh access token.
func (a *AuthManager) Refresh(ctx context.Context, refreshToken string) (credstore.Token, error) {
	src := a.oc.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return credstore.Token{}, fmt.Errorf("quotefeed: refresh access token: %w", err)
	}
	return toStoredToken(tok), nil
}

func toStoredToken(tok *oauth2.Token) credstore.Token {
	refresh := tok.RefreshToken
	return credstore.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    tok.Expiry,
	}
}
