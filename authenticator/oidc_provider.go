package authenticator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCProvider implements the Provider interface for any OpenID Connect issuer
type OIDCProvider struct {
	issuer   string
	provider *oidc.Provider
	config   oauth2.Config
}

// OIDCConfig holds OpenID Connect configuration
type OIDCConfig struct {
	Domain       string
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Validate checks that every setting is present
func (cfg OIDCConfig) Validate() error {
	if cfg.Domain == "" {
		return errors.New("domain is required")
	}
	if cfg.ClientID == "" {
		return errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	if cfg.CallbackURL == "" {
		return errors.New("callback URL is required")
	}
	return nil
}

// Issuer returns the issuer URL for the configured domain. A domain given
// with a scheme is used as is.
func (cfg OIDCConfig) Issuer() string {
	if strings.HasPrefix(cfg.Domain, "http://") || strings.HasPrefix(cfg.Domain, "https://") {
		return strings.TrimSuffix(cfg.Domain, "/") + "/"
	}
	return "https://" + cfg.Domain + "/"
}

// NewOIDCProvider discovers the issuer and creates a provider
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer())
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC issuer %s: %w", cfg.Issuer(), err)
	}

	conf := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &OIDCProvider{
		issuer:   cfg.Issuer(),
		provider: provider,
		config:   conf,
	}, nil
}

// GetAuthURL returns the authorization URL
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens
func (p *OIDCProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	oauth2Token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		Expiry:       oauth2Token.Expiry.Unix(),
	}

	if idToken, ok := oauth2Token.Extra("id_token").(string); ok {
		token.IDToken = idToken
	}

	return token, nil
}

// GetClaims verifies the ID token and extracts its claims
func (p *OIDCProvider) GetClaims(ctx context.Context, token *Token) (Claims, error) {
	if token.IDToken == "" {
		return nil, errors.New("no id_token in token")
	}

	idToken, err := p.provider.Verifier(&oidc.Config{ClientID: p.config.ClientID}).Verify(ctx, token.IDToken)
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// LogoutURL returns the issuer's logout endpoint redirecting to returnTo
func (p *OIDCProvider) LogoutURL(returnTo string) string {
	q := url.Values{}
	q.Set("client_id", p.config.ClientID)
	q.Set("returnTo", returnTo)
	return p.issuer + "v2/logout?" + q.Encode()
}
