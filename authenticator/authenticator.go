package authenticator

import (
	"context"
	"strings"
)

// Token represents an authentication token
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       int64
}

// Claims represents user claims from the ID token
type Claims map[string]interface{}

// Subject returns the "sub" claim
func (c Claims) Subject() string {
	return c.text("sub")
}

// Email returns the "email" claim
func (c Claims) Email() string {
	return c.text("email")
}

// DisplayName picks the name recorded as the acting user: email, then
// nickname, then name, then subject
func (c Claims) DisplayName() string {
	for _, key := range []string{"email", "nickname", "name", "sub"} {
		if v := c.text(key); v != "" {
			return v
		}
	}
	return ""
}

func (c Claims) text(key string) string {
	v, _ := c[key].(string)
	return strings.TrimSpace(v)
}

// Provider interface abstracts OAuth provider operations
type Provider interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	GetClaims(ctx context.Context, token *Token) (Claims, error)
	LogoutURL(returnTo string) string
}
