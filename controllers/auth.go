package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"

	"gitea.com/go-chi/session"
	"github.com/blogem/plant-maintenance/authenticator"
)

// Session keys shared with the auth middleware
const (
	SessionUserID       = "user_id"
	SessionUserNickname = "user_nickname"
	SessionRedirect     = "redirect_after_login"
	sessionState        = "state"
)

type AuthController struct {
	provider authenticator.Provider
}

func NewAuthController(provider authenticator.Provider) *AuthController {
	return &AuthController{provider: provider}
}

// Login initiates the authentication process
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateRandomState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Save the state in the session to validate in callback
	sess := session.GetSession(r)
	if err := sess.Set(sessionState, state); err != nil {
		http.Error(w, "Failed to store session state", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, ac.provider.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the redirect back from the identity provider
func (ac *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	storedState, _ := sess.Get(sessionState).(string)
	if storedState == "" {
		http.Error(w, "State not found in session", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != storedState {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := ac.provider.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "Failed to exchange authorization code for a token: "+err.Error(), http.StatusUnauthorized)
		return
	}

	claims, err := ac.provider.GetClaims(r.Context(), token)
	if err != nil {
		http.Error(w, "Failed to verify ID Token: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if claims.Subject() == "" {
		http.Error(w, "ID Token has no subject", http.StatusUnauthorized)
		return
	}

	sess.Set(SessionUserID, claims.Subject())
	sess.Set(SessionUserNickname, claims.DisplayName())
	sess.Delete(sessionState)
	slog.Info("user logged in", "user", claims.DisplayName())

	target := "/"
	if redirect, ok := sess.Get(SessionRedirect).(string); ok && redirect != "" {
		target = redirect
		sess.Delete(SessionRedirect)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout clears the session and leaves through the provider's logout page
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	sess.Delete(SessionUserID)
	sess.Delete(SessionUserNickname)

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	http.Redirect(w, r, ac.provider.LogoutURL(scheme+"://"+r.Host+"/"), http.StatusTemporaryRedirect)
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
