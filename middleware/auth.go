package middleware

import (
	"net/http"
	"strings"

	"gitea.com/go-chi/session"
	"github.com/blogem/plant-maintenance/userctx"
)

// Session keys written by the login callback
const (
	sessionUserID       = "user_id"
	sessionUserNickname = "user_nickname"
	sessionRedirect     = "redirect_after_login"
)

// RequireAuth ensures the user is authenticated and puts the acting user in
// the request context. API requests without a session get 401; pages are
// redirected to /login with the intended destination remembered.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		userID, _ := sess.Get(sessionUserID).(string)

		if userID == "" {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"authentication required"}`))
				return
			}
			sess.Set(sessionRedirect, r.URL.Path)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, _ := sess.Get(sessionUserNickname).(string)
		if user == "" {
			user = userID
		}

		ctx := userctx.SetUserID(r.Context(), userID)
		ctx = userctx.SetUser(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
