package ui

import (
	"context"
	"net/http"
)

// Context keys for session data.
type contextKey string

const (
	sessionContextKey contextKey = "session"
)

// SessionFromContext retrieves the session from the request context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionMiddleware attaches the browser's session to the request context,
// starting a new one when the request carries none, and syncs the browser's
// backend cookies into it.
func (ui *UI) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := ui.sessions.GetSessionFromRequest(r)
		if err != nil {
			ui.logger.Error("session lookup failed", "error", err)
		}

		if sess == nil {
			sess, err = ui.sessions.CreateSession(r.Context())
			if err != nil {
				ui.logger.Error("create session failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}
		rec := sess.Record()
		SetSessionCookie(w, &rec, ui.secure)

		sess.SyncCookies(r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
