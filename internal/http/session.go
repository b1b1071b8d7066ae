package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
	"github.com/Clark-Hu/cinelog/internal/session"
)

const bannerSessionUnavailable = "cannot restore your session right now"

type visitorKey struct{}

type restoreFailedKey struct{}

// withVisitor restores the session named by the cookie and stores the
// visitor on the request context. Unknown or expired sessions clear the
// cookie; a store failure keeps it and serves the request anonymously.
func (s *Server) withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		v := session.Anonymous
		if c, err := r.Cookie(s.cfg.SessionCookieName); err == nil && c.Value != "" {
			restored, err := s.sessions.Restore(ctx, c.Value)
			switch {
			case err != nil:
				ctx = context.WithValue(ctx, restoreFailedKey{}, true)
			case !restored.Authenticated():
				s.clearSessionCookie(w)
			}
			v = restored
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, visitorKey{}, v)))
	})
}

func restoreFailed(ctx context.Context) bool {
	failed, _ := ctx.Value(restoreFailedKey{}).(bool)
	return failed
}

// requireVisitor sends anonymous visitors to the login page.
func (s *Server) requireVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !visitorFrom(r.Context()).Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func visitorFrom(ctx context.Context) session.Visitor {
	if v, ok := ctx.Value(visitorKey{}).(session.Visitor); ok {
		return v
	}
	return session.Anonymous
}

// viewer resolves the visitor's user record from the snapshot, falling back
// to what the session remembers.
func viewer(v session.Visitor, users []domain.User) *domain.User {
	if !v.Authenticated() {
		return nil
	}
	if u, ok := catalog.FindUser(users, v.UserID()); ok {
		return &u
	}
	return &domain.User{ID: v.Session.UserID, Username: v.Session.Username}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
