package httpserver

import (
	"errors"
	"net/http"

	"github.com/Clark-Hu/cinelog/internal/session"
)

type loginPage struct {
	Username string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if visitorFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, r, http.StatusOK, "", "")
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, username, banner string) {
	snap, loaded := s.cache.Snapshot()
	p := s.newPage(r, snap, loaded, "Log in")
	if banner != "" {
		p.Banner = banner
	}
	p.Data = loginPage{Username: username}
	s.render(w, status, "login", p)
}

type authFunc func(r *http.Request, current session.Visitor, username, password string) (session.Visitor, error)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, func(r *http.Request, current session.Visitor, username, password string) (session.Visitor, error) {
		return s.sessions.Login(r.Context(), current, username, password)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, func(r *http.Request, current session.Visitor, username, password string) (session.Visitor, error) {
		v, err := s.sessions.Signup(r.Context(), current, username, password)
		if err == nil {
			s.cache.Refresh(r.Context())
		}
		return v, err
	})
}

// authenticate runs a login or signup attempt. Failures re-render the form
// with a generic message and leave any existing session in place.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, fn authFunc) {
	if err := parseForm(w, r); err != nil {
		s.renderLogin(w, r, http.StatusBadRequest, "", "unable to read the form")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	v, err := fn(r, visitorFrom(r.Context()), username, password)
	if err != nil {
		status, msg := http.StatusUnauthorized, session.ErrAuthFailed.Error()
		if errors.Is(err, session.ErrMissingCredentials) {
			status, msg = http.StatusBadRequest, err.Error()
		}
		s.renderLogin(w, r, status, username, msg)
		return
	}
	s.setSessionCookie(w, v.Session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context(), visitorFrom(r.Context()))
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
