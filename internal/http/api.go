package httpserver

import (
	"errors"
	"net/http"

	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
	"github.com/Clark-Hu/cinelog/internal/state"
)

type movieListResponse struct {
	Loaded bool           `json:"loaded"`
	Banner string         `json:"banner,omitempty"`
	Items  []domain.Movie `json:"items"`
}

type movieDetailResponse struct {
	Movie    domain.Movie           `json:"movie"`
	Stats    *domain.ReviewStats    `json:"stats"`
	Reviews  []domain.DisplayReview `json:"reviews"`
	Similar  []domain.Movie         `json:"similar"`
	Watched  bool                   `json:"watched"`
	Favorite bool                   `json:"favorite"`
}

type sessionResponse struct {
	State    domain.SessionState `json:"state"`
	UserID   int                 `json:"userId,omitempty"`
	Username string              `json:"username,omitempty"`
}

func (s *Server) handleAPIMovies(w http.ResponseWriter, r *http.Request) {
	snap, loaded := s.snapshot(r.Context())
	items := snap.Movies
	if items == nil {
		items = []domain.Movie{}
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{
		Loaded: loaded,
		Banner: s.cache.Banner(),
		Items:  items,
	})
}

func (s *Server) handleAPIMovie(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	view, err := s.movieView(r.Context(), id)
	if err != nil {
		if errors.Is(err, state.ErrMovieNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Error("load movie", "movie", id, "error", err)
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", state.BannerUnreachable)
		return
	}
	resp := movieDetailResponse{
		Movie:    view.Movie,
		Reviews:  view.Reviews,
		Similar:  view.Similar,
		Watched:  view.Watched,
		Favorite: view.Favorite,
	}
	if view.HasStats {
		stats := view.Stats
		resp.Stats = &stats
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIActivity(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.snapshot(r.Context())
	feed, err := s.activityFeed(r.Context(), snap, catalog.ParseActivityFilter(r.URL.Query().Get("filter")))
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", state.BannerUnreachable)
		return
	}
	s.respondJSON(w, http.StatusOK, feed)
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r.Context())
	resp := sessionResponse{State: domain.StateAnonymous}
	if v.Authenticated() {
		resp = sessionResponse{
			State:    v.State,
			UserID:   v.Session.UserID,
			Username: v.Session.Username,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}
