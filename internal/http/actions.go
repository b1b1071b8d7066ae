package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
)

const (
	maxFormBody    = 64 << 10
	maxCommentRune = 2000

	bannerReviewFailed = "could not publish the review"
	bannerMarkFailed   = "could not save your change"
	bannerFriendFailed = "could not add that friend"
	bannerRenameFailed = "could not update your profile"
)

// parseReviewForm validates a submitted review form.
func parseReviewForm(values url.Values) (domain.ReviewDraft, error) {
	var draft domain.ReviewDraft
	notes := []struct {
		field string
		dst   *int
	}{
		{"note_visual", &draft.NoteVisual},
		{"note_action", &draft.NoteAction},
		{"note_scenario", &draft.NoteScenario},
	}
	for _, n := range notes {
		raw := strings.TrimSpace(values.Get(n.field))
		if raw == "" {
			return domain.ReviewDraft{}, fmt.Errorf("%s is required", n.field)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.ReviewDraft{}, fmt.Errorf("%s must be a whole number", n.field)
		}
		*n.dst = v
	}
	if !catalog.ValidNotes(draft.NoteVisual, draft.NoteAction, draft.NoteScenario) {
		return domain.ReviewDraft{}, fmt.Errorf("notes must be between %d and %d", domain.MinNote, domain.MaxNote)
	}

	switch strings.ToLower(strings.TrimSpace(values.Get("favorite"))) {
	case "on", "true", "1", "yes":
		draft.Favorite = true
	}

	draft.Comment = strings.TrimSpace(values.Get("comment"))
	if utf8.RuneCountInString(draft.Comment) > maxCommentRune {
		return domain.ReviewDraft{}, fmt.Errorf("comment must be at most %d characters", maxCommentRune)
	}
	return draft, nil
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	return r.ParseForm()
}

// expireOnUnauthorized ends the visitor's session when the API no longer
// accepts its token.
func (s *Server) expireOnUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	s.sessions.Logout(r.Context(), visitorFrom(r.Context()))
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := parseForm(w, r); err != nil {
		s.renderMovie(w, r, http.StatusBadRequest, id, "unable to read the form")
		return
	}
	draft, err := parseReviewForm(r.PostForm)
	if err != nil {
		s.renderMovie(w, r, http.StatusUnprocessableEntity, id, err.Error())
		return
	}

	v := visitorFrom(r.Context())
	draft.UserID = v.UserID()
	draft.MovieID = id
	if _, err := s.api.CreateReview(r.Context(), v.Token(), draft); err != nil {
		if s.expireOnUnauthorized(w, r, err) {
			return
		}
		s.logger.Warn("create review failed", "movie", id, "user", draft.UserID, "error", err)
		s.renderMovie(w, r, http.StatusBadGateway, id, bannerReviewFailed)
		return
	}

	s.cache.Refresh(r.Context())
	http.Redirect(w, r, fmt.Sprintf("/movies/%d", id), http.StatusSeeOther)
}

// handleToggleMark flips a watched or favorite mark. The local set keeps the
// new membership even when the API call fails.
func (s *Server) handleToggleMark(kind domain.MarkKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := decodeIDParam(r)
		if err != nil {
			s.renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		v := visitorFrom(r.Context())
		if err := s.marks.Ensure(r.Context(), v.Token(), v.UserID()); err != nil {
			s.logger.Warn("could not load marks before toggle", "user", v.UserID(), "error", err)
		}
		if _, err := s.marks.Toggle(r.Context(), v.Token(), v.UserID(), id, kind); err != nil {
			if s.expireOnUnauthorized(w, r, err) {
				return
			}
			s.renderMovie(w, r, http.StatusBadGateway, id, bannerMarkFailed)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/movies/%d", id), http.StatusSeeOther)
	}
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, "unable to read the form")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	if username == "" {
		s.renderProfile(w, r, http.StatusUnprocessableEntity, "username cannot be blank")
		return
	}
	if _, err := s.sessions.Rename(r.Context(), visitorFrom(r.Context()), username); err != nil {
		if s.expireOnUnauthorized(w, r, err) {
			return
		}
		s.logger.Warn("rename failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, backend.ErrRejected) {
			status = http.StatusConflict
		}
		s.renderProfile(w, r, status, bannerRenameFailed)
		return
	}
	s.cache.Refresh(r.Context())
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.renderFriends(w, r, http.StatusBadRequest, "unable to read the form")
		return
	}
	friendID, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("friend_id")))
	if err != nil || friendID <= 0 {
		s.renderFriends(w, r, http.StatusUnprocessableEntity, "invalid friend id")
		return
	}
	v := visitorFrom(r.Context())
	if friendID == v.UserID() {
		s.renderFriends(w, r, http.StatusUnprocessableEntity, "you cannot add yourself")
		return
	}
	if err := s.api.AddFriend(r.Context(), v.Token(), v.UserID(), friendID); err != nil {
		if s.expireOnUnauthorized(w, r, err) {
			return
		}
		s.logger.Warn("add friend failed", "user", v.UserID(), "friend", friendID, "error", err)
		s.renderFriends(w, r, http.StatusBadGateway, bannerFriendFailed)
		return
	}
	s.cache.Refresh(r.Context())
	http.Redirect(w, r, "/friends", http.StatusSeeOther)
}
