package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
)

type mockAPI struct {
	current atomic.Pointer[database]
	logger  hclog.Logger
	now     func() time.Time
}

func newMockAPI(db *database, logger hclog.Logger) *mockAPI {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	m := &mockAPI{logger: logger, now: time.Now}
	m.current.Store(db)
	return m
}

// replace swaps in a freshly seeded database. Issued tokens survive.
func (m *mockAPI) replace(db *database) {
	old := m.current.Load()
	old.mu.RLock()
	for token, id := range old.tokens {
		db.tokens[token] = id
	}
	old.mu.RUnlock()
	m.current.Store(db)
}

func (m *mockAPI) routes(logRequests bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if logRequests {
		r.Use(middleware.Logger)
	}

	r.Get("/movies", m.listMovies)
	r.Get("/movies/search", m.searchMovies)
	r.Get("/movies/search/", m.searchMovies)
	r.Get("/movies/{id}", m.getMovie)

	r.Get("/users", m.listUsers)
	r.Patch("/users/{id}", m.updateUser)
	r.Get("/users/{id}/friends", m.listFriends)
	r.Get("/users/{id}/{kind}", m.listMarks)
	r.Put("/users/{id}/{kind}/{movieID}", m.setMark(true))
	r.Delete("/users/{id}/{kind}/{movieID}", m.setMark(false))
	r.Post("/friends", m.addFriend)

	r.Get("/reviews", m.listReviews)
	r.Post("/reviews", m.createReview)

	r.Post("/signup", m.signup)
	r.Post("/login", m.login)
	return r
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func intParam(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	return id, err == nil
}

// caller resolves the bearer token to a user id.
func (m *mockAPI) caller(db *database, r *http.Request) (int, bool) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return 0, false
	}
	id, ok := db.tokens[token]
	return id, ok
}

func (m *mockAPI) listMovies(w http.ResponseWriter, r *http.Request) {
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]domain.MovieSummary, 0, len(db.movies))
	for _, mv := range db.movies {
		s := domain.MovieSummary{ID: mv.ID, Title: mv.Title, Director: mv.Director, ReleaseYear: mv.ReleaseYear}
		if mv.PosterPath != "" {
			p := mv.PosterPath
			s.PosterPath = &p
		}
		out = append(out, s)
	}
	respondJSON(w, http.StatusOK, out)
}

func (m *mockAPI) searchMovies(w http.ResponseWriter, r *http.Request) {
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	respondJSON(w, http.StatusOK, db.search(r.URL.Query().Get("title")))
}

func (m *mockAPI) getMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid movie id")
		return
	}
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	mv, found := db.movie(id)
	if !found {
		respondDetail(w, http.StatusNotFound, "Movie not found")
		return
	}
	respondJSON(w, http.StatusOK, mv)
}

func publicUser(u domain.User) domain.User {
	u.PasswordHash = ""
	return u
}

func (m *mockAPI) listUsers(w http.ResponseWriter, r *http.Request) {
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, publicUser(u))
	}
	respondJSON(w, http.StatusOK, out)
}

func (m *mockAPI) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid user id")
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "username is required")
		return
	}

	db := m.current.Load()
	db.mu.Lock()
	defer db.mu.Unlock()
	if who, ok := m.caller(db, r); !ok || who != id {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if other, taken := db.userByName(req.Username); taken && other.ID != id {
		respondDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	idx := db.userIndex(id)
	if idx < 0 {
		respondDetail(w, http.StatusNotFound, "User not found")
		return
	}
	db.users[idx].Username = req.Username
	respondJSON(w, http.StatusOK, publicUser(db.users[idx]))
}

func (m *mockAPI) listFriends(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid user id")
		return
	}
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := []domain.User{}
	for _, fid := range db.friendIDs(id) {
		if idx := db.userIndex(fid); idx >= 0 {
			out = append(out, publicUser(db.users[idx]))
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (m *mockAPI) addFriend(w http.ResponseWriter, r *http.Request) {
	var req domain.Friendship
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid friendship")
		return
	}
	db := m.current.Load()
	db.mu.Lock()
	defer db.mu.Unlock()
	if who, ok := m.caller(db, r); !ok || who != req.UserID {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if req.UserID == req.FriendID || db.userIndex(req.FriendID) < 0 {
		respondDetail(w, http.StatusBadRequest, "Invalid friend")
		return
	}
	if !db.hasEdge(req.UserID, req.FriendID) {
		db.friends = append(db.friends, req)
	}
	respondJSON(w, http.StatusOK, req)
}

func (m *mockAPI) listMarks(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	kind := domain.MarkKind(chi.URLParam(r, "kind"))
	if !ok || (kind != domain.MarkWatched && kind != domain.MarkFavorites) {
		respondDetail(w, http.StatusNotFound, "Not found")
		return
	}
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	respondJSON(w, http.StatusOK, db.markIDs(id, kind))
}

func (m *mockAPI) setMark(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, okID := intParam(r, "id")
		movieID, okMovie := intParam(r, "movieID")
		kind := domain.MarkKind(chi.URLParam(r, "kind"))
		if !okID || !okMovie || (kind != domain.MarkWatched && kind != domain.MarkFavorites) {
			respondDetail(w, http.StatusNotFound, "Not found")
			return
		}
		db := m.current.Load()
		db.mu.Lock()
		defer db.mu.Unlock()
		if who, ok := m.caller(db, r); !ok || who != id {
			respondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if _, found := db.movie(movieID); !found {
			respondDetail(w, http.StatusNotFound, "Movie not found")
			return
		}
		db.setMark(id, kind, movieID, on)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (m *mockAPI) listReviews(w http.ResponseWriter, r *http.Request) {
	db := m.current.Load()
	db.mu.RLock()
	defer db.mu.RUnlock()
	respondJSON(w, http.StatusOK, append([]domain.Review{}, db.reviews...))
}

func (m *mockAPI) createReview(w http.ResponseWriter, r *http.Request) {
	var draft domain.ReviewDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid review")
		return
	}
	if !catalog.ValidNotes(draft.NoteVisual, draft.NoteAction, draft.NoteScenario) {
		respondDetail(w, http.StatusUnprocessableEntity, "notes must be between 0 and 5")
		return
	}
	db := m.current.Load()
	db.mu.Lock()
	defer db.mu.Unlock()
	if who, ok := m.caller(db, r); !ok || who != draft.UserID {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if _, found := db.movie(draft.MovieID); !found {
		respondDetail(w, http.StatusNotFound, "Movie not found")
		return
	}
	rv := domain.Review{
		ID:           db.nextReviewID(),
		UserID:       draft.UserID,
		MovieID:      draft.MovieID,
		NoteVisual:   draft.NoteVisual,
		NoteAction:   draft.NoteAction,
		NoteScenario: draft.NoteScenario,
		DateReviewed: m.now().Format("2006-01-02"),
		Favorite:     draft.Favorite,
	}
	if c := strings.TrimSpace(draft.Comment); c != "" {
		rv.Comment = &c
	}
	db.reviews = append(db.reviews, rv)
	respondJSON(w, http.StatusOK, rv)
}

type credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

func (m *mockAPI) signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.PasswordHash == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "username and password_hash are required")
		return
	}
	db := m.current.Load()
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, taken := db.userByName(req.Username); taken {
		respondDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	created := m.now().UTC().Format(time.RFC3339)
	u := domain.User{
		ID:           db.nextUserID(),
		Username:     req.Username,
		PasswordHash: req.PasswordHash,
		CreatedAt:    &created,
	}
	db.users = append(db.users, u)
	m.logger.Info("user signed up", "user", u.ID, "username", u.Username)
	respondJSON(w, http.StatusOK, publicUser(u))
}

func (m *mockAPI) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid credentials payload")
		return
	}
	db := m.current.Load()
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.userByName(req.Username)
	if !ok || u.PasswordHash != req.PasswordHash {
		respondDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	token := uuid.NewString()
	db.tokens[token] = u.ID
	respondJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}
