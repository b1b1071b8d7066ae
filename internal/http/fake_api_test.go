package httpserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/domain"
)

// fakeAPI is an in-memory stand-in for the remote API.
type fakeAPI struct {
	mu        sync.Mutex
	movies    []domain.MovieSummary
	details   map[int]domain.MovieDetail
	users     []domain.User
	passwords map[string]string
	reviews   []domain.Review
	friends   map[int][]int
	marks     map[string]map[int]bool
	tokens    map[string]int

	failMovies  bool
	failSetMark bool
	failReview  error
}

func newFakeAPI() *fakeAPI {
	year := 1995
	poster := "/heat.jpg"
	synopsis := "A group of professional bank robbers."
	return &fakeAPI{
		movies: []domain.MovieSummary{
			{ID: 1, Title: "Heat", Director: "Michael Mann", ReleaseYear: &year, PosterPath: &poster},
			{ID: 2, Title: "Ronin", Director: "John Frankenheimer"},
		},
		details: map[int]domain.MovieDetail{
			1: {ID: 1, Title: "Heat", Director: "Michael Mann", ReleaseYear: &year, Genre: "Crime, Thriller", PosterPath: poster, Synopsis: &synopsis},
			2: {ID: 2, Title: "Ronin", Director: "John Frankenheimer", Genre: "Thriller"},
		},
		users:     []domain.User{{ID: 1, Username: "neil"}, {ID: 2, Username: "vincent"}},
		passwords: map[string]string{"neil": backend.HashPassword("heat"), "vincent": backend.HashPassword("heat")},
		reviews: []domain.Review{
			{ID: 1, UserID: 2, MovieID: 1, NoteVisual: 4, NoteAction: 5, NoteScenario: 3, DateReviewed: "2024-03-01"},
		},
		friends: map[int][]int{},
		marks:   map[string]map[int]bool{},
		tokens:  map[string]int{},
	}
}

func (f *fakeAPI) ListMovies(context.Context) ([]domain.MovieSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMovies {
		return nil, errors.New("connection refused")
	}
	return append([]domain.MovieSummary(nil), f.movies...), nil
}

func (f *fakeAPI) GetMovie(_ context.Context, id int) (domain.MovieDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return domain.MovieDetail{}, &backend.StatusError{Code: 404}
	}
	return d, nil
}

func (f *fakeAPI) SearchMovies(_ context.Context, title string) ([]domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.SearchResult{}
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(title)) {
			out = append(out, domain.SearchResult{ID: m.ID, Title: m.Title, ReleaseDate: "1995-12-15"})
		}
	}
	return out, nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.User(nil), f.users...), nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, token string, id int, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens[token] != id {
		return domain.User{}, &backend.StatusError{Code: 401}
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Username = username
			return f.users[i], nil
		}
	}
	return domain.User{}, &backend.StatusError{Code: 404}
}

func (f *fakeAPI) ListFriends(_ context.Context, userID int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	for _, id := range f.friends[userID] {
		for _, u := range f.users {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) AddFriend(_ context.Context, token string, userID, friendID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens[token] != userID {
		return &backend.StatusError{Code: 401}
	}
	f.friends[userID] = append(f.friends[userID], friendID)
	f.friends[friendID] = append(f.friends[friendID], userID)
	return nil
}

func (f *fakeAPI) ListReviews(context.Context) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Review(nil), f.reviews...), nil
}

func (f *fakeAPI) CreateReview(_ context.Context, token string, d domain.ReviewDraft) (domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReview != nil {
		return domain.Review{}, f.failReview
	}
	if f.tokens[token] != d.UserID {
		return domain.Review{}, &backend.StatusError{Code: 401}
	}
	r := domain.Review{
		ID:           len(f.reviews) + 1,
		UserID:       d.UserID,
		MovieID:      d.MovieID,
		NoteVisual:   d.NoteVisual,
		NoteAction:   d.NoteAction,
		NoteScenario: d.NoteScenario,
		DateReviewed: "2024-06-01",
		Favorite:     d.Favorite,
	}
	if d.Comment != "" {
		c := d.Comment
		r.Comment = &c
	}
	f.reviews = append(f.reviews, r)
	return r, nil
}

func (f *fakeAPI) Signup(_ context.Context, username, password string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.passwords[username]; taken {
		return domain.User{}, &backend.StatusError{Code: 400, Detail: "Username already registered"}
	}
	u := domain.User{ID: len(f.users) + 1, Username: username}
	f.users = append(f.users, u)
	f.passwords[username] = backend.HashPassword(password)
	return u, nil
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (backend.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.passwords[username] != backend.HashPassword(password) {
		return backend.LoginResult{}, &backend.StatusError{Code: 401, Detail: "Incorrect username or password"}
	}
	for _, u := range f.users {
		if u.Username == username {
			token := fmt.Sprintf("token-%d", u.ID)
			f.tokens[token] = u.ID
			return backend.LoginResult{AccessToken: token, TokenType: "bearer"}, nil
		}
	}
	return backend.LoginResult{}, &backend.StatusError{Code: 401}
}

func markKey(userID int, kind domain.MarkKind) string {
	return fmt.Sprintf("%d/%s", userID, kind)
}

func (f *fakeAPI) ListMarks(_ context.Context, _ string, userID int, kind domain.MarkKind) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []int{}
	for id := range f.marks[markKey(userID, kind)] {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (f *fakeAPI) SetMark(_ context.Context, token string, userID, movieID int, kind domain.MarkKind, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetMark {
		return &backend.StatusError{Code: 503}
	}
	if f.tokens[token] != userID {
		return &backend.StatusError{Code: 401}
	}
	k := markKey(userID, kind)
	if f.marks[k] == nil {
		f.marks[k] = map[int]bool{}
	}
	if on {
		f.marks[k][movieID] = true
	} else {
		delete(f.marks[k], movieID)
	}
	return nil
}

func (f *fakeAPI) hasMark(userID int, kind domain.MarkKind, movieID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks[markKey(userID, kind)][movieID]
}
