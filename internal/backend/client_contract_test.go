package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(srv.URL, 2*time.Second, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}
	return client
}

func TestHTTPClient_ListMovies(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/movies" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"title":"Heat","director":"Michael Mann","release_year":1995,"poster_path":"/heat.jpg","global_rating":4.5}]`))
	}))

	movies, err := client.ListMovies(context.Background())
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Heat" {
		t.Fatalf("unexpected movies: %+v", movies)
	}
	if movies[0].ReleaseYear == nil || *movies[0].ReleaseYear != 1995 {
		t.Fatalf("release year not decoded: %+v", movies[0].ReleaseYear)
	}
}

func TestHTTPClient_LoginHashesPassword(t *testing.T) {
	var got credentials
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	}))

	res, err := client.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken != "tok" {
		t.Fatalf("AccessToken = %q, want tok", res.AccessToken)
	}
	if got.PasswordHash == "hunter2" || got.PasswordHash != HashPassword("hunter2") {
		t.Fatalf("password sent as %q, want the digest", got.PasswordHash)
	}
}

func TestHTTPClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"rejected", http.StatusBadRequest, ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"detail":"nope"}`))
			}))
			_, err := client.GetMovie(context.Background(), 42)
			if !errors.Is(err, tt.want) {
				t.Fatalf("GetMovie error = %v, want %v", err, tt.want)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.Detail != "nope" {
				t.Fatalf("expected StatusError with detail, got %v", err)
			}
		})
	}
}

func TestHTTPClient_BearerAndMarks(t *testing.T) {
	var seen []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer on %s %s", r.Method, r.URL.Path)
		}
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[3,5]`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	ids, err := client.ListMarks(context.Background(), "tok", 7, domain.MarkWatched)
	if err != nil {
		t.Fatalf("ListMarks: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 {
		t.Fatalf("ids = %v", ids)
	}
	if err := client.SetMark(context.Background(), "tok", 7, 3, domain.MarkFavorites, true); err != nil {
		t.Fatalf("SetMark on: %v", err)
	}
	if err := client.SetMark(context.Background(), "tok", 7, 3, domain.MarkFavorites, false); err != nil {
		t.Fatalf("SetMark off: %v", err)
	}
	want := []string{"GET /users/7/watched", "PUT /users/7/favorites/3", "DELETE /users/7/favorites/3"}
	for i, w := range want {
		if i >= len(seen) || seen[i] != w {
			t.Fatalf("requests = %v, want %v", seen, want)
		}
	}
}

func TestHTTPClient_SearchEncodesTitle(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("title"); got != "la haine & co" {
			t.Errorf("title = %q", got)
		}
		_, _ = w.Write([]byte(`[{"id":9,"title":"La Haine","poster_path":"/h.jpg","release_date":"1995-05-31"}]`))
	}))
	results, err := client.SearchMovies(context.Background(), "la haine & co")
	if err != nil {
		t.Fatalf("SearchMovies: %v", err)
	}
	if len(results) != 1 || results[0].ID != 9 {
		t.Fatalf("results = %+v", results)
	}
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTPClient("localhost", time.Second, nil); err == nil {
		t.Fatalf("expected error for relative backend url")
	}
}

// TestHTTPClientSmoke runs against a live API (for example cmd/backend-mock)
// when BACKEND_URL is set.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("BACKEND_URL")
	if baseURL == "" {
		t.Skip("BACKEND_URL not provided")
	}
	client, err := NewHTTPClient(baseURL, 3*time.Second, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.ListMovies(ctx); err != nil {
		t.Fatalf("list movies: %v", err)
	}
	if _, err := client.ListReviews(ctx); err != nil {
		t.Fatalf("list reviews: %v", err)
	}
}
