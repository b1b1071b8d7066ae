package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/domain"
)

func newTestClient(t *testing.T) (*backend.HTTPClient, *mockAPI) {
	t.Helper()
	fx, err := loadFixture("mock-backend.yaml")
	require.NoError(t, err)

	api := newMockAPI(seed(fx), nil)
	api.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(api.routes(false))
	t.Cleanup(srv.Close)

	client, err := backend.NewHTTPClient(srv.URL, 2*time.Second, nil)
	require.NoError(t, err)
	return client, api
}

func TestMockCatalog(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	movies, err := client.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 3)
	assert.Nil(t, movies[1].PosterPath, "poster-less movies omit the path")

	detail, err := client.GetMovie(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Crime, Thriller", detail.Genre)

	_, err = client.GetMovie(ctx, 42)
	assert.ErrorIs(t, err, backend.ErrNotFound)

	hits, err := client.SearchMovies(ctx, "thi")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1981-01-01", hits[0].ReleaseDate)
}

func TestMockAuthAndMutations(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Login(ctx, "neil", "wrong")
	assert.ErrorIs(t, err, backend.ErrUnauthorized)

	_, err = client.Signup(ctx, "neil", "x")
	assert.ErrorIs(t, err, backend.ErrRejected)

	created, err := client.Signup(ctx, "chris", "pw")
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)
	assert.Empty(t, created.PasswordHash)

	res, err := client.Login(ctx, "chris", "pw")
	require.NoError(t, err)
	token := res.AccessToken

	review, err := client.CreateReview(ctx, token, domain.ReviewDraft{UserID: 3, MovieID: 2, NoteVisual: 5, NoteAction: 4, NoteScenario: 3, Comment: "car chases"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", review.DateReviewed)

	_, err = client.CreateReview(ctx, token, domain.ReviewDraft{UserID: 1, MovieID: 2})
	assert.ErrorIs(t, err, backend.ErrUnauthorized, "cannot review as someone else")

	require.NoError(t, client.AddFriend(ctx, token, 3, 1))
	require.NoError(t, client.AddFriend(ctx, token, 3, 1))
	friends, err := client.ListFriends(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, friends, 2, "edges are listed from both directions without duplicates")

	require.NoError(t, client.SetMark(ctx, token, 3, 1, domain.MarkWatched, true))
	ids, err := client.ListMarks(ctx, token, 3, domain.MarkWatched)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
	require.NoError(t, client.SetMark(ctx, token, 3, 1, domain.MarkWatched, false))
	ids, err = client.ListMarks(ctx, token, 3, domain.MarkWatched)
	require.NoError(t, err)
	assert.Empty(t, ids)

	renamed, err := client.UpdateUser(ctx, token, 3, "christopher")
	require.NoError(t, err)
	assert.Equal(t, "christopher", renamed.Username)
	_, err = client.UpdateUser(ctx, token, 3, "neil")
	assert.ErrorIs(t, err, backend.ErrRejected)
}

func TestFixtureReloadKeepsTokens(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	res, err := client.Login(ctx, "neil", "heat")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movies:\n  - id: 9\n    title: Collateral\n    director: Michael Mann\nusers:\n  - id: 1\n    username: neil\n    password: heat\n"), 0o600))
	fx, err := loadFixture(path)
	require.NoError(t, err)
	api.replace(seed(fx))

	movies, err := client.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Collateral", movies[0].Title)

	require.NoError(t, client.SetMark(ctx, res.AccessToken, 1, 9, domain.MarkFavorites, true))
}

func TestLoadFixtureErrors(t *testing.T) {
	_, err := loadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read fixture")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movies: {"), 0o600))
	_, err = loadFixture(path)
	assert.ErrorContains(t, err, "parse fixture")
}
