package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

func TestUserStatsFor(t *testing.T) {
	created := "2023-04-05"
	user := domain.User{ID: 1, Username: "alice", CreatedAt: &created}
	movies := []domain.Movie{
		{ID: 10, Title: "Heat", Genre: []string{"Crime", "Thriller"}},
		{ID: 11, Title: "Ronin", Genre: []string{"Thriller", "Action"}},
		{ID: 12, Title: "Amélie", Genre: []string{"Comedy"}},
	}
	reviews := []domain.DisplayReview{
		{ID: 1, UserID: 1, MovieID: 10, AverageRating: 4},
		{ID: 2, UserID: 1, MovieID: 10, AverageRating: 3, Favorite: true},
		{ID: 3, UserID: 1, MovieID: 11, AverageRating: 2.5},
		{ID: 4, UserID: 2, MovieID: 12, AverageRating: 5},
	}

	stats := UserStatsFor(user, reviews, movies, []int{12, 10}, []int{11})

	assert.Equal(t, 3, stats.ReviewCount)
	assert.Equal(t, 3, stats.WatchedCount)
	assert.Equal(t, 2, stats.FavoriteCount)
	assert.True(t, stats.HasRatings)
	assert.Equal(t, 3.2, stats.AverageRating)
	assert.Equal(t, "2023", stats.MemberSince)
	assert.Equal(t, []string{"Thriller", "Action", "Comedy", "Crime"}, stats.TopGenres)
	assert.Len(t, stats.WatchedMovies, 3)
}

func TestUserStatsFor_NoActivity(t *testing.T) {
	stats := UserStatsFor(domain.User{ID: 9}, nil, nil, nil, nil)
	assert.False(t, stats.HasRatings)
	assert.Zero(t, stats.AverageRating)
	assert.Empty(t, stats.TopGenres)
	assert.Empty(t, stats.MemberSince)
}

func TestTopGenres_Limit(t *testing.T) {
	movies := []domain.Movie{{Genre: []string{"a", "b", "c", "d", "e", "f"}}, {Genre: []string{"f"}}}
	assert.Equal(t, []string{"f", "a", "b", "c", "d"}, TopGenres(movies, 5))
}
