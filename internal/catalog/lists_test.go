package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

func TestTopRated(t *testing.T) {
	movies := []domain.Movie{
		{ID: 1, Rating: 0, Reviewed: false},
		{ID: 2, Rating: 2, Reviewed: true},
		{ID: 3, Rating: 4.5, Reviewed: true},
		{ID: 4, Rating: 0, Reviewed: true},
	}
	got := TopRated(movies, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 2, 4}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 1, movies[0].ID, "input must not be reordered")
}

func TestRecentReleases(t *testing.T) {
	movies := []domain.Movie{{ID: 1, Year: 1995}, {ID: 2, Year: 2021}, {ID: 3, Year: 2001}}
	got := RecentReleases(movies, 10)
	assert.Equal(t, []int{2, 3, 1}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestCuratedLists(t *testing.T) {
	assert.Nil(t, CuratedLists(nil))

	movies := make([]domain.Movie, 6)
	for i := range movies {
		movies[i] = domain.Movie{ID: i + 1, Year: 2000 + i}
	}
	lists := CuratedLists(movies)
	require.Len(t, lists, 2)
	assert.Len(t, lists[0].Movies, 4)
	assert.Equal(t, 2, lists[1].Remaining())
}

func TestRecentlyWatched(t *testing.T) {
	movies := []domain.Movie{{ID: 10}, {ID: 11}, {ID: 12}}
	reviews := []domain.DisplayReview{
		{UserID: 1, MovieID: 10, Date: "2024-01-01"},
		{UserID: 1, MovieID: 11, Date: "2024-02-01"},
		{UserID: 1, MovieID: 10, Date: "2024-03-01"},
		{UserID: 2, MovieID: 12, Date: "2024-04-01"},
	}

	mine := RecentlyWatched(reviews, movies, 1, 10)
	require.Len(t, mine, 2)
	assert.Equal(t, 10, mine[0].ID)
	assert.Equal(t, 11, mine[1].ID)

	everyone := RecentlyWatched(reviews, movies, 0, 1)
	require.Len(t, everyone, 1)
	assert.Equal(t, 12, everyone[0].ID)
}

func TestSimilarMovies(t *testing.T) {
	current := domain.Movie{ID: 1, Genre: []string{"Crime"}}
	movies := []domain.Movie{
		current,
		{ID: 2, Genre: []string{"Crime", "Drama"}},
		{ID: 3, Genre: []string{"Comedy"}},
		{ID: 4, Genre: []string{"Crime"}},
	}
	got := SimilarMovies(current, movies, 6)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 4, got[1].ID)
}

func TestReviewsForMovie(t *testing.T) {
	reviews := []domain.DisplayReview{{ID: 1, MovieID: 1}, {ID: 2, MovieID: 2}}
	assert.Len(t, ReviewsForMovie(reviews, 2), 1)
	assert.Empty(t, ReviewsForMovie(reviews, 3))
}
