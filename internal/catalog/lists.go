package catalog

import (
	"sort"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

const listPreviewSize = 4

// MovieList is a named selection of movies.
type MovieList struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Movies      []domain.Movie `json:"movies"`
	Total       int            `json:"total"`
}

// Remaining is the number of catalog movies the preview leaves out.
func (l MovieList) Remaining() int {
	return l.Total - len(l.Movies)
}

// TopRated orders reviewed movies by rating, unreviewed ones last.
func TopRated(movies []domain.Movie, n int) []domain.Movie {
	sorted := append([]domain.Movie(nil), movies...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Reviewed != sorted[j].Reviewed {
			return sorted[i].Reviewed
		}
		return sorted[i].Rating > sorted[j].Rating
	})
	return head(sorted, n)
}

// RecentReleases orders movies by release year, newest first.
func RecentReleases(movies []domain.Movie, n int) []domain.Movie {
	sorted := append([]domain.Movie(nil), movies...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Year > sorted[j].Year
	})
	return head(sorted, n)
}

// CuratedLists builds the lists page. An empty catalog yields no lists.
func CuratedLists(movies []domain.Movie) []MovieList {
	if len(movies) == 0 {
		return nil
	}
	return []MovieList{
		{
			Name:        "Top rated",
			Description: "Ranked by the aggregated review scores",
			Movies:      TopRated(movies, listPreviewSize),
			Total:       len(movies),
		},
		{
			Name:        "Latest releases",
			Description: "Sorted by release year",
			Movies:      RecentReleases(movies, listPreviewSize),
			Total:       len(movies),
		},
	}
}

// RecentlyWatched lists distinct reviewed movies, most recently reviewed
// first. userID 0 considers every author.
func RecentlyWatched(reviews []domain.DisplayReview, movies []domain.Movie, userID, n int) []domain.Movie {
	latest := make(map[int]string)
	for _, r := range reviews {
		if userID != 0 && r.UserID != userID {
			continue
		}
		if d, ok := latest[r.MovieID]; !ok || r.Date > d {
			latest[r.MovieID] = r.Date
		}
	}
	out := make([]domain.Movie, 0, len(latest))
	for _, m := range movies {
		if _, ok := latest[m.ID]; ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return latest[out[i].ID] > latest[out[j].ID]
	})
	return head(out, n)
}

// SimilarMovies lists movies sharing at least one genre with movie, excluding
// movie itself.
func SimilarMovies(movie domain.Movie, movies []domain.Movie, n int) []domain.Movie {
	genres := make(map[string]bool, len(movie.Genre))
	for _, g := range movie.Genre {
		genres[g] = true
	}
	out := []domain.Movie{}
	for _, m := range movies {
		if m.ID == movie.ID {
			continue
		}
		for _, g := range m.Genre {
			if genres[g] {
				out = append(out, m)
				break
			}
		}
	}
	return head(out, n)
}

// ReviewsForMovie keeps the reviews of one movie.
func ReviewsForMovie(reviews []domain.DisplayReview, movieID int) []domain.DisplayReview {
	out := []domain.DisplayReview{}
	for _, r := range reviews {
		if r.MovieID == movieID {
			out = append(out, r)
		}
	}
	return out
}

func head(movies []domain.Movie, n int) []domain.Movie {
	if n >= 0 && len(movies) > n {
		return movies[:n]
	}
	return movies
}
