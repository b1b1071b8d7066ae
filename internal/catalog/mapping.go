package catalog

import (
	"fmt"
	"strings"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

// DefaultPosterBase prefixes relative poster paths.
const DefaultPosterBase = "https://image.tmdb.org/t/p/w500"

// PlaceholderPoster is shown for movies without a poster.
const PlaceholderPoster = `data:image/svg+xml;utf8,<svg xmlns="http://www.w3.org/2000/svg" width="400" height="600"><rect width="400" height="600" fill="%2314181c"/><text x="50%" y="50%" dominant-baseline="middle" text-anchor="middle" fill="%234a5568" font-family="Arial" font-size="24">Poster</text></svg>`

// PosterURL resolves a poster path against base, falling back to the
// placeholder when path is blank.
func PosterURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PlaceholderPoster
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if base == "" {
		base = DefaultPosterBase
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ParseGenres splits the API's comma-separated genre string.
func ParseGenres(raw string) []string {
	genres := []string{}
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// MapMovies converts catalog summaries into display movies, taking rating and
// review count from stats.
func MapMovies(summaries []domain.MovieSummary, stats map[int]domain.ReviewStats, posterBase string) []domain.Movie {
	movies := make([]domain.Movie, 0, len(summaries))
	for _, s := range summaries {
		m := domain.Movie{
			ID:       s.ID,
			Title:    s.Title,
			Director: s.Director,
			Poster:   PosterURL(posterBase, derefString(s.PosterPath)),
			Genre:    []string{},
			Cast:     []string{},
		}
		if s.ReleaseYear != nil {
			m.Year = *s.ReleaseYear
		}
		movies = append(movies, ApplyStats(m, stats))
	}
	return movies
}

// ApplyStats copies the movie's rating and review count from stats, if any.
func ApplyStats(m domain.Movie, stats map[int]domain.ReviewStats) domain.Movie {
	if st, ok := stats[m.ID]; ok {
		m.Rating = st.Average
		m.ReviewCount = st.Count
		m.Reviewed = st.Count > 0
	}
	return m
}

// EnrichMovie fills the fields only the detail endpoint returns. Rating data
// already on m is kept.
func EnrichMovie(m domain.Movie, d domain.MovieDetail, posterBase string) domain.Movie {
	if m.ID == 0 {
		m.ID = d.ID
	}
	if d.Title != "" {
		m.Title = d.Title
	}
	if d.Director != "" {
		m.Director = d.Director
	}
	if d.ReleaseYear != nil {
		m.Year = *d.ReleaseYear
	}
	if strings.TrimSpace(d.PosterPath) != "" || m.Poster == "" {
		m.Poster = PosterURL(posterBase, d.PosterPath)
	}
	m.Genre = ParseGenres(d.Genre)
	m.Synopsis = derefString(d.Synopsis)
	if d.Runtime != nil {
		m.Runtime = *d.Runtime
	}
	m.Cast = append([]string{}, d.Cast...)
	m.Detailed = true
	return m
}

// MapReviews resolves author and movie of every review. Records that have not
// loaded yet fall back to "User #<id>" and "Movie #<id>".
func MapReviews(reviews []domain.Review, users []domain.User, movies []domain.Movie) []domain.DisplayReview {
	usersByID := make(map[int]domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	moviesByID := IndexMovies(movies)

	out := make([]domain.DisplayReview, 0, len(reviews))
	for _, r := range reviews {
		dr := domain.DisplayReview{
			ID:            r.ID,
			UserID:        r.UserID,
			Username:      fmt.Sprintf("User #%d", r.UserID),
			MovieID:       r.MovieID,
			MovieTitle:    fmt.Sprintf("Movie #%d", r.MovieID),
			AverageRating: Round2(ReviewAverage(r)),
			Breakdown: domain.Breakdown{
				Visual:   r.NoteVisual,
				Action:   r.NoteAction,
				Scenario: r.NoteScenario,
			},
			Date:     r.DateReviewed,
			Favorite: r.Favorite,
			Comment:  derefString(r.Comment),
		}
		if u, ok := usersByID[r.UserID]; ok {
			if u.Username != "" {
				dr.Username = u.Username
			}
			dr.Avatar = derefString(u.ProfilePicture)
		}
		if m, ok := moviesByID[r.MovieID]; ok {
			dr.MovieTitle = m.Title
			dr.MoviePoster = m.Poster
		}
		out = append(out, dr)
	}
	return out
}

// IndexMovies keys movies by id.
func IndexMovies(movies []domain.Movie) map[int]domain.Movie {
	byID := make(map[int]domain.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	return byID
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
