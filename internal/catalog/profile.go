package catalog

import (
	"sort"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

const topGenreCount = 5

// UserStatsFor computes the profile statistics of user. Watched movies are
// the reviewed movies merged with the watched marks; favorites are the
// favorite marks merged with reviews flagged favorite. Only loaded movies are
// listed.
func UserStatsFor(user domain.User, reviews []domain.DisplayReview, movies []domain.Movie, watched, favorites []int) domain.UserStats {
	byID := IndexMovies(movies)
	stats := domain.UserStats{
		TopGenres:      []string{},
		WatchedMovies:  []domain.Movie{},
		FavoriteMovies: []domain.Movie{},
	}
	if user.CreatedAt != nil && len(*user.CreatedAt) >= 4 {
		stats.MemberSince = (*user.CreatedAt)[:4]
	}

	watchedSeen := make(map[int]bool)
	favoriteSeen := make(map[int]bool)
	addWatched := func(id int) {
		if watchedSeen[id] {
			return
		}
		watchedSeen[id] = true
		if m, ok := byID[id]; ok {
			stats.WatchedMovies = append(stats.WatchedMovies, m)
		}
	}
	addFavorite := func(id int) {
		if favoriteSeen[id] {
			return
		}
		favoriteSeen[id] = true
		if m, ok := byID[id]; ok {
			stats.FavoriteMovies = append(stats.FavoriteMovies, m)
		}
	}

	var total float64
	for _, r := range reviews {
		if r.UserID != user.ID {
			continue
		}
		stats.ReviewCount++
		total += r.AverageRating
		addWatched(r.MovieID)
		if r.Favorite {
			addFavorite(r.MovieID)
		}
	}
	for _, id := range watched {
		addWatched(id)
	}
	for _, id := range favorites {
		addFavorite(id)
	}

	stats.WatchedCount = len(watchedSeen)
	stats.FavoriteCount = len(favoriteSeen)
	if stats.ReviewCount > 0 {
		stats.AverageRating = Round1(total / float64(stats.ReviewCount))
		stats.HasRatings = true
	}
	stats.TopGenres = TopGenres(stats.WatchedMovies, topGenreCount)
	return stats
}

// TopGenres returns the n most frequent genres, ties broken alphabetically.
func TopGenres(movies []domain.Movie, n int) []string {
	counts := make(map[string]int)
	for _, m := range movies {
		for _, g := range m.Genre {
			counts[g]++
		}
	}
	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})
	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}
