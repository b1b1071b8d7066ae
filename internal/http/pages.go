package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
	"github.com/Clark-Hu/cinelog/internal/session"
	"github.com/Clark-Hu/cinelog/internal/state"
)

const (
	recentCount  = 6
	similarCount = 6
)

type movieCard struct {
	domain.Movie
	Watched  bool
	Favorite bool
}

type catalogPage struct {
	Movies []movieCard
	Recent []domain.Movie
}

type moviePage struct {
	Movie    domain.Movie
	Stats    domain.ReviewStats
	HasStats bool
	Reviews  []domain.DisplayReview
	Similar  []domain.Movie
	Watched  bool
	Favorite bool
}

type searchHit struct {
	ID     int
	Title  string
	Poster string
	Year   string
}

type searchPage struct {
	Query   string
	Results []searchHit
}

type listsPage struct {
	Lists []catalog.MovieList
}

type activityPage struct {
	Feed catalog.ActivityFeed
}

type profilePage struct {
	User    domain.User
	Stats   domain.UserStats
	Recent  []domain.Movie
	Reviews []domain.DisplayReview
}

type friendsPage struct {
	Friends     []domain.User
	Query       string
	Suggestions []domain.User
}

type errorPage struct {
	Message string
}

// snapshot makes sure a first load has been attempted and returns the
// current catalog.
func (s *Server) snapshot(ctx context.Context) (state.Snapshot, bool) {
	s.cache.EnsureLoaded(ctx)
	return s.cache.Snapshot()
}

func (s *Server) newPage(r *http.Request, snap state.Snapshot, loaded bool, title string) page {
	v := visitorFrom(r.Context())
	p := page{
		Title:   title,
		Visitor: v,
		User:    viewer(v, snap.Users),
		Banner:  s.cache.Banner(),
		Loading: !loaded,
	}
	if p.Banner == "" && restoreFailed(r.Context()) {
		p.Banner = bannerSessionUnavailable
	}
	return p
}

// visitorMarks returns the visitor's watched and favorite ids, loading them
// on first use.
func (s *Server) visitorMarks(ctx context.Context, v session.Visitor) (watched, favorites []int) {
	if !v.Authenticated() {
		return nil, nil
	}
	if err := s.marks.Ensure(ctx, v.Token(), v.UserID()); err != nil {
		s.logger.Warn("could not load marks", "user", v.UserID(), "error", err)
	}
	return s.marks.IDs(v.UserID(), domain.MarkWatched), s.marks.IDs(v.UserID(), domain.MarkFavorites)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	snap, loaded := s.cache.Snapshot()
	p := s.newPage(r, snap, loaded, http.StatusText(status))
	p.Data = errorPage{Message: message}
	s.render(w, status, "error", p)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap, loaded := s.snapshot(r.Context())
	v := visitorFrom(r.Context())
	watched, favorites := s.visitorMarks(r.Context(), v)
	isWatched, isFavorite := toSet(watched), toSet(favorites)

	cards := make([]movieCard, 0, len(snap.Movies))
	for _, m := range snap.Movies {
		cards = append(cards, movieCard{Movie: m, Watched: isWatched[m.ID], Favorite: isFavorite[m.ID]})
	}

	p := s.newPage(r, snap, loaded, "Catalog")
	p.Data = catalogPage{
		Movies: cards,
		Recent: catalog.RecentlyWatched(snap.Reviews, snap.Movies, 0, recentCount),
	}
	s.render(w, http.StatusOK, "catalog", p)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.renderMovie(w, r, http.StatusOK, id, "")
}

// renderMovie renders the detail page; banner overrides the catalog banner.
func (s *Server) renderMovie(w http.ResponseWriter, r *http.Request, status, id int, banner string) {
	data, err := s.movieView(r.Context(), id)
	if err != nil {
		if errors.Is(err, state.ErrMovieNotFound) {
			s.renderError(w, r, http.StatusNotFound, "movie not found")
			return
		}
		s.logger.Error("load movie", "movie", id, "error", err)
		s.renderError(w, r, http.StatusBadGateway, state.BannerUnreachable)
		return
	}
	snap, loaded := s.cache.Snapshot()
	p := s.newPage(r, snap, loaded, data.Movie.Title)
	if banner != "" {
		p.Banner = banner
	}
	p.Data = data
	s.render(w, status, "movie", p)
}

func (s *Server) movieView(ctx context.Context, id int) (moviePage, error) {
	snap, _ := s.snapshot(ctx)
	movie, err := s.cache.Movie(ctx, id)
	if err != nil {
		return moviePage{}, err
	}
	stats, hasStats := snap.Stats[id]

	v := visitorFrom(ctx)
	watched, favorites := s.visitorMarks(ctx, v)
	return moviePage{
		Movie:    movie,
		Stats:    stats,
		HasStats: hasStats,
		Reviews:  catalog.ReviewsForMovie(snap.Reviews, id),
		Similar:  catalog.SimilarMovies(movie, snap.Movies, similarCount),
		Watched:  toSet(watched)[id],
		Favorite: toSet(favorites)[id],
	}, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	snap, loaded := s.cache.Snapshot()
	p := s.newPage(r, snap, loaded, "Search")
	query := strings.TrimSpace(r.URL.Query().Get("title"))
	data := searchPage{Query: query, Results: []searchHit{}}

	if query != "" {
		results, err := s.api.SearchMovies(r.Context(), query)
		if err != nil {
			s.logger.Warn("search failed", "query", query, "error", err)
			p.Banner = state.BannerUnreachable
		}
		for _, res := range results {
			data.Results = append(data.Results, toSearchHit(res, s.cfg.PosterBaseURL))
		}
	}
	p.Data = data
	s.render(w, http.StatusOK, "search", p)
}

func toSearchHit(res domain.SearchResult, posterBase string) searchHit {
	hit := searchHit{
		ID:     res.ID,
		Title:  res.Title,
		Poster: catalog.PosterURL(posterBase, res.PosterPath),
	}
	if len(res.ReleaseDate) >= 4 {
		hit.Year = res.ReleaseDate[:4]
	}
	return hit
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	snap, loaded := s.snapshot(r.Context())
	p := s.newPage(r, snap, loaded, "Lists")
	p.Data = listsPage{Lists: catalog.CuratedLists(snap.Movies)}
	s.render(w, http.StatusOK, "lists", p)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	snap, loaded := s.snapshot(r.Context())
	p := s.newPage(r, snap, loaded, "Activity")
	feed, err := s.activityFeed(r.Context(), snap, catalog.ParseActivityFilter(r.URL.Query().Get("filter")))
	if err != nil {
		p.Banner = state.BannerUnreachable
	}
	p.Data = activityPage{Feed: feed}
	s.render(w, http.StatusOK, "activity", p)
}

// activityFeed builds the feed for the request's visitor, fetching their
// friends when the friends filter is active.
func (s *Server) activityFeed(ctx context.Context, snap state.Snapshot, filter catalog.ActivityFilter) (catalog.ActivityFeed, error) {
	v := visitorFrom(ctx)
	who := viewer(v, snap.Users)

	var friendIDs []int
	if filter == catalog.FilterFriends && who != nil {
		friends, err := s.api.ListFriends(ctx, who.ID)
		if err != nil {
			s.logger.Warn("list friends failed", "user", who.ID, "error", err)
			return catalog.ActivityFeed{Filter: filter, Items: []catalog.ActivityItem{}}, err
		}
		friendIDs = catalog.UserIDs(friends)
	}
	return catalog.BuildActivity(snap.Reviews, snap.Movies, filter, who, friendIDs), nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, http.StatusOK, "")
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, status int, banner string) {
	snap, loaded := s.snapshot(r.Context())
	v := visitorFrom(r.Context())
	p := s.newPage(r, snap, loaded, "Profile")
	if banner != "" {
		p.Banner = banner
	}
	user := *p.User
	watched, favorites := s.visitorMarks(r.Context(), v)

	reviews := []domain.DisplayReview{}
	for _, rv := range snap.Reviews {
		if rv.UserID == user.ID {
			reviews = append(reviews, rv)
		}
	}
	p.Data = profilePage{
		User:    user,
		Stats:   catalog.UserStatsFor(user, snap.Reviews, snap.Movies, watched, favorites),
		Recent:  catalog.RecentlyWatched(snap.Reviews, snap.Movies, user.ID, recentCount),
		Reviews: reviews,
	}
	s.render(w, status, "profile", p)
}

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	s.renderFriends(w, r, http.StatusOK, "")
}

func (s *Server) renderFriends(w http.ResponseWriter, r *http.Request, status int, banner string) {
	snap, loaded := s.snapshot(r.Context())
	p := s.newPage(r, snap, loaded, "Friends")
	if banner != "" {
		p.Banner = banner
	}
	user := *p.User
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	friends, err := s.api.ListFriends(r.Context(), user.ID)
	if err != nil {
		s.logger.Warn("list friends failed", "user", user.ID, "error", err)
		if banner == "" {
			p.Banner = state.BannerUnreachable
		}
		friends = []domain.User{}
	}
	p.Data = friendsPage{
		Friends:     friends,
		Query:       query,
		Suggestions: catalog.FriendSuggestions(snap.Users, user, friends, query),
	}
	s.render(w, status, "friends", p)
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
