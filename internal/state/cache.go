// Package state holds the read-through snapshot of movies, reviews and users
// shared by every request.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
)

// BannerUnreachable is shown while the last load failed.
const BannerUnreachable = "cannot reach the backend"

// ErrMovieNotFound is returned when neither the snapshot nor the API knows a movie.
var ErrMovieNotFound = errors.New("state: movie not found")

// Fetcher is the read side of the API client.
type Fetcher interface {
	ListMovies(ctx context.Context) ([]domain.MovieSummary, error)
	GetMovie(ctx context.Context, id int) (domain.MovieDetail, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListReviews(ctx context.Context) ([]domain.Review, error)
}

// Snapshot is a consistent view of the catalog. Values returned by Cache are
// copies; mutating them does not affect other readers.
type Snapshot struct {
	Movies   []domain.Movie
	Reviews  []domain.DisplayReview
	Users    []domain.User
	Stats    map[int]domain.ReviewStats
	LoadedAt time.Time
}

// Movie looks a movie up by id.
func (s Snapshot) Movie(id int) (domain.Movie, bool) {
	for _, m := range s.Movies {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Movie{}, false
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Movies:   make([]domain.Movie, len(s.Movies)),
		Reviews:  append([]domain.DisplayReview(nil), s.Reviews...),
		Users:    make([]domain.User, len(s.Users)),
		Stats:    make(map[int]domain.ReviewStats, len(s.Stats)),
		LoadedAt: s.LoadedAt,
	}
	for i, m := range s.Movies {
		m.Genre = append([]string{}, m.Genre...)
		m.Cast = append([]string{}, m.Cast...)
		out.Movies[i] = m
	}
	for i, u := range s.Users {
		u.CreatedAt = cloneString(u.CreatedAt)
		u.ProfilePicture = cloneString(u.ProfilePicture)
		out.Users[i] = u
	}
	for k, v := range s.Stats {
		out.Stats[k] = v
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Cache keeps the last good snapshot. A failed reload keeps it and raises
// the banner instead.
type Cache struct {
	fetcher    Fetcher
	posterBase string
	logger     hclog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	snap    Snapshot
	loaded  bool
	banner  string
	details map[int]domain.MovieDetail

	// started numbers each Load; committed is the number of the load whose
	// result is in snap.
	started   uint64
	committed uint64
}

// NewCache returns an empty, not yet loaded cache.
func NewCache(fetcher Fetcher, posterBase string, logger hclog.Logger) *Cache {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Cache{
		fetcher:    fetcher,
		posterBase: posterBase,
		logger:     logger,
		now:        time.Now,
		details:    make(map[int]domain.MovieDetail),
	}
}

// Load fetches movies, reviews and users concurrently and swaps in the
// derived snapshot once all three succeed. A load that finishes after a
// later-started load has committed is discarded.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	c.started++
	gen := c.started
	c.mu.Unlock()

	var (
		summaries []domain.MovieSummary
		reviews   []domain.Review
		users     []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summaries, err = c.fetcher.ListMovies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = c.fetcher.ListReviews(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = c.fetcher.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.mu.Lock()
		if gen > c.committed {
			c.banner = BannerUnreachable
		}
		c.mu.Unlock()
		c.logger.Warn("catalog load failed, keeping last snapshot", "error", err)
		return err
	}

	stats := catalog.StatsByMovie(reviews)
	movies := catalog.MapMovies(summaries, stats, c.posterBase)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.committed {
		c.logger.Debug("discarding superseded catalog load", "load", gen, "committed", c.committed)
		return nil
	}
	for i, m := range movies {
		if d, ok := c.details[m.ID]; ok {
			movies[i] = catalog.EnrichMovie(m, d, c.posterBase)
		}
	}
	c.snap = Snapshot{
		Movies:   movies,
		Reviews:  catalog.MapReviews(reviews, users, movies),
		Users:    users,
		Stats:    stats,
		LoadedAt: c.now(),
	}
	c.committed = gen
	c.loaded = true
	c.banner = ""
	c.logger.Debug("catalog loaded", "movies", len(movies), "reviews", len(reviews), "users", len(users))
	return nil
}

// Refresh reloads after a mutation. Failures only raise the banner.
func (c *Cache) Refresh(ctx context.Context) {
	_ = c.Load(ctx)
}

// EnsureLoaded loads once if nothing has loaded yet.
func (c *Cache) EnsureLoaded(ctx context.Context) {
	if c.Loaded() {
		return
	}
	_ = c.Load(ctx)
}

// Snapshot returns a copy of the current snapshot and whether any load has
// succeeded yet.
func (c *Cache) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.clone(), c.loaded
}

// Loaded reports whether a first load succeeded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Banner is the error message for the last failed load, or "".
func (c *Cache) Banner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.banner
}

// Movie returns the movie enriched with its detail record, fetching the
// detail once and remembering it across reloads.
func (c *Cache) Movie(ctx context.Context, id int) (domain.Movie, error) {
	c.mu.RLock()
	m, known := c.snap.Movie(id)
	c.mu.RUnlock()
	if known && m.Detailed {
		return m, nil
	}

	d, err := c.fetcher.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return domain.Movie{}, ErrMovieNotFound
		}
		if known {
			c.logger.Warn("movie detail unavailable, serving summary", "movie", id, "error", err)
			return m, nil
		}
		return domain.Movie{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[id] = d
	if cur, ok := c.snap.Movie(id); ok {
		m = cur
	} else {
		m = catalog.ApplyStats(domain.Movie{ID: id}, c.snap.Stats)
	}
	enriched := catalog.EnrichMovie(m, d, c.posterBase)
	if !known {
		return enriched, nil
	}
	movies := make([]domain.Movie, len(c.snap.Movies))
	for i, cur := range c.snap.Movies {
		if cur.ID == id {
			cur = enriched
		}
		movies[i] = cur
	}
	c.snap.Movies = movies
	return enriched, nil
}
