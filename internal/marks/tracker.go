// Package marks keeps each user's watched and favorite movie sets and
// applies toggles optimistically.
package marks

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

// Kinds lists every mark kind tracked per user.
var Kinds = []domain.MarkKind{domain.MarkWatched, domain.MarkFavorites}

// Remote is the part of the API client the tracker needs.
type Remote interface {
	ListMarks(ctx context.Context, token string, userID int, kind domain.MarkKind) ([]int, error)
	SetMark(ctx context.Context, token string, userID, movieID int, kind domain.MarkKind, on bool) error
}

type key struct {
	userID int
	kind   domain.MarkKind
}

// Tracker caches mark sets per user. Toggles flip the local set first and
// then send the mutation; a failed mutation is reported but not rolled back.
type Tracker struct {
	remote Remote
	logger hclog.Logger

	mu     sync.RWMutex
	sets   map[key]*Set
	loaded map[int]bool
}

// NewTracker returns an empty tracker backed by remote.
func NewTracker(remote Remote, logger hclog.Logger) *Tracker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Tracker{
		remote: remote,
		logger: logger,
		sets:   make(map[key]*Set),
		loaded: make(map[int]bool),
	}
}

// Load replaces the user's sets with the server's view.
func (t *Tracker) Load(ctx context.Context, token string, userID int) error {
	fetched := make(map[domain.MarkKind]*Set, len(Kinds))
	for _, kind := range Kinds {
		ids, err := t.remote.ListMarks(ctx, token, userID, kind)
		if err != nil {
			return fmt.Errorf("load %s marks: %w", kind, err)
		}
		fetched[kind] = NewSet(ids...)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for kind, set := range fetched {
		t.sets[key{userID, kind}] = set
	}
	t.loaded[userID] = true
	return nil
}

// Ensure loads the user's sets unless a Load already succeeded for them.
// Sets created by toggles alone do not count as loaded.
func (t *Tracker) Ensure(ctx context.Context, token string, userID int) error {
	t.mu.RLock()
	ok := t.loaded[userID]
	t.mu.RUnlock()
	if ok {
		return nil
	}
	return t.Load(ctx, token, userID)
}

// Has reports whether movieID is in the user's kind set.
func (t *Tracker) Has(userID int, kind domain.MarkKind, movieID int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sets[key{userID, kind}].Has(movieID)
}

// IDs returns the user's kind set in ascending order.
func (t *Tracker) IDs(userID int, kind domain.MarkKind) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sets[key{userID, kind}].IDs()
}

// Toggle flips movieID in the user's kind set and sends the mutation. The
// returned membership reflects the local set even when err is non-nil.
func (t *Tracker) Toggle(ctx context.Context, token string, userID, movieID int, kind domain.MarkKind) (bool, error) {
	t.mu.Lock()
	k := key{userID, kind}
	set, ok := t.sets[k]
	if !ok {
		set = NewSet()
		t.sets[k] = set
	}
	on := set.Toggle(movieID)
	t.mu.Unlock()

	if err := t.remote.SetMark(ctx, token, userID, movieID, kind, on); err != nil {
		t.logger.Warn("mark mutation failed, keeping local state", "user", userID, "movie", movieID, "kind", kind, "on", on, "error", err)
		return on, err
	}
	return on, nil
}

// Forget drops the user's cached sets.
func (t *Tracker) Forget(userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, kind := range Kinds {
		delete(t.sets, key{userID, kind})
	}
	delete(t.loaded, userID)
}
