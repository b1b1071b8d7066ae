package marks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

type call struct {
	movieID int
	kind    domain.MarkKind
	on      bool
}

type fakeRemote struct {
	mu      sync.Mutex
	marks   map[domain.MarkKind][]int
	calls   []call
	listErr error
	setErr  error
}

func (f *fakeRemote) ListMarks(ctx context.Context, token string, userID int, kind domain.MarkKind) ([]int, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.marks[kind], nil
}

func (f *fakeRemote) SetMark(ctx context.Context, token string, userID, movieID int, kind domain.MarkKind, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{movieID, kind, on})
	return f.setErr
}

func TestSetToggleTwiceRestoresMembership(t *testing.T) {
	s := NewSet(1, 2)
	before := s.IDs()

	assert.True(t, s.Toggle(3))
	assert.False(t, s.Toggle(3))
	assert.Equal(t, before, s.IDs())

	assert.False(t, s.Toggle(1))
	assert.True(t, s.Toggle(1))
	assert.Equal(t, before, s.IDs())
}

func TestSetZeroValue(t *testing.T) {
	var s Set
	assert.False(t, s.Has(1))
	assert.True(t, s.Toggle(1))
	assert.Equal(t, 1, s.Len())

	var nilSet *Set
	assert.False(t, nilSet.Has(1))
	assert.Empty(t, nilSet.IDs())
}

func TestTrackerLoadAndToggle(t *testing.T) {
	remote := &fakeRemote{marks: map[domain.MarkKind][]int{
		domain.MarkWatched:   {10, 11},
		domain.MarkFavorites: {11},
	}}
	tr := NewTracker(remote, nil)
	ctx := context.Background()

	require.NoError(t, tr.Load(ctx, "tok", 1))
	assert.True(t, tr.Has(1, domain.MarkWatched, 10))
	assert.Equal(t, []int{11}, tr.IDs(1, domain.MarkFavorites))

	on, err := tr.Toggle(ctx, "tok", 1, 10, domain.MarkWatched)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, tr.Has(1, domain.MarkWatched, 10))

	on, err = tr.Toggle(ctx, "tok", 1, 10, domain.MarkWatched)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []int{10, 11}, tr.IDs(1, domain.MarkWatched))

	assert.Equal(t, []call{{10, domain.MarkWatched, false}, {10, domain.MarkWatched, true}}, remote.calls)
}

func TestTrackerToggleFailureKeepsOptimisticState(t *testing.T) {
	remote := &fakeRemote{setErr: errors.New("backend down")}
	tr := NewTracker(remote, nil)

	on, err := tr.Toggle(context.Background(), "tok", 1, 42, domain.MarkFavorites)
	assert.Error(t, err)
	assert.True(t, on)
	assert.True(t, tr.Has(1, domain.MarkFavorites, 42), "no rollback on failure")
}

func TestTrackerEnsureAndForget(t *testing.T) {
	remote := &fakeRemote{marks: map[domain.MarkKind][]int{domain.MarkWatched: {5}}}
	tr := NewTracker(remote, nil)
	ctx := context.Background()

	require.NoError(t, tr.Ensure(ctx, "tok", 1))
	remote.marks[domain.MarkWatched] = []int{6}
	require.NoError(t, tr.Ensure(ctx, "tok", 1))
	assert.Equal(t, []int{5}, tr.IDs(1, domain.MarkWatched), "cached sets are not refetched")

	tr.Forget(1)
	require.NoError(t, tr.Ensure(ctx, "tok", 1))
	assert.Equal(t, []int{6}, tr.IDs(1, domain.MarkWatched))
}

func TestTrackerLoadError(t *testing.T) {
	tr := NewTracker(&fakeRemote{listErr: errors.New("boom")}, nil)
	assert.Error(t, tr.Load(context.Background(), "tok", 1))
	assert.Empty(t, tr.IDs(1, domain.MarkWatched))
}

func TestTrackerEnsureRetriesAfterFailedLoadAndToggle(t *testing.T) {
	remote := &fakeRemote{
		marks: map[domain.MarkKind][]int{
			domain.MarkWatched:   {1},
			domain.MarkFavorites: {2},
		},
		listErr: errors.New("backend down"),
	}
	tr := NewTracker(remote, nil)
	ctx := context.Background()

	require.Error(t, tr.Ensure(ctx, "tok", 1))
	_, err := tr.Toggle(ctx, "tok", 1, 3, domain.MarkWatched)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, tr.IDs(1, domain.MarkWatched))

	remote.listErr = nil
	require.NoError(t, tr.Ensure(ctx, "tok", 1))
	assert.Equal(t, []int{2}, tr.IDs(1, domain.MarkFavorites), "favorites fetched once the API is back")
	assert.True(t, tr.Has(1, domain.MarkWatched, 1), "server membership restored")
}
