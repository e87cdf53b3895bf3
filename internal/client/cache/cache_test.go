package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mkorolev/studyplan/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory views.Repository for exercising the store logic
// without SQLite.
type memRepo struct {
	data   map[string][]byte
	setErr error
}

func newMemRepo() *memRepo {
	return &memRepo{data: map[string][]byte{}}
}

func (m *memRepo) Get(ctx context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memRepo) Set(ctx context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memRepo) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testLogger() logging.Logger {
	return logging.NewDiscard()
}

func appendItem(item string) Mutation[[]string] {
	return func(current []string) []string {
		next := make([]string, len(current), len(current)+1)
		copy(next, current)
		return append(next, item)
	}
}

func TestRun_OptimisticValueVisibleBeforeCommit(t *testing.T) {
	repo := newMemRepo()
	s := NewStore("tasks", repo, testLogger(), []string{"a"})
	ctx := context.Background()

	var seenDuringCommit []string
	err := s.Run(ctx, appendItem("b"), func(ctx context.Context) error {
		seenDuringCommit = s.Get()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, seenDuringCommit)
	assert.Equal(t, []string{"a", "b"}, s.Get())
}

func TestRun_CommitErrorRollsBack(t *testing.T) {
	repo := newMemRepo()
	s := NewStore("tasks", repo, testLogger(), []string{"a"})
	ctx := context.Background()

	boom := errors.New("rejected")
	err := s.Run(ctx, appendItem("b"), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"a"}, s.Get())

	// the persisted snapshot rolled back too
	var persisted []string
	require.NoError(t, json.Unmarshal(repo.data["tasks"], &persisted))
	assert.Equal(t, []string{"a"}, persisted)
}

func TestRun_PersistsOptimisticValue(t *testing.T) {
	repo := newMemRepo()
	s := NewStore("tasks", repo, testLogger(), []string(nil))
	ctx := context.Background()

	var persistedDuringCommit []byte
	err := s.Run(ctx, appendItem("a"), func(ctx context.Context) error {
		persistedDuringCommit = repo.data["tasks"]
		return nil
	})
	require.NoError(t, err)

	// durable before the commit ran, so a crash mid-commit keeps the view
	var v []string
	require.NoError(t, json.Unmarshal(persistedDuringCommit, &v))
	assert.Equal(t, []string{"a"}, v)
}

func TestRun_SecondPredictSeesFirstLayer(t *testing.T) {
	repo := newMemRepo()
	s := NewStore("tasks", repo, testLogger(), []string(nil))
	ctx := context.Background()

	firstCommit := make(chan error, 1)
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = s.Run(ctx, appendItem("a"), func(ctx context.Context) error {
			return <-firstCommit
		})
	}()

	// wait until the first layer is applied
	require.Eventually(t, func() bool {
		return len(s.Get()) == 1
	}, time.Second, 5*time.Millisecond)

	var seen []string
	err := s.Run(ctx, func(current []string) []string {
		seen = current
		return appendItem("b")(current)
	}, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, seen)
	assert.Equal(t, []string{"a", "b"}, s.Get())

	firstCommit <- nil
	<-firstDone
	assert.Equal(t, []string{"a", "b"}, s.Get())
}

func TestRun_RollbackOfOneLayerKeepsTheOther(t *testing.T) {
	repo := newMemRepo()
	s := NewStore("tasks", repo, testLogger(), []string(nil))
	ctx := context.Background()

	firstCommit := make(chan error, 1)
	firstErr := make(chan error, 1)
	go func() {
		firstErr <- s.Run(ctx, appendItem("a"), func(ctx context.Context) error {
			return <-firstCommit
		})
	}()

	require.Eventually(t, func() bool {
		return len(s.Get()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Run(ctx, appendItem("b"), func(ctx context.Context) error {
		return nil
	}))

	// reject the first mutation: its layer vanishes, the second's is
	// replayed against the base
	firstCommit <- errors.New("rejected")
	require.Error(t, <-firstErr)

	assert.Equal(t, []string{"b"}, s.Get())
}

func TestLoad_RestoresSnapshot(t *testing.T) {
	repo := newMemRepo()
	repo.data["tasks"] = []byte(`["a","b"]`)

	s := NewStore("tasks", repo, testLogger(), []string(nil))
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"a", "b"}, s.Get())
}

func TestLoad_KeepsInitialWhenSnapshotUnreadable(t *testing.T) {
	repo := newMemRepo()
	repo.data["tasks"] = []byte(`{not json`)

	s := NewStore("tasks", repo, testLogger(), []string{"seed"})
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"seed"}, s.Get())
}

func TestSetAuthoritative_ReplaysPendingLayers(t *testing.T) {
	repo := newMemRepo()
	s := NewStore("tasks", repo, testLogger(), []string(nil))
	ctx := context.Background()

	firstCommit := make(chan error, 1)
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = s.Run(ctx, appendItem("mine"), func(ctx context.Context) error {
			return <-firstCommit
		})
	}()

	require.Eventually(t, func() bool {
		return len(s.Get()) == 1
	}, time.Second, 5*time.Millisecond)

	// a server refetch arrives mid-flight; the pending layer stays on top
	require.NoError(t, s.SetAuthoritative(ctx, []string{"server"}))
	assert.Equal(t, []string{"server", "mine"}, s.Get())

	firstCommit <- nil
	<-firstDone
	assert.Equal(t, []string{"server", "mine"}, s.Get())
}

func TestRun_PersistFailureAbortsMutation(t *testing.T) {
	repo := newMemRepo()
	repo.setErr = errors.New("disk full")
	s := NewStore("tasks", repo, testLogger(), []string{"a"})

	committed := false
	err := s.Run(context.Background(), appendItem("b"), func(ctx context.Context) error {
		committed = true
		return nil
	})
	require.Error(t, err)

	assert.False(t, committed)
	assert.Equal(t, []string{"a"}, s.Get())
}
