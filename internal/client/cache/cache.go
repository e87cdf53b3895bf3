// Package cache implements the optimistic view cache.
//
// # Overview
//
// A Store holds one cached view value per query key. Run applies an
// optimistic prediction to the value synchronously, before the commit
// callback performs any I/O, so callers observe the predicted state
// immediately. The value is also persisted through the views repository so
// the optimistic state survives a restart.
//
// Internally the store keeps a base value (the last server-authoritative
// state) plus an ordered list of pending prediction layers. A second Run on
// the same store predicts against the first's already-applied value, and
// rolling one layer back replays the remaining layers against the base, so
// concurrent in-flight mutations never erase each other.
//
// # Error Handling
//
// A commit error rolls the layer back and is returned to the caller
// unchanged; the store is the only place rollback happens. Commits that
// merely defer work (an offline enqueue) return nil and keep the predicted
// value in place.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mkorolev/studyplan/internal/client/repositories/views"
	"github.com/mkorolev/studyplan/internal/logging"
)

// Mutation transforms a view value into its predicted next state. It must
// not mutate its argument: the store replays mutations when a concurrent
// layer rolls back.
type Mutation[T any] func(current T) T

type layer[T any] struct {
	predict   Mutation[T]
	committed bool
}

// Store is the optimistic cache for a single view key. Safe for concurrent
// use.
type Store[T any] struct {
	key  string
	repo views.Repository
	log  logging.Logger

	mu      sync.Mutex
	base    T
	layers  []*layer[T]
	current T
}

// NewStore returns a store for key with the given initial value. Call Load
// to pick up a persisted snapshot before first use.
func NewStore[T any](key string, repo views.Repository, log logging.Logger, initial T) *Store[T] {
	return &Store[T]{
		key:     key,
		repo:    repo,
		log:     log,
		base:    initial,
		current: initial,
	}
}

// Load replaces the value with the persisted snapshot, if one exists and is
// readable. Absent or discarded snapshots leave the initial value in place.
func (s *Store[T]) Load(ctx context.Context) error {
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %q: %w", s.key, err)
	}
	if raw == nil {
		return nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn(ctx, "discarding unreadable snapshot", "key", s.key, "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = v
	s.current = v
	return nil
}

// Get returns the current value, including pending optimistic layers.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Run applies predict to the cached value synchronously, persists the
// result, then awaits commit. On commit success the prediction is folded
// into the base value; on commit error the layer is rolled back, remaining
// pending layers are replayed, and the error is returned.
func (s *Store[T]) Run(ctx context.Context, predict Mutation[T], commit func(ctx context.Context) error) error {
	l := &layer[T]{predict: predict}

	s.mu.Lock()
	s.layers = append(s.layers, l)
	s.current = predict(s.current)
	if err := s.persistLocked(ctx); err != nil {
		s.removeLocked(l)
		s.recomputeLocked()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if err := commit(ctx); err != nil {
		s.rollback(ctx, l)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l.committed = true
	s.foldLocked()
	return nil
}

// SetAuthoritative replaces the base value with a server-fetched one and
// replays any still-pending layers on top of it.
func (s *Store[T]) SetAuthoritative(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = v
	s.recomputeLocked()
	return s.persistLocked(ctx)
}

// Invalidate drops the persisted snapshot. The in-memory value is kept.
func (s *Store[T]) Invalidate(ctx context.Context) error {
	return s.repo.Delete(ctx, s.key)
}

func (s *Store[T]) rollback(ctx context.Context, l *layer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(l)
	s.recomputeLocked()
	if err := s.persistLocked(ctx); err != nil {
		s.log.Warn(ctx, "failed to persist rollback", "key", s.key, "error", err)
	}
}

// foldLocked absorbs the committed prefix of the layer list into the base.
// A layer committed out of order waits until everything before it commits,
// keeping the base a faithful replay of confirmed mutations.
func (s *Store[T]) foldLocked() {
	for len(s.layers) > 0 && s.layers[0].committed {
		s.base = s.layers[0].predict(s.base)
		s.layers = s.layers[1:]
	}
}

func (s *Store[T]) removeLocked(l *layer[T]) {
	for i, candidate := range s.layers {
		if candidate == l {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

func (s *Store[T]) recomputeLocked() {
	v := s.base
	for _, l := range s.layers {
		v = l.predict(v)
	}
	s.current = v
}

func (s *Store[T]) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", s.key, err)
	}
	if err := s.repo.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to persist snapshot %q: %w", s.key, err)
	}
	return nil
}
