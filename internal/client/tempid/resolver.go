// Package tempid assigns client-generated placeholder ids to resources
// created offline and resolves them to server-assigned ids once the create
// has synced.
//
// A temporary id is syntactically distinguishable ("tmp_" prefix, never
// produced by the backend). Resolution is idempotent: an unmapped id
// resolves to itself (meaning "still pending"), a mapped one always
// resolves to the same real id. The mapping is recorded by the sync queue's
// replay step, never by general callers, and is write-once per id.
package tempid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/mkorolev/studyplan/internal/client/repositories/mappings"
)

const prefix = "tmp_"

// ErrMappingConflict is returned when a temporary id is recorded a second
// time with a different real id.
var ErrMappingConflict = errors.New("temporary id already mapped to a different id")

// IsTemporary reports whether id is a client-generated placeholder. Purely
// syntactic, no lookup.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, prefix)
}

// Resolver maps temporary ids to real ids, backed by a durable repository
// with an in-memory read cache. Safe for concurrent use.
type Resolver struct {
	repo mappings.Repository

	mu    sync.RWMutex
	cache map[string]string
}

func NewResolver(repo mappings.Repository) *Resolver {
	return &Resolver{repo: repo, cache: make(map[string]string)}
}

// New returns a fresh temporary id.
func (r *Resolver) New() string {
	return prefix + uuid.NewString()
}

// Load warms the cache from the durable mapping, typically at startup.
func (r *Resolver) Load(ctx context.Context) error {
	all, err := r.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load id mappings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for tempID, realID := range all {
		r.cache[tempID] = realID
	}
	return nil
}

// Resolve returns the real id for id. Non-temporary ids and temporary ids
// with no recorded mapping come back unchanged; callers compare input and
// output to detect "still pending".
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if !IsTemporary(id) {
		return id, nil
	}

	r.mu.RLock()
	realID, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return realID, nil
	}

	realID, err := r.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if realID == "" {
		return id, nil
	}

	r.mu.Lock()
	r.cache[id] = realID
	r.mu.Unlock()

	return realID, nil
}

// Record durably maps tempID to realID. Recording the same pair again is a
// no-op; recording a different real id for an already-mapped temporary id
// fails with ErrMappingConflict.
func (r *Resolver) Record(ctx context.Context, tempID, realID string, resource models.ResourceType) error {
	stored, err := r.repo.Record(ctx, tempID, realID, resource)
	if err != nil {
		return err
	}
	if stored != realID {
		return fmt.Errorf("%w: %s is %s, got %s", ErrMappingConflict, tempID, stored, realID)
	}

	r.mu.Lock()
	r.cache[tempID] = stored
	r.mu.Unlock()

	return nil
}
