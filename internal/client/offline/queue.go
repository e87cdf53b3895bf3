// Package offline implements the durable queue of mutations deferred while
// the device has no connectivity, and its replay against the backend.
//
// # Overview
//
// Enqueue persists intent locally and returns immediately; no network I/O
// happens until Replay. Replay walks the queue in append order (which also
// preserves per-resource order), executes each action, and:
//
//   - on a CREATE success, records the temporary-id mapping and repoints
//     every still-queued action for that temporary id to the real id;
//   - on success, removes the action;
//   - on a transient (connectivity) failure, stops and keeps the rest of
//     the queue for the next connectivity signal;
//   - on a permanent (validation/authorization) failure, removes the action
//     and surfaces it in the ReplayResult so the caller can report it.
//
// DELETE, COMPLETE and RESTORE against a resource the server no longer
// knows are treated as success: a prior partial replay may have landed the
// effect already.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkorolev/studyplan/internal/client/backend"
	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/mkorolev/studyplan/internal/client/repositories/queue"
	"github.com/mkorolev/studyplan/internal/client/tempid"
	"github.com/mkorolev/studyplan/internal/logging"
	"github.com/sethvargo/go-retry"
)

// FailedAction is a queued action the backend rejected permanently.
type FailedAction struct {
	Action *models.QueuedAction
	Err    error
}

// ReplayResult summarizes one replay pass.
type ReplayResult struct {
	// Applied is the number of actions executed and dequeued.
	Applied int
	// AppliedActions lists those actions in execution order, so the caller
	// can run per-action follow-ups (reminder resubmission, view renames).
	AppliedActions []*models.QueuedAction
	// Failed holds actions rejected permanently and removed from the queue.
	Failed []FailedAction
	// Remaining is the number of actions still queued (non-zero when the
	// pass stopped on a transient failure).
	Remaining int
}

// Queue is the offline action queue. Safe for concurrent use; replays are
// serialized.
type Queue struct {
	repo     queue.Repository
	resolver *tempid.Resolver
	client   backend.Client
	log      logging.Logger

	replayMu sync.Mutex
	now      func() time.Time
}

func NewQueue(repo queue.Repository, resolver *tempid.Resolver, client backend.Client, log logging.Logger) *Queue {
	return &Queue{
		repo:     repo,
		resolver: resolver,
		client:   client,
		log:      log,
		now:      time.Now,
	}
}

// Enqueue appends a deferred mutation to durable storage. It never performs
// network I/O and never touches prior entries.
func (q *Queue) Enqueue(ctx context.Context, action models.ActionType, resource models.ResourceType, resourceID string, payload json.RawMessage, ownerUserID string) error {
	a := &models.QueuedAction{
		ID:          uuid.NewString(),
		Action:      action,
		Resource:    resource,
		ResourceID:  resourceID,
		Payload:     payload,
		OwnerUserID: ownerUserID,
		CreatedAt:   q.now().UTC(),
	}

	if err := q.repo.Append(ctx, a); err != nil {
		return fmt.Errorf("failed to enqueue %s %s: %w", action, resourceID, err)
	}

	q.log.Debug(ctx, "queued offline action",
		"action", string(action), "resource", string(resource), "resource_id", resourceID)
	return nil
}

// Pending returns the number of queued actions.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	return q.repo.Count(ctx)
}

// Replay executes queued actions in order. Invoked by the connectivity
// watcher when the device comes back online; calling it while another
// replay is running blocks until that pass finishes.
func (q *Queue) Replay(ctx context.Context) (*ReplayResult, error) {
	q.replayMu.Lock()
	defer q.replayMu.Unlock()

	actions, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	result := &ReplayResult{}

	for i, a := range actions {
		if a.Action != models.ActionCreate {
			// an earlier crashed replay may have recorded the mapping
			// without rewriting this action yet
			resolvedID, err := q.resolver.Resolve(ctx, a.ResourceID)
			if err != nil {
				return nil, err
			}
			a.ResourceID = resolvedID
		}

		execErr := q.executeWithRetry(ctx, a)

		if execErr == nil {
			if err := q.repo.Delete(ctx, a.ID); err != nil {
				return nil, err
			}
			result.Applied++
			result.AppliedActions = append(result.AppliedActions, a)
			continue
		}

		if backend.IsTransient(execErr) {
			// connectivity dropped again: keep this and everything after it
			result.Remaining = len(actions) - i
			q.log.Info(ctx, "replay interrupted, queue preserved",
				"applied", result.Applied, "remaining", result.Remaining)
			return result, nil
		}

		// permanent: the action can never succeed, drop it and tell the caller
		if err := q.repo.Delete(ctx, a.ID); err != nil {
			return nil, err
		}
		result.Failed = append(result.Failed, FailedAction{Action: a, Err: execErr})
		q.log.Warn(ctx, "queued action rejected",
			"action", string(a.Action), "resource_id", a.ResourceID, "error", execErr)
	}

	q.log.Info(ctx, "queue replay finished",
		"applied", result.Applied, "failed", len(result.Failed))
	return result, nil
}

// executeWithRetry runs one action with a short constant backoff around
// transient failures before giving up on the pass.
func (q *Queue) executeWithRetry(ctx context.Context, a *models.QueuedAction) error {
	backoff := retry.WithMaxRetries(2, retry.NewConstant(250*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := q.execute(ctx, a)
		if backend.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (q *Queue) execute(ctx context.Context, a *models.QueuedAction) error {
	switch a.Action {
	case models.ActionCreate:
		return q.executeCreate(ctx, a)

	case models.ActionUpdate:
		// a vanished resource is a real failure for an update
		return q.client.UpdateResource(ctx, a.Resource, a.ResourceID, a.Payload)

	case models.ActionDelete:
		return ignoreNotFound(q.client.SoftDeleteResource(ctx, a.Resource, a.ResourceID))

	case models.ActionComplete:
		return ignoreNotFound(q.client.CompleteResource(ctx, a.Resource, a.ResourceID))

	case models.ActionRestore:
		return ignoreNotFound(q.client.RestoreResource(ctx, a.Resource, a.ResourceID))

	default:
		return fmt.Errorf("%w: unknown action %q", backend.ErrInvalid, a.Action)
	}
}

func (q *Queue) executeCreate(ctx context.Context, a *models.QueuedAction) error {
	if tempid.IsTemporary(a.ResourceID) {
		// if the mapping already exists, a prior replay crashed between the
		// server call and the dequeue; do not create a duplicate
		resolved, err := q.resolver.Resolve(ctx, a.ResourceID)
		if err != nil {
			return err
		}
		if resolved != a.ResourceID {
			return nil
		}
	}

	created, err := q.client.CreateResource(ctx, a.Resource, a.Payload)
	if err != nil {
		return err
	}

	if tempid.IsTemporary(a.ResourceID) {
		if err := q.resolver.Record(ctx, a.ResourceID, created.ID, a.Resource); err != nil {
			return err
		}
		// repoint every queued follow-up before it executes
		if err := q.repo.RewriteResourceID(ctx, a.ResourceID, created.ID); err != nil {
			return err
		}
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, backend.ErrNotFound) {
		return nil
	}
	return err
}
