package queue

import (
	"context"

	"github.com/mkorolev/studyplan/internal/client/models"
)

// Repository is the durable store for queued offline actions.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// Append persists a new action at the tail of the queue and fills in
	// its Seq. Prior entries are never touched.
	Append(ctx context.Context, action *models.QueuedAction) error

	// List returns all pending actions in append (Seq) order.
	List(ctx context.Context) ([]*models.QueuedAction, error)

	// Delete removes an action once its backend call has succeeded, or when
	// it failed permanently.
	Delete(ctx context.Context, id string) error

	// RewriteResourceID repoints pending actions from a temporary resource
	// id to the server-assigned one.
	RewriteResourceID(ctx context.Context, oldID, newID string) error

	// Count returns the number of pending actions.
	Count(ctx context.Context) (int, error)
}
