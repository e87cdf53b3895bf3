package mappings

import (
	"context"

	"github.com/mkorolev/studyplan/internal/client/models"
)

// Repository is the durable temporary-id to server-id mapping. A mapping is
// write-once per temporary id: Record never overwrites an existing row.
type Repository interface {
	// Get returns the real id recorded for tempID, or "" when no mapping
	// exists yet.
	Get(ctx context.Context, tempID string) (string, error)

	// Record stores tempID -> realID if no mapping exists, and returns the
	// id that is durably mapped afterwards (the existing one on conflict).
	Record(ctx context.Context, tempID, realID string, resource models.ResourceType) (string, error)

	// All returns every recorded mapping.
	All(ctx context.Context) (map[string]string, error)
}
