package models

import (
	"encoding/json"
	"time"
)

// ActionType is the kind of deferred mutation held in the offline queue.
type ActionType string

const (
	ActionCreate   ActionType = "CREATE"
	ActionUpdate   ActionType = "UPDATE"
	ActionDelete   ActionType = "DELETE"
	ActionComplete ActionType = "COMPLETE"
	ActionRestore  ActionType = "RESTORE"
)

// QueuedAction is one deferred mutation, persisted while the device is
// offline and consumed only after the corresponding backend call succeeds.
//
// Seq is assigned by the queue repository on append and defines replay
// order; actions sharing a ResourceID must replay in Seq order.
type QueuedAction struct {
	ID          string
	Seq         int64
	Action      ActionType
	Resource    ResourceType
	ResourceID  string
	Payload     json.RawMessage
	OwnerUserID string
	CreatedAt   time.Time
}
