// Package backend contains the client-side contract for talking to the
// hosted StudyPlan backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): resource
//     CRUD with soft delete and restore, the current user with their
//     subscription tier, and a reachability probe.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that attaches a
//     bearer token and maps response status codes to sentinel errors.
//
// # Error Handling
//
// Callers classify failures with errors.Is against the sentinels below.
// IsTransient reports connectivity-class failures that are safe to retry
// once the network is back; everything else is permanent from the offline
// queue's point of view.
package backend

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mkorolev/studyplan/internal/client/models"
)

var (
	// ErrUnavailable marks connectivity-class failures: the server could not
	// be reached or answered with a server-side error.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized marks rejected credentials or an expired session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks operations against a resource the server does not
	// know (deleted elsewhere, or never created).
	ErrNotFound = errors.New("resource not found")

	// ErrInvalid marks payloads the server rejected as malformed.
	ErrInvalid = errors.New("invalid request")
)

// Created is the server's reply to a create call.
type Created struct {
	ID string `json:"id"`
}

// Client is the transport-agnostic backend API surface consumed by the sync
// core. Every mutation is idempotent on repeat with the same id.
type Client interface {
	Close() error

	// Ping probes server reachability.
	Ping(ctx context.Context) error

	// GetCurrentUser returns the authenticated user and their tier.
	GetCurrentUser(ctx context.Context) (*models.User, error)

	// CreateResource creates a resource and returns its server-assigned id.
	CreateResource(ctx context.Context, resource models.ResourceType, payload json.RawMessage) (*Created, error)

	// UpdateResource replaces the payload of an existing resource.
	UpdateResource(ctx context.Context, resource models.ResourceType, id string, payload json.RawMessage) error

	// SoftDeleteResource tombstones a resource; it can later be restored.
	// Deleting also cancels the resource's reminder set server-side, so
	// cancellation never happens as a separate call that could be dropped.
	SoftDeleteResource(ctx context.Context, resource models.ResourceType, id string) error

	// RestoreResource lifts a soft delete.
	RestoreResource(ctx context.Context, resource models.ResourceType, id string) error

	// CompleteResource marks a resource as completed.
	CompleteResource(ctx context.Context, resource models.ResourceType, id string) error

	// SetReminders replaces the full reminder set armed for a resource.
	SetReminders(ctx context.Context, resource models.ResourceType, id string, reminders []Reminder) error
}

// Reminder is one armed notification instant, tagged with the offset that
// produced it.
type Reminder struct {
	At     int64   `json:"at"` // unix seconds
	Offset float64 `json:"offset"`
}

// IsTransient reports whether err is a connectivity-class failure that the
// offline queue should keep the action for, rather than drop it.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
