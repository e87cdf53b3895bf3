// Package services exposes the task mutation facade the application layer
// calls into.
//
// # Overview
//
// Every mutation follows the same shape: resolve the resource id (refusing
// a temporary id that has not synced while the backend is reachable), apply
// an optimistic prediction to the cached task view, then commit — either a
// direct backend call when online or a durable queue enqueue when offline.
// Creating or updating a schedulable item also recomputes its reminder
// schedule and replaces the previous set wholesale; deleting cancels it.
//
// # Error Handling
//
// ErrStillSyncing marks a retryable "please wait" condition, not a failure.
// ErrLimitExceeded marks a tier-gated refusal. Backend rejections roll the
// optimistic state back inside the cache layer and surface unchanged; a
// connectivity loss mid-commit degrades to an enqueue instead of an error.
package services
