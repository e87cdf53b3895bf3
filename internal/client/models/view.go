package models

import "time"

// TaskItem is one row of a cached task view: the server-shaped summary of a
// schedulable resource as the UI renders it.
type TaskItem struct {
	ID        string       `json:"id"`
	Resource  ResourceType `json:"resource"`
	Title     string       `json:"title"`
	CourseID  string       `json:"course_id,omitempty"`
	BaseTime  time.Time    `json:"base_time"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
	Completed bool         `json:"completed,omitempty"`
	Deleted   bool         `json:"deleted,omitempty"`
	Reminders []time.Time  `json:"reminders,omitempty"`
}

// TaskListView is a locally held snapshot of server-shaped task data, keyed
// in the cache by a query identity (e.g. "tasks:<user>").
type TaskListView struct {
	Items []TaskItem `json:"items"`
}

// Find returns a pointer into Items for the given id, or nil. The value
// receiver keeps it callable on views returned by value; the pointer still
// aims at the shared backing array.
func (v TaskListView) Find(id string) *TaskItem {
	for i := range v.Items {
		if v.Items[i].ID == id {
			return &v.Items[i]
		}
	}
	return nil
}

// Upsert replaces the item with the same ID or appends it.
func (v *TaskListView) Upsert(item TaskItem) {
	for i := range v.Items {
		if v.Items[i].ID == item.ID {
			v.Items[i] = item
			return
		}
	}
	v.Items = append(v.Items, item)
}

// Remove deletes the item with the given id. Missing ids are a no-op.
func (v *TaskListView) Remove(id string) {
	for i := range v.Items {
		if v.Items[i].ID == id {
			v.Items = append(v.Items[:i], v.Items[i+1:]...)
			return
		}
	}
}

// Rename rewrites the id of an item in place, used when a temporary id
// resolves to its server-assigned id.
func (v *TaskListView) Rename(oldID, newID string) {
	if item := v.Find(oldID); item != nil {
		item.ID = newID
	}
}
