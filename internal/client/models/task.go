// Package models defines client-side data models for the StudyPlan sync core:
// schedulable resources, queued offline actions, cached views, and tiers.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ResourceType classifies a schedulable resource kind.
type ResourceType string

const (
	ResourceAssignment   ResourceType = "assignment"
	ResourceLecture      ResourceType = "lecture"
	ResourceStudySession ResourceType = "study_session"
)

var ErrUnknownResourceType = errors.New("unknown resource type")

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceAssignment, ResourceLecture, ResourceStudySession:
		return true
	}
	return false
}

// Payload is implemented by the per-type resource payloads. BaseTime returns
// the instant reminders are computed against (due time for assignments,
// start time for lectures and study sessions).
type Payload interface {
	GetType() ResourceType
	GetTitle() string
	GetCourseID() string
	BaseTime() time.Time
}

// Assignment is a graded piece of work with a due date.
type Assignment struct {
	Title    string    `json:"title"`
	CourseID string    `json:"course_id"`
	DueAt    time.Time `json:"due_at"`
	Notes    string    `json:"notes,omitempty"`
}

func (a Assignment) GetType() ResourceType { return ResourceAssignment }
func (a Assignment) GetTitle() string      { return a.Title }
func (a Assignment) GetCourseID() string   { return a.CourseID }
func (a Assignment) BaseTime() time.Time   { return a.DueAt }

// Lecture is a scheduled class occurrence.
type Lecture struct {
	Title    string    `json:"title"`
	CourseID string    `json:"course_id"`
	StartsAt time.Time `json:"starts_at"`
	Location string    `json:"location,omitempty"`
}

func (l Lecture) GetType() ResourceType { return ResourceLecture }
func (l Lecture) GetTitle() string      { return l.Title }
func (l Lecture) GetCourseID() string   { return l.CourseID }
func (l Lecture) BaseTime() time.Time   { return l.StartsAt }

// StudySession is a planned block of self-study, optionally following a
// spaced-repetition review schedule.
type StudySession struct {
	Title           string    `json:"title"`
	CourseID        string    `json:"course_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	SpacedReview    bool      `json:"spaced_review,omitempty"`
}

func (s StudySession) GetType() ResourceType { return ResourceStudySession }
func (s StudySession) GetTitle() string      { return s.Title }
func (s StudySession) GetCourseID() string   { return s.CourseID }
func (s StudySession) BaseTime() time.Time   { return s.StartsAt }

// Envelope carries a resource payload together with its type tag so it can be
// persisted and queued as opaque JSON and dispatched back to the concrete
// type with Unwrap.
type Envelope struct {
	Type    ResourceType    `json:"type"`
	Details json.RawMessage `json:"details"`
}

// Wrap serializes a typed payload into an Envelope.
func Wrap(v Payload) (Envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: v.GetType(), Details: b}, nil
}

// Unwrap dispatches the envelope back to its concrete payload type.
func (e Envelope) Unwrap() (Payload, error) {
	switch e.Type {
	case ResourceAssignment:
		var v Assignment
		return v, json.Unmarshal(e.Details, &v)
	case ResourceLecture:
		var v Lecture
		return v, json.Unmarshal(e.Details, &v)
	case ResourceStudySession:
		var v StudySession
		return v, json.Unmarshal(e.Details, &v)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResourceType, e.Type)
	}
}
