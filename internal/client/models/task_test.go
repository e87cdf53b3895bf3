package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrap_DispatchesByType(t *testing.T) {
	due := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"assignment", Assignment{Title: "essay", CourseID: "c1", DueAt: due}},
		{"lecture", Lecture{Title: "algebra", CourseID: "c2", StartsAt: due, Location: "B-204"}},
		{"study session", StudySession{Title: "review", CourseID: "c2", StartsAt: due, SpacedReview: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Wrap(tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.payload.GetType(), env.Type)

			got, err := env.Unwrap()
			require.NoError(t, err)
			assert.Equal(t, tc.payload, got)
			assert.Equal(t, tc.payload.BaseTime(), got.BaseTime())
		})
	}
}

func TestUnwrap_UnknownType(t *testing.T) {
	env := Envelope{Type: "exam", Details: []byte(`{}`)}
	_, err := env.Unwrap()
	require.ErrorIs(t, err, ErrUnknownResourceType)
}

func TestResourceType_Valid(t *testing.T) {
	assert.True(t, ResourceAssignment.Valid())
	assert.True(t, ResourceLecture.Valid())
	assert.True(t, ResourceStudySession.Valid())
	assert.False(t, ResourceType("exam").Valid())
}

func TestTaskListView_UpsertFindRemoveRename(t *testing.T) {
	v := &TaskListView{}

	v.Upsert(TaskItem{ID: "a", Title: "one"})
	v.Upsert(TaskItem{ID: "b", Title: "two"})
	require.Len(t, v.Items, 2)

	// upsert replaces by id
	v.Upsert(TaskItem{ID: "a", Title: "one-edited"})
	require.Len(t, v.Items, 2)
	assert.Equal(t, "one-edited", v.Find("a").Title)

	v.Rename("a", "r1")
	assert.Nil(t, v.Find("a"))
	require.NotNil(t, v.Find("r1"))

	v.Remove("r1")
	assert.Nil(t, v.Find("r1"))
	require.Len(t, v.Items, 1)

	// removing a missing id is a no-op
	v.Remove("missing")
	require.Len(t, v.Items, 1)
}

func TestTaskListView_FindOnValueReturn(t *testing.T) {
	viewOf := func() TaskListView {
		return TaskListView{Items: []TaskItem{{ID: "a", Title: "one"}}}
	}

	// Find works directly on a view returned by value, the way callers
	// chain it off accessors
	item := viewOf().Find("a")
	require.NotNil(t, item)
	assert.Equal(t, "one", item.Title)
	assert.Nil(t, viewOf().Find("missing"))
}

func TestTierLimits(t *testing.T) {
	free := TierFree.Limits()
	assert.Equal(t, 3, free.MaxReminders)
	assert.Equal(t, 5, free.MaxCourses)
	assert.Equal(t, 60, free.MonthlyTasks)

	prem := TierPremium.Limits()
	assert.Equal(t, 10, prem.MaxReminders)
	assert.Zero(t, prem.MaxCourses)
	assert.Zero(t, prem.MonthlyTasks)

	// unknown tiers fall back to free limits
	assert.Equal(t, free, Tier("trial").Limits())
}
