package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateResource_ReturnsServerID(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"r1"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL)
	c.SetToken("tok")

	payload, _ := json.Marshal(map[string]string{"title": "essay"})
	created, err := c.CreateResource(context.Background(), models.ResourceAssignment, payload)
	require.NoError(t, err)

	assert.Equal(t, "r1", created.ID)
	assert.Equal(t, "POST /api/v1/assignment", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "essay", gotBody["title"])
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"gone", http.StatusGone, ErrNotFound},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"bad request", http.StatusBadRequest, ErrInvalid},
		{"conflict", http.StatusConflict, ErrInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			t.Cleanup(srv.Close)

			c := NewHTTPClient(srv.URL)
			err := c.SoftDeleteResource(context.Background(), models.ResourceLecture, "x1")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestHTTPClient_ConnectionRefusedIsTransient(t *testing.T) {
	// a closed server gives a refused connection
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url)
	err := c.Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsTransient(err))
}

func TestHTTPClient_GetCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"u1","tier":"premium"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL)
	u, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, models.TierPremium, u.Tier)
}

func TestHTTPClient_SetReminders(t *testing.T) {
	var got struct {
		Reminders []Reminder `json:"reminders"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "PUT", r.Method)
		require.Equal(t, "/api/v1/study_session/s1/reminders", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL)
	err := c.SetReminders(context.Background(), models.ResourceStudySession, "s1", []Reminder{
		{At: 1710057600, Offset: 1},
		{At: 1710230400, Offset: 3},
	})
	require.NoError(t, err)
	require.Len(t, got.Reminders, 2)
	assert.EqualValues(t, 1710057600, got.Reminders[0].At)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrUnavailable))
	assert.False(t, IsTransient(ErrNotFound))
	assert.False(t, IsTransient(ErrInvalid))
	assert.False(t, IsTransient(nil))
}
