package tempid

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/mkorolev/studyplan/internal/client/repositories/mappings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupResolver(t *testing.T) *Resolver {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE id_mappings (
  temp_id       TEXT PRIMARY KEY,
  real_id       TEXT NOT NULL,
  resource_type TEXT NOT NULL,
  created_at    TEXT NOT NULL
);
`)
	require.NoError(t, err)

	return NewResolver(mappings.NewSQLiteRepository(db))
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, IsTemporary("tmp_abc"))
	assert.False(t, IsTemporary("r1"))
	assert.False(t, IsTemporary(""))
	assert.False(t, IsTemporary("xtmp_abc"))
}

func TestNew_ProducesTemporaryIDs(t *testing.T) {
	r := setupResolver(t)

	a, b := r.New(), r.New()
	assert.True(t, strings.HasPrefix(a, "tmp_"))
	assert.True(t, IsTemporary(a))
	assert.NotEqual(t, a, b)
}

func TestResolve_UnmappedReturnsInput(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	// "still pending": input comes back unchanged
	got, err := r.Resolve(ctx, "tmp_abc")
	require.NoError(t, err)
	assert.Equal(t, "tmp_abc", got)
}

func TestResolve_NonTemporaryPassesThrough(t *testing.T) {
	r := setupResolver(t)

	got, err := r.Resolve(context.Background(), "r42")
	require.NoError(t, err)
	assert.Equal(t, "r42", got)
}

func TestRecordThenResolve_IsStable(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "tmp_abc", "r1", models.ResourceAssignment))

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(ctx, "tmp_abc")
		require.NoError(t, err)
		assert.Equal(t, "r1", got)
	}

	// recording the identical pair again is a no-op
	require.NoError(t, r.Record(ctx, "tmp_abc", "r1", models.ResourceAssignment))
}

func TestRecord_ConflictingRealIDFails(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "tmp_abc", "r1", models.ResourceAssignment))
	err := r.Record(ctx, "tmp_abc", "r2", models.ResourceAssignment)
	require.ErrorIs(t, err, ErrMappingConflict)

	got, err := r.Resolve(ctx, "tmp_abc")
	require.NoError(t, err)
	assert.Equal(t, "r1", got)
}

func TestLoad_WarmsCacheFromRepository(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "tmp_a", "r1", models.ResourceLecture))

	// a second resolver over the same repository sees the mapping after Load
	r2 := NewResolver(r.repo)
	require.NoError(t, r2.Load(ctx))

	got, err := r2.Resolve(ctx, "tmp_a")
	require.NoError(t, err)
	assert.Equal(t, "r1", got)
}
