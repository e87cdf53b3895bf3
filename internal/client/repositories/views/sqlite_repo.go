package views

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkorolev/studyplan/internal/cryptox"
)

// SQLiteRepository stores snapshots in the snapshots table. When constructed
// with an encryption key, blobs are sealed at rest with AES-GCM; a snapshot
// that no longer decrypts (key rotation, corruption) reads as absent.
type SQLiteRepository struct {
	db  *sql.DB
	key []byte
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// NewEncryptedSQLiteRepository returns a repository sealing snapshots with
// the given AES key (see cryptox.DeriveKey).
func NewEncryptedSQLiteRepository(db *sql.DB, key []byte) *SQLiteRepository {
	return &SQLiteRepository{db: db, key: key}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var version int
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT version, value FROM snapshots WHERE key = ?`, key).Scan(&version, &value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot[%s]: %w", key, err)
	}

	// stale format: discard rather than misread
	if version != SchemaVersion {
		return nil, nil
	}

	if r.key != nil {
		plain, err := cryptox.OpenBlob(value, r.key)
		if err != nil {
			return nil, nil
		}
		return plain, nil
	}

	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if r.key != nil {
		sealed, err := cryptox.SealBlob(value, r.key)
		if err != nil {
			return fmt.Errorf("failed to seal snapshot[%s]: %w", key, err)
		}
		value = sealed
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, version, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET version = excluded.version, value = excluded.value, updated_at = excluded.updated_at
	`, key, SchemaVersion, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set snapshot[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot[%s]: %w", key, err)
	}
	return nil
}
