package mappings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkorolev/studyplan/internal/client/models"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, tempID string) (string, error) {
	var realID string
	err := r.db.QueryRowContext(ctx,
		`SELECT real_id FROM id_mappings WHERE temp_id = ?`, tempID).Scan(&realID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get mapping[%s]: %w", tempID, err)
	}
	return realID, nil
}

func (r *SQLiteRepository) Record(ctx context.Context, tempID, realID string, resource models.ResourceType) (string, error) {
	// append-only: an existing mapping wins
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO id_mappings (temp_id, real_id, resource_type, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(temp_id) DO NOTHING
	`, tempID, realID, string(resource), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to record mapping[%s]: %w", tempID, err)
	}

	stored, err := r.Get(ctx, tempID)
	if err != nil {
		return "", err
	}
	return stored, nil
}

func (r *SQLiteRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT temp_id, real_id FROM id_mappings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var tempID, realID string
		if err := rows.Scan(&tempID, &realID); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		result[tempID] = realID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mapping rows: %w", err)
	}

	return result, nil
}
