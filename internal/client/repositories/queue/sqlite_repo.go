package queue

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

func (r *SQLiteRepository) Append(ctx context.Context, action *models.QueuedAction) error {
	query := `INSERT INTO queue_actions (id, action_type, resource_type, resource_id, payload, owner_user_id, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		action.ID, string(action.Action), string(action.Resource), action.ResourceID,
		[]byte(action.Payload), action.OwnerUserID, action.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append queue action: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get action seq: %w", err)
	}
	action.Seq = seq

	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.QueuedAction, error) {
	query := `SELECT seq, id, action_type, resource_type, resource_id, payload, owner_user_id, created_at
	          FROM queue_actions ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue actions: %w", err)
	}
	defer rows.Close()

	var result []*models.QueuedAction
	for rows.Next() {
		var a models.QueuedAction
		var actionType, resourceType, createdAt string
		var payload []byte

		if err := rows.Scan(&a.Seq, &a.ID, &actionType, &resourceType, &a.ResourceID,
			&payload, &a.OwnerUserID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue action: %w", err)
		}

		a.Action = models.ActionType(actionType)
		a.Resource = models.ResourceType(resourceType)
		a.Payload = payload
		a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse action timestamp: %w", err)
		}

		result = append(result, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue actions: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM queue_actions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue action: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RewriteResourceID(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE queue_actions SET resource_id = ? WHERE resource_id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to rewrite resource id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_actions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue actions: %w", err)
	}
	return n, nil
}
