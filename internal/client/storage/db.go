// Package storage bootstraps the client's local SQLite database: it opens
// the DSN, applies embedded goose migrations, and wires the repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkorolev/studyplan/internal/client/migrations"
	"github.com/mkorolev/studyplan/internal/client/repositories/mappings"
	"github.com/mkorolev/studyplan/internal/client/repositories/queue"
	"github.com/mkorolev/studyplan/internal/client/repositories/views"
	"github.com/pressly/goose/v3"
)

// Repositories groups the durable stores backed by one database handle.
type Repositories struct {
	Queue    queue.Repository
	Mappings mappings.Repository
	Views    views.Repository

	db *sql.DB
}

func (r *Repositories) Close() error {
	return r.db.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local database and returns ready repositories.
// When snapshotKey is non-nil, view snapshots are encrypted at rest with it.
func InitDatabase(ctx context.Context, dsn string, snapshotKey []byte) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	var viewRepo views.Repository
	if snapshotKey != nil {
		viewRepo = views.NewEncryptedSQLiteRepository(db, snapshotKey)
	} else {
		viewRepo = views.NewSQLiteRepository(db)
	}

	return &Repositories{
		Queue:    queue.NewSQLiteRepository(db),
		Mappings: mappings.NewSQLiteRepository(db),
		Views:    viewRepo,
		db:       db,
	}, nil
}
