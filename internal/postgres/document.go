// Package postgres stores the state document in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rpggio/hourbank/internal/repository"
)

// DefaultDocumentName is the row key used for the ledger state.
const DefaultDocumentName = "state"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    name TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Open connects to databaseURL and creates the schema if needed.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// DocumentRepository implements repository.DocumentBackend for PostgreSQL.
type DocumentRepository struct {
	db   *sql.DB
	name string
}

func NewDocumentRepository(db *sql.DB, name string) *DocumentRepository {
	if name == "" {
		name = DefaultDocumentName
	}
	return &DocumentRepository{db: db, name: name}
}

func (r *DocumentRepository) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload::text FROM documents WHERE name = $1`, r.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return payload, nil
}

// Write upserts the payload in a single statement.
func (r *DocumentRepository) Write(ctx context.Context, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (name, payload, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, r.name, string(payload))
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
