package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/hourbank/internal/repository"
)

// DefaultDocumentName is the row key used for the ledger state.
const DefaultDocumentName = "state"

// DocumentRepository implements repository.DocumentBackend for SQLite
type DocumentRepository struct {
	db   *DB
	name string
}

// NewDocumentRepository creates a DocumentRepository for the named document
func NewDocumentRepository(db *DB, name string) *DocumentRepository {
	if name == "" {
		name = DefaultDocumentName
	}
	return &DocumentRepository{db: db, name: name}
}

// Read retrieves the stored payload
func (r *DocumentRepository) Read(ctx context.Context) ([]byte, error) {
	query := `
		SELECT payload
		FROM documents
		WHERE name = ?
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, r.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return payload, nil
}

// Write replaces the stored payload in a single transaction
func (r *DocumentRepository) Write(ctx context.Context, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO documents (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	if _, err := tx.ExecContext(ctx, query, r.name, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
