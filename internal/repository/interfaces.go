package repository

import "context"

// DocumentBackend reads and writes the serialized state document.
// Read returns ErrNotFound when nothing has been written yet. Write must be
// atomic: a concurrent Read sees either the old or the new payload.
type DocumentBackend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}
