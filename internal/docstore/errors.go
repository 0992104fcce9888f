package docstore

import "errors"

var (
	// ErrDocumentMissing indicates no document has been persisted yet.
	ErrDocumentMissing = errors.New("state document missing")
	// ErrDocumentCorrupt indicates the persisted payload could not be decoded.
	ErrDocumentCorrupt = errors.New("state document corrupt")
)
