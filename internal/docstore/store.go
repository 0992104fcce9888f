// Package docstore persists the ledger document through a pluggable backend
// and serializes every read-modify-write cycle.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/hourbank/internal/domain/ledger"
	"github.com/rpggio/hourbank/internal/repository"
)

// Observer records store write outcomes.
type Observer interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Option configures a Store.
type Option func(*Store)

// WithObserver reports every save to o.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

var _ ledger.Store = (*Store)(nil)

// Store implements ledger.Store over a repository.DocumentBackend.
type Store struct {
	backend  repository.DocumentBackend
	logger   *slog.Logger
	observer Observer
	mu       sync.Mutex
}

// New creates a Store writing through backend.
func New(backend repository.DocumentBackend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{backend: backend, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted document. A missing or undecodable document is
// replaced by the default one, which is written before returning. Only
// backend I/O failures are returned as errors.
func (s *Store) Load(ctx context.Context) (*ledger.Document, error) {
	doc, err := s.read(ctx)
	if err == nil {
		return doc, nil
	}
	if !recoverable(err) {
		return nil, err
	}

	// Re-check under the lock so a concurrent Update is never overwritten
	// by the default.
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Update loads the document, applies fn and saves the result, all under the
// store lock. If fn returns an error the document is not saved.
func (s *Store) Update(ctx context.Context, fn func(doc *ledger.Document) error) (*ledger.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) loadLocked(ctx context.Context) (*ledger.Document, error) {
	doc, err := s.read(ctx)
	if err == nil {
		return doc, nil
	}
	if !recoverable(err) {
		return nil, err
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "resetting state document to defaults", "reason", err)
	}
	doc = ledger.DefaultDocument()
	if err := s.save(ctx, doc); err != nil {
		return nil, fmt.Errorf("writing default document: %w", err)
	}
	return doc, nil
}

func (s *Store) read(ctx context.Context) (*ledger.Document, error) {
	payload, err := s.backend.Read(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDocumentMissing
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return decode(payload)
}

func (s *Store) save(ctx context.Context, doc *ledger.Document) (err error) {
	started := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.Observe(ctx, "store_save", err == nil, time.Since(started))
		}
	}()

	payload, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := s.backend.Write(ctx, payload); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

func recoverable(err error) bool {
	return errors.Is(err, ErrDocumentMissing) || errors.Is(err, ErrDocumentCorrupt)
}

// storedDocument mirrors ledger.Document but tolerates values written by
// older clients, such as numeric strings or null in number fields.
type storedDocument struct {
	S       *ledger.Quantity `json:"S"`
	P       *ledger.Quantity `json:"p"`
	C       *ledger.Quantity `json:"c"`
	H       *ledger.Quantity `json:"H"`
	NextID  *ledger.Quantity `json:"nextId"`
	Members []storedMember   `json:"members"`
}

type storedMember struct {
	ID    *ledger.Quantity `json:"id"`
	Name  *ledger.Text     `json:"name"`
	Hours *ledger.Quantity `json:"hours"`
}

func decode(payload []byte) (*ledger.Document, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrDocumentCorrupt)
	}
	var stored storedDocument
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentCorrupt, err)
	}

	doc := &ledger.Document{
		NextID:  int64(storedNumber(stored.NextID)),
		Members: make([]ledger.Member, 0, len(stored.Members)),
	}
	doc.S, _ = ledger.ParameterValue(stored.S)
	doc.P, _ = ledger.ParameterValue(stored.P)
	doc.C, _ = ledger.ParameterValue(stored.C)
	doc.H, _ = ledger.ParameterValue(stored.H)
	for _, m := range stored.Members {
		doc.Members = append(doc.Members, ledger.Member{
			ID:    int64(storedNumber(m.ID)),
			Name:  m.Name.String(),
			Hours: ledger.ClampHours(storedNumber(m.Hours)),
		})
	}
	return doc, nil
}

// storedNumber reads a persisted number, treating unreadable values as zero.
func storedNumber(q *ledger.Quantity) float64 {
	v, ok := ledger.ParameterValue(q)
	if !ok {
		return 0
	}
	return v
}

func encode(doc *ledger.Document) ([]byte, error) {
	if doc.Members == nil {
		doc.Members = []ledger.Member{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
