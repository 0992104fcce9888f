package mocks

import (
	"context"

	"github.com/rpggio/hourbank/internal/domain/ledger"
	"github.com/stretchr/testify/mock"
)

// DocumentBackend is a mock for repository.DocumentBackend.
type DocumentBackend struct {
	mock.Mock
}

func (m *DocumentBackend) Read(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if payload, ok := args.Get(0).([]byte); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentBackend) Write(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// Mirror is a mock for ledger.Mirror.
type Mirror struct {
	mock.Mock
}

func (m *Mirror) Notify(ctx context.Context, sub ledger.Submission) ledger.MirrorOutcome {
	args := m.Called(ctx, sub)
	return args.Get(0).(ledger.MirrorOutcome)
}

// Store is a mock for ledger.Store. Update hands the document registered
// for the call to fn, so tests can exercise the mutation.
type Store struct {
	mock.Mock
}

func (m *Store) Load(ctx context.Context) (*ledger.Document, error) {
	args := m.Called(ctx)
	if doc, ok := args.Get(0).(*ledger.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Update(ctx context.Context, fn func(doc *ledger.Document) error) (*ledger.Document, error) {
	args := m.Called(ctx, fn)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	doc, _ := args.Get(0).(*ledger.Document)
	if err := fn(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
