package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/hourbank/internal/domain/ledger"
	"github.com/rpggio/hourbank/internal/repository"
	"github.com/rpggio/hourbank/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)
	return New(backend, nil), path
}

func TestStore_LoadMissingWritesDefault(t *testing.T) {
	store, path := newFileStore(t)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, ledger.DefaultDocument(), doc)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name": "张三"`)
	require.Contains(t, string(data), `"nextId": 4`)
}

func TestStore_LoadCorruptResetsToDefault(t *testing.T) {
	for _, payload := range []string{"", "not json", "[1,2,3]", `{"members":`, `{"members":{}}`, `{"members":[1]}`} {
		t.Run(payload, func(t *testing.T) {
			store, path := newFileStore(t)
			require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

			doc, err := store.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, ledger.DefaultDocument(), doc)

			again, err := store.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, doc, again)
		})
	}
}

func TestStore_LoadAcceptsLooseNumbers(t *testing.T) {
	store, path := newFileStore(t)
	payload := `{"S":"1200","p":0.5,"c":null,"H":"150","nextId":"12",` +
		`"members":[{"id":11,"name":"Alice","hours":"40"},{"id":"7","name":"Bob","hours":-3}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1200.0, doc.S)
	require.Equal(t, 0.5, doc.P)
	require.Equal(t, 0.0, doc.C)
	require.Equal(t, 150.0, doc.H)
	require.Equal(t, int64(12), doc.NextID)
	require.Equal(t, []ledger.Member{
		{ID: 11, Name: "Alice", Hours: 40},
		{ID: 7, Name: "Bob", Hours: 0},
	}, doc.Members)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, payload, string(data), "readable documents are not rewritten on load")

	_, err = store.Update(context.Background(), func(doc *ledger.Document) error { return nil })
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"S": 1200`)
	require.Contains(t, string(data), `"name": "Alice"`)
}

func TestStore_LoadKeepsNullMembersAsEmpty(t *testing.T) {
	store, path := newFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"S":1,"p":1,"c":1,"H":1,"nextId":9,"members":null}`), 0o644))

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc.Members)
	require.Empty(t, doc.Members)
	require.Equal(t, int64(9), doc.NextID)
}

func TestStore_UpdatePersists(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, func(doc *ledger.Document) error {
		doc.S = 900
		return nil
	})
	require.NoError(t, err)

	backend, err := NewFileBackend(path)
	require.NoError(t, err)
	doc, err := New(backend, nil).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 900.0, doc.S)
}

func TestStore_UpdateErrorSkipsSave(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()
	_, err := store.Load(ctx)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, func(doc *ledger.Document) error {
		doc.Members = nil
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestStore_BackendErrorsSurface(t *testing.T) {
	backend := &mocks.DocumentBackend{}
	backend.On("Read", mock.Anything).Return(nil, errors.New("permission denied"))
	store := New(backend, nil)

	_, err := store.Load(context.Background())
	require.ErrorContains(t, err, "permission denied")
	_, err = store.Update(context.Background(), func(*ledger.Document) error { return nil })
	require.ErrorContains(t, err, "permission denied")
	backend.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestStore_WriteFailureSurfaces(t *testing.T) {
	backend := &mocks.DocumentBackend{}
	backend.On("Read", mock.Anything).Return(nil, repository.ErrNotFound)
	backend.On("Write", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	store := New(backend, nil)

	_, err := store.Load(context.Background())
	require.ErrorContains(t, err, "disk full")
}

type observerStub struct {
	mu    sync.Mutex
	saves []bool
}

func (o *observerStub) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if operation == "store_save" {
		o.saves = append(o.saves, success)
	}
}

func TestStore_ObserverSeesSaves(t *testing.T) {
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	obs := &observerStub{}
	store := New(backend, nil, WithObserver(obs))

	_, err = store.Update(context.Background(), func(*ledger.Document) error { return nil })
	require.NoError(t, err)
	// Default write, then the update itself.
	require.Equal(t, []bool{true, true}, obs.saves)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()
	const n = 40

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, func(doc *ledger.Document) error {
				doc.S++
				return nil
			})
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 600.0+n, doc.S)
}
