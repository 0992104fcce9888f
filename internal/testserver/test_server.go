package testserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/hourbank/internal/docstore"
	"github.com/rpggio/hourbank/internal/domain/ledger"
	"github.com/rpggio/hourbank/internal/mcp"
	"github.com/rpggio/hourbank/internal/metrics"
	"github.com/rpggio/hourbank/internal/mirror"
	"github.com/rpggio/hourbank/internal/transport"
	"github.com/rpggio/hourbank/web"
	"github.com/stretchr/testify/require"
)

// TestServer runs the full HTTP surface over a file store in a temp dir.
type TestServer struct {
	Server    *httptest.Server
	StatePath string
	Store     *docstore.Store
	Metrics   *metrics.Recorder
}

type options struct {
	mirrorURL string
}

// Option configures a TestServer.
type Option func(*options)

// WithMirror points the mirror notifier at url.
func WithMirror(url string) Option {
	return func(o *options) { o.mirrorURL = url }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	statePath := filepath.Join(t.TempDir(), "state.json")
	backend, err := docstore.NewFileBackend(statePath)
	require.NoError(t, err)

	recorder := metrics.NewRecorder()
	store := docstore.New(backend, nil, docstore.WithObserver(recorder))
	notifier := mirror.New(o.mirrorURL, time.Second, nil, recorder)
	svc := ledger.NewService(store, notifier, recorder, nil)

	mcpServer := mcp.NewServer(mcp.Config{Ledger: svc})
	server := httptest.NewServer(transport.NewServer(svc, transport.Config{
		Static:  web.FS,
		Metrics: recorder.Handler(),
		MCP:     mcp.NewHTTPHandler(mcpServer),
	}))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:    server,
		StatePath: statePath,
		Store:     store,
		Metrics:   recorder,
	}
}

// Do sends a request with an optional raw body and returns the status and
// response body.
func (ts *TestServer) Do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}
