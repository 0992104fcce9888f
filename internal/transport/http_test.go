package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/hourbank/internal/domain/ledger"
	"github.com/rpggio/hourbank/internal/testserver"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestHTTPServer_GetState(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, status)

	state := decode[ledger.Response](t, body)
	require.Equal(t, 600.0, state.S)
	require.Equal(t, int64(45), state.R)
	require.Len(t, state.Members, 3)
	require.Equal(t, "张三", state.Members[0].Name)
	require.Equal(t, int64(225), state.Members[0].Grams)
	require.Equal(t, int64(11), state.Members[0].Value)

	require.FileExists(t, ts.StatePath)
}

func TestHTTPServer_UpdateParameters(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodPost, "/api/state", `{"S":"1200","c":"abc"}`)
	require.Equal(t, http.StatusOK, status)
	state := decode[ledger.Response](t, body)
	require.Equal(t, 1200.0, state.S)
	require.Equal(t, 0.045, state.C)
	require.Equal(t, int64(89), state.R)

	status, body = ts.Do(t, http.MethodPost, "/api/state", `not json`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1200.0, decode[ledger.Response](t, body).S)
}

func TestHTTPServer_AddMember(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodPost, "/api/members", `{"name":"  赵六 ","hours":"3"}`)
	require.Equal(t, http.StatusCreated, status)
	state := decode[ledger.Response](t, body)
	require.Len(t, state.Members, 4)
	added := state.Members[3]
	require.Equal(t, int64(4), added.ID)
	require.Equal(t, "赵六", added.Name)
	require.Equal(t, int64(135), added.Grams)
	require.Equal(t, int64(7), added.Value)

	status, body = ts.Do(t, http.MethodPost, "/api/members", `{"hours":2e7}`)
	require.Equal(t, http.StatusCreated, status)
	state = decode[ledger.Response](t, body)
	require.Equal(t, "成员5", state.Members[4].Name)
	require.Equal(t, float64(ledger.MaxHours), state.Members[4].Hours)

	status, body = ts.Do(t, http.MethodPost, "/api/members", `{"hours":"abc"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "INVALID_INPUT", decode[errorBody](t, body).Code)

	status, body = ts.Do(t, http.MethodPost, "/api/members", `{broken`)
	require.Equal(t, http.StatusCreated, status)
	state = decode[ledger.Response](t, body)
	last := state.Members[len(state.Members)-1]
	require.Equal(t, int64(6), last.ID)
	require.Equal(t, 0.0, last.Hours)
}

func TestHTTPServer_UpdateMember(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodPut, "/api/members/1", `{"hours":12}`)
	require.Equal(t, http.StatusOK, status)
	state := decode[ledger.Response](t, body)
	require.Equal(t, 12.0, state.Members[0].Hours)
	require.Equal(t, "张三", state.Members[0].Name)

	for _, payload := range []string{`{"hours":-5}`, `{"hours":"NaN"}`, `{"hours":20000000}`, `{"hours":"x"}`} {
		status, body = ts.Do(t, http.MethodPut, "/api/members/1", payload)
		require.Equal(t, http.StatusBadRequest, status, payload)
		require.Equal(t, "INVALID_INPUT", decode[errorBody](t, body).Code)
	}

	status, body = ts.Do(t, http.MethodPut, "/api/members/99", `{"hours":1}`)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "MEMBER_NOT_FOUND", decode[errorBody](t, body).Code)

	status, body = ts.Do(t, http.MethodPut, "/api/members/abc", `{"hours":1}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "INVALID_ID", decode[errorBody](t, body).Code)

	_, body = ts.Do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, 12.0, decode[ledger.Response](t, body).Members[0].Hours)
}

func TestHTTPServer_DeleteMember(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodDelete, "/api/members/2", "")
	require.Equal(t, http.StatusOK, status)
	state := decode[ledger.Response](t, body)
	require.Len(t, state.Members, 2)
	for _, m := range state.Members {
		require.NotEqual(t, int64(2), m.ID)
	}

	status, _ = ts.Do(t, http.MethodDelete, "/api/members/2", "")
	require.Equal(t, http.StatusNotFound, status)
}

func TestHTTPServer_ClearKeepsCounter(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodPost, "/api/clear", "")
	require.Equal(t, http.StatusOK, status)
	state := decode[ledger.Response](t, body)
	require.Empty(t, state.Members)
	require.Equal(t, 600.0, state.S)

	_, body = ts.Do(t, http.MethodPost, "/api/members", `{"name":"新人"}`)
	state = decode[ledger.Response](t, body)
	require.Len(t, state.Members, 1)
	require.Equal(t, int64(4), state.Members[0].ID)
}

func TestHTTPServer_SubmitWithoutMirror(t *testing.T) {
	ts := testserver.New(t)

	status, body := ts.Do(t, http.MethodPost, "/api/submit_and_add", `{"name":"李四","hours":20}`)
	require.Equal(t, http.StatusAccepted, status)

	result := decode[ledger.SubmitResult](t, body)
	require.True(t, result.OK)
	require.False(t, result.Uploaded)
	require.Equal(t, "mirror disabled", result.Reason)
	require.Equal(t, "李四", result.Payload.Name)
	require.Equal(t, int64(900), result.Payload.Grams)
	require.Len(t, result.State.Members, 3)
	require.Equal(t, int64(2), result.State.Members[1].ID)
	require.Equal(t, 20.0, result.State.Members[1].Hours)
}

func TestHTTPServer_SubmitWithMirror(t *testing.T) {
	var (
		mu       sync.Mutex
		received map[string]any
	)
	mirrorSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		_ = json.Unmarshal(data, &received)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(mirrorSrv.Close)

	ts := testserver.New(t, testserver.WithMirror(mirrorSrv.URL))

	status, body := ts.Do(t, http.MethodPost, "/api/submit_and_add", `{"name":"赵六","hours":"2"}`)
	require.Equal(t, http.StatusOK, status)
	result := decode[ledger.SubmitResult](t, body)
	require.True(t, result.Uploaded)
	require.Len(t, result.State.Members, 4)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "赵六", received["name"])
	require.Equal(t, 2.0, received["hours"])
	require.Equal(t, 90.0, received["g"])
	require.Equal(t, 5.0, received["v"])
	require.NotEmpty(t, received["submission_id"])
}

func TestHTTPServer_SubmitMirrorFailureStillSaves(t *testing.T) {
	mirrorSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(mirrorSrv.Close)

	ts := testserver.New(t, testserver.WithMirror(mirrorSrv.URL))

	status, body := ts.Do(t, http.MethodPost, "/api/submit_and_add", `{"name":"王五","hours":1}`)
	require.Equal(t, http.StatusAccepted, status)
	result := decode[ledger.SubmitResult](t, body)
	require.False(t, result.Uploaded)
	require.Contains(t, result.Reason, "503")

	data, err := os.ReadFile(ts.StatePath)
	require.NoError(t, err)
	doc := decode[ledger.Document](t, data)
	require.Equal(t, 1.0, doc.Members[2].Hours)
}

func TestHTTPServer_StaticAndHealth(t *testing.T) {
	ts := testserver.New(t)

	for _, path := range []string{"/", "/index.html"} {
		status, body := ts.Do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, status, path)
		require.Contains(t, string(body), "<title>hourbank</title>")
	}

	status, body := ts.Do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", string(body))

	ts.Do(t, http.MethodGet, "/api/state", "")
	status, body = ts.Do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), `hourbank_operations_total{operation="state",status="success"} 1`)
}

func TestHTTPServer_RequestID(t *testing.T) {
	ts := testserver.New(t)

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/api/state", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHTTPServer_ConcurrentAdds(t *testing.T) {
	ts := testserver.New(t)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.Server.URL+"/api/members", "application/json", strings.NewReader(`{"hours":1}`))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	_, body := ts.Do(t, http.MethodGet, "/api/state", "")
	state := decode[ledger.Response](t, body)
	require.Len(t, state.Members, 3+n)

	seen := make(map[int64]bool)
	for _, m := range state.Members {
		require.False(t, seen[m.ID], "duplicate id %d", m.ID)
		seen[m.ID] = true
	}
	for id := int64(4); id < 4+n; id++ {
		require.True(t, seen[id], "missing id %d", id)
	}
}

func TestHTTPServer_MCPEndpoint(t *testing.T) {
	ts := testserver.New(t)
	ctx := context.Background()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "add_member",
		Arguments: map[string]any{"name": "赵六", "hours": 4},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	_, body := ts.Do(t, http.MethodGet, "/api/state", "")
	state := decode[ledger.Response](t, body)
	require.Len(t, state.Members, 4)
	require.Equal(t, "赵六", state.Members[3].Name)
	require.Equal(t, int64(180), state.Members[3].Grams)
}
