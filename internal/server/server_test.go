package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/interview-tracker/internal/events"
	"github.com/sakif/interview-tracker/internal/repository/sqlite"
)

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, logger, db, events.Nop{})
	require.NoError(t, err)
	return srv.Handler()
}

func request(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, Config{CORSOrigins: []string{"*"}, RequestLogging: true})

	rr := request(h, http.MethodGet, "/_health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok":true`)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))

	rr = request(h, http.MethodPost, "/users", `{"name":"Asha","domain":"web"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = request(h, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Asha")

	rr = request(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Asha")

	rr = request(h, http.MethodGet, "/does/not/exist", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rr.Body.String())

	rr = request(h, http.MethodPatch, "/users", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rr.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t, Config{CORSOrigins: []string{"*"}})

	request(h, http.MethodGet, "/users", "")
	request(h, http.MethodGet, "/users/missing", "")

	rr := request(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "tracker_http_requests_total")
	assert.Contains(t, body, `tracker_store_operations_total{op="get",outcome="not_found"} 1`)
	assert.Contains(t, body, `tracker_store_operations_total{op="list",outcome="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_CORS(t *testing.T) {
	h := newTestServer(t, Config{CORSOrigins: []string{"https://dash.example"}})

	rr := request(h, http.MethodOptions, "/users", "",
		"Origin", "https://dash.example",
		"Access-Control-Request-Method", http.MethodPut,
	)
	assert.Equal(t, "https://dash.example", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = request(h, http.MethodGet, "/users", "", "Origin", "https://evil.example")
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RateLimit(t *testing.T) {
	h := newTestServer(t, Config{CORSOrigins: []string{"*"}, RateLimitPerMinute: 2})

	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/_health", "").Code)
	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/_health", "").Code)

	rr := request(h, http.MethodGet, "/_health", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error"`)
}
