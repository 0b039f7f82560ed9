// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package httpapi_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessiongate/sessiongate/internal/httpapi"
)

func accessLogEntries(t *testing.T, logs *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(logs.Bytes()))
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		if entry["msg"] == "http request" {
			entries = append(entries, entry)
		}
	}
	return entries
}

func TestRequestID_Generated(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{})

	rec := postJSON(r, "/login", `{}`)

	id := rec.Header().Get(httpapi.RequestIDHeader)
	_, err := ulid.Parse(id)
	require.NoError(t, err, "request id %q should be a ULID", id)

	entries := accessLogEntries(t, r.logs)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0]["request_id"])
	assert.Equal(t, "/login", entries[0]["path"])
	assert.InDelta(t, http.StatusBadRequest, entries[0]["status"], 0)
}

func TestRequestID_Echoed(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{})

	rec := r.do(http.MethodPost, "/login", `{}`, httpapi.RequestIDHeader, "caller-supplied-id")

	assert.Equal(t, "caller-supplied-id", rec.Header().Get(httpapi.RequestIDHeader))
}

func TestRequestID_OversizedReplaced(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{})
	long := strings.Repeat("x", 200)

	rec := r.do(http.MethodPost, "/login", `{}`, httpapi.RequestIDHeader, long)

	id := rec.Header().Get(httpapi.RequestIDHeader)
	assert.NotEqual(t, long, id)
	assert.Len(t, id, 26)
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{})
	r.engine.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := r.do(http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": httpapi.MsgInternalError}, decodeBody(t, rec))
	assert.Contains(t, r.logs.String(), `"msg":"panic recovered"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/panic", "500")))
}

func TestRequestMetrics_RouteLabels(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{})

	postJSON(r, "/login", `{}`)
	r.do(http.MethodGet, "/no/such/route", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.HTTPRequestsTotal.WithLabelValues("POST", "/login", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestNotFound_WithoutWebDir(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{})

	rec := r.do(http.MethodGet, "/dashboard", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"message": httpapi.MsgNotFound}, decodeBody(t, rec))
}

func TestCORS(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{
		AllowedOrigins: []string{"http://ui.example:3000"},
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		rec := r.do(http.MethodOptions, "/signup", "",
			"Origin", "http://ui.example:3000",
			"Access-Control-Request-Method", "POST",
			"Access-Control-Request-Headers", "Content-Type")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://ui.example:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request from other origin", func(t *testing.T) {
		rec := r.do(http.MethodPost, "/login", `{}`, "Origin", "http://evil.example")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_Wildcard(t *testing.T) {
	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{AllowedOrigins: []string{"*"}})

	rec := r.do(http.MethodPost, "/login", `{}`, "Origin", "http://anywhere.example")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))

	r := newTestRouter(newMockAuthService(t), httpapi.RouterOptions{WebDir: dir})

	t.Run("static asset", func(t *testing.T) {
		rec := r.do(http.MethodGet, "/assets/app.js", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "console.log(1)", rec.Body.String())
	})

	t.Run("client route falls back to index", func(t *testing.T) {
		rec := r.do(http.MethodGet, "/dashboard", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "<html>app</html>", rec.Body.String())
	})

	t.Run("root serves index", func(t *testing.T) {
		rec := r.do(http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "<html>app</html>", rec.Body.String())
	})

	t.Run("traversal stays inside web dir", func(t *testing.T) {
		rec := r.do(http.MethodGet, "/../../etc/passwd", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "<html>app</html>", rec.Body.String())
	})

	t.Run("unknown non-GET is not found", func(t *testing.T) {
		rec := r.do(http.MethodPost, "/nope", `{}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
