// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sessiongate/sessiongate/internal/auth"
	"github.com/sessiongate/sessiongate/internal/httpapi"
	"github.com/sessiongate/sessiongate/internal/logging"
	"github.com/sessiongate/sessiongate/internal/observability"
)

// mockAuthService is a testify mock of httpapi.AuthService.
type mockAuthService struct {
	mock.Mock
}

func newMockAuthService(t *testing.T) *mockAuthService {
	m := &mockAuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*auth.Registration, error) {
	args := m.Called(ctx, name, email, password)
	reg, _ := args.Get(0).(*auth.Registration)
	return reg, args.Error(1)
}

func (m *mockAuthService) Authenticate(ctx context.Context, email, password string) (*auth.SessionToken, error) {
	args := m.Called(ctx, email, password)
	token, _ := args.Get(0).(*auth.SessionToken)
	return token, args.Error(1)
}

func (m *mockAuthService) ValidateToken(token string) (*auth.Identity, error) {
	args := m.Called(token)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

type testRouter struct {
	engine  *gin.Engine
	metrics *observability.Metrics
	logs    *bytes.Buffer
}

func newTestRouter(svc httpapi.AuthService, opts httpapi.RouterOptions) *testRouter {
	logs := &bytes.Buffer{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	opts.Logger = logging.Setup("sessiongate", "test", "json", slog.LevelDebug, logs)
	opts.Metrics = metrics
	return &testRouter{
		engine:  httpapi.NewRouter(svc, opts),
		metrics: metrics,
		logs:    logs,
	}
}

func (r *testRouter) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func postJSON(r *testRouter, path, body string) *httptest.ResponseRecorder {
	return r.do(http.MethodPost, path, body)
}
