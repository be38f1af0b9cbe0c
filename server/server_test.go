package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/feeta/internal/profile"
	teststore "github.com/hrygo/feeta/store/test"
)

func newTestServer(t *testing.T, p *profile.Profile) *Server {
	t.Helper()
	ctx := context.Background()
	s, err := NewServer(ctx, p, teststore.NewTestingStore(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, closeFn := range s.closers {
			_ = closeFn()
		}
	})
	return s
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_WithoutModel(t *testing.T) {
	s := newTestServer(t, &profile.Profile{
		Mode:            "dev",
		Driver:          "sqlite",
		AILLMProvider:   "gemini",
		SessionCapacity: 16,
		SessionTTL:      time.Hour,
	})

	t.Run("health", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("task endpoints disabled", func(t *testing.T) {
		rec := serve(s, http.MethodPost, "/api/v1/tasks/analyze", `{"task":"Add dark mode"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
	})

	t.Run("metrics still served", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/api/v1/system/metrics/overview", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestNewServer_WithModel(t *testing.T) {
	s := newTestServer(t, &profile.Profile{
		Mode:              "dev",
		Driver:            "sqlite",
		AILLMProvider:     "deepseek",
		AIDeepSeekAPIKey:  "test-key",
		AIDeepSeekBaseURL: "http://127.0.0.1:1",
		SessionCapacity:   16,
		SessionTTL:        time.Hour,
	})

	rec := serve(s, http.MethodPost, "/api/v1/tasks/analyze", `{"task":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, http.MethodGet, "/api/v1/conversations/unknown-session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[]")
}
