package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/ai"
	"github.com/launchkit/launchkit/internal/analytics"
	"github.com/launchkit/launchkit/internal/auth"
	"github.com/launchkit/launchkit/internal/chatbot"
	"github.com/launchkit/launchkit/internal/config"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	return s.reply, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

func testRouter(h *Handlers) http.Handler {
	return SetupRoutes(h, nil, NewRateLimiter(nil, 20, false, ""))
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestHealthCheck(t *testing.T) {
	h := NewHandlers(nil)
	w := doJSON(t, testRouter(h), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])

	subsystems, ok := resp["subsystems"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, subsystems["chat"])
}

func TestUnconfiguredSubsystemsReturn503(t *testing.T) {
	h := NewHandlers(nil)
	router := testRouter(h)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/leads/", nil},
		{http.MethodPost, "/api/websites/generate", map[string]string{"business_name": "x"}},
		{http.MethodPost, "/api/campaigns/generate", map[string]string{"product": "x"}},
		{http.MethodPost, "/api/chat/", map[string]string{"message": "hi"}},
		{http.MethodGet, "/api/reports/", nil},
		{http.MethodPost, "/api/images/generate", map[string]string{"prompt": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestChatEndpoint(t *testing.T) {
	h := NewHandlers(nil)
	h.SetChat(chatbot.NewService(&stubGenerator{reply: "Happy to help with your campaign."},
		chatbot.NewMemorySessionStore(), 20))
	router := testRouter(h)

	w := doJSON(t, router, http.MethodPost, "/api/chat/", map[string]string{
		"message": "How do I improve open rates?",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var reply chatbot.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.NotEmpty(t, reply.SessionID, "server should mint a session id")
	assert.Equal(t, "Happy to help with your campaign.", reply.Message)
}

func TestChatEndpointMissingMessage(t *testing.T) {
	h := NewHandlers(nil)
	h.SetChat(chatbot.NewService(&stubGenerator{reply: "ok"}, chatbot.NewMemorySessionStore(), 20))

	w := doJSON(t, testRouter(h), http.MethodPost, "/api/chat/", map[string]string{"session_id": "s"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearChatSession(t *testing.T) {
	h := NewHandlers(nil)
	h.SetChat(chatbot.NewService(&stubGenerator{reply: "ok"}, chatbot.NewMemorySessionStore(), 20))
	router := testRouter(h)

	w := doJSON(t, router, http.MethodPost, "/api/chat/", map[string]string{
		"session_id": "sess-1", "message": "hello",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/chat/sess-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrgIDFromHeader(t *testing.T) {
	h := NewHandlers(nil)

	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	r.Header.Set("X-Organization-ID", "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", h.orgID(r).String())

	r = httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	assert.Equal(t, defaultOrg, h.orgID(r))
}

func TestInvalidIDsReturn400(t *testing.T) {
	h := NewHandlers(nil)
	h.SetChat(chatbot.NewService(&stubGenerator{reply: "ok"}, chatbot.NewMemorySessionStore(), 20))
	router := testRouter(h)

	w := doJSON(t, router, http.MethodPost, "/api/chat/", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetArchivedReportScopedToOrganization(t *testing.T) {
	h := NewHandlers(nil)
	h.SetReports(nil, analytics.NewArchive(nil, nil, "reports", "launchkit-assets"))
	router := testRouter(h)

	orgID := uuid.New()
	otherOrg := uuid.New()

	// A key under another organization's prefix must not be fetchable,
	// regardless of whether the object exists.
	r := httptest.NewRequest(http.MethodGet,
		"/api/reports/archive?key=reports/"+otherOrg.String()+"/2026-01-01T00-00-00.json", nil)
	r.Header.Set("X-Organization-ID", orgID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/reports/archive", nil)
	r.Header.Set("X-Organization-ID", orgID.String())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthGateBlocksAPI(t *testing.T) {
	t.Setenv("DEV_MODE", "")
	t.Setenv("ENVIRONMENT", "")

	manager := newTestAuthManager()
	h := NewHandlers(manager)
	router := SetupRoutes(h, manager, NewRateLimiter(nil, 20, false, ""))

	w := doJSON(t, router, http.MethodGet, "/api/leads/", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func newTestAuthManager() *auth.Manager {
	return auth.NewManager(&config.AuthConfig{
		Enabled:        true,
		GoogleClientID: "client",
		CookieName:     "launchkit_session",
		CookieMaxAge:   3600,
	}, "http://localhost:8080")
}
