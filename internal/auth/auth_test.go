package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/config"
)

func testManager() *Manager {
	return NewManager(&config.AuthConfig{
		Enabled:        true,
		GoogleClientID: "client",
		AllowedDomain:  "example.com",
		CookieName:     "launchkit_session",
		CookieMaxAge:   3600,
	}, "http://localhost:8080")
}

func TestOrgIDForDomainStable(t *testing.T) {
	a := OrgIDForDomain("example.com")
	b := OrgIDForDomain("EXAMPLE.com")
	c := OrgIDForDomain("other.com")

	assert.Equal(t, a, b, "case should not change the org")
	assert.NotEqual(t, a, c)
}

func TestGetSessionExpired(t *testing.T) {
	m := testManager()
	m.sessions["sid"] = &Session{
		Email:     "ana@example.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	r.AddCookie(&http.Cookie{Name: "launchkit_session", Value: "sid"})

	assert.Nil(t, m.GetSession(r))
	_, exists := m.sessions["sid"]
	assert.False(t, exists, "expired session should be dropped")
}

func TestGetSessionLive(t *testing.T) {
	m := testManager()
	m.sessions["sid"] = &Session{
		Email:     "ana@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	r.AddCookie(&http.Cookie{Name: "launchkit_session", Value: "sid"})

	session := m.GetSession(r)
	require.NotNil(t, session)
	assert.Equal(t, "ana@example.com", session.Email)
}

func TestRequireAuthBlocksAPI(t *testing.T) {
	m := testManager()
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path string
		want int
	}{
		{"/api/leads", http.StatusUnauthorized},
		{"/health", http.StatusOK},
		{"/auth/login", http.StatusOK},
		{"/", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireAuthAllowsAuthenticated(t *testing.T) {
	m := testManager()
	m.sessions["sid"] = &Session{ExpiresAt: time.Now().Add(time.Hour)}

	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	r.AddCookie(&http.Cookie{Name: "launchkit_session", Value: "sid"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}
