package http

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telbozor/api/internal/config"
	"github.com/telbozor/api/internal/domain"
	jwtinfra "github.com/telbozor/api/internal/infrastructure/jwt"
)

func newTestRouter(t *testing.T) (http.Handler, *jwtinfra.Provider) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := jwtinfra.NewProviderFromKeys(key, &key.PublicKey, time.Hour)

	cfg := &config.Config{AllowedOrigins: []string{"https://telbozor.uz"}}
	// Handlers are never reached past the middleware in these tests.
	h, stop := NewRouter(cfg, Services{}, p, nil)
	t.Cleanup(stop)
	return h, p
}

func TestRouter_HealthIsPublic(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_AuthenticatedRoutesRejectAnonymous(t *testing.T) {
	h, _ := newTestRouter(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/v1/listings"},
		{http.MethodGet, "/v1/me/listings"},
		{http.MethodGet, "/v1/requests"},
		{http.MethodGet, "/v1/notifications"},
		{http.MethodGet, "/v1/conversations"},
		{http.MethodPost, "/v1/messages"},
		{http.MethodPost, "/v1/likes/L1"},
		{http.MethodPut, "/v1/profiles/me"},
		{http.MethodGet, "/v1/ws"},
	}
	for _, rt := range routes {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", rt.method, rt.path)
	}
}

func TestRouter_BrandCreateIsAdminOnly(t *testing.T) {
	h, p := newTestRouter(t)
	token, err := p.Sign("u1", domain.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/listings", nil)
	req.Header.Set("Origin", "https://telbozor.uz")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://telbozor.uz", rr.Header().Get("Access-Control-Allow-Origin"))
}
