package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestCORSHeaderOnEveryResponse(t *testing.T) {
	t.Parallel()

	h := httpx.CORS("")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jwt-auth/v1/token", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, httpx.DefaultCORSAllowHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSCustomHeaders(t *testing.T) {
	t.Parallel()

	h := httpx.CORS("Content-Type, Authorization, X-Tenant")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "Content-Type, Authorization, X-Tenant", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	reached := false
	h := httpx.CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/jwt-auth/v1/token", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.False(t, reached, "preflight answered by the CORS layer")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}
