package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type basicStub struct{}

func (basicStub) VerifyBasic(_ context.Context, username, password string) (int64, error) {
	if username == "admin" && password == "secret" {
		return 1, nil
	}
	return 0, errors.New("nope")
}

func TestBasicAuthShadowsBearer(t *testing.T) {
	t.Parallel()

	a, v := newAuthenticator()

	var got int64
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = httpx.UserIDFromContext(r.Context())
	})
	h := httpx.Chain(final, httpx.BasicAuth(basicStub{}), a.Middleware(), httpx.DispatchMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.EqualValues(t, 1, got)
	require.Zero(t, v.calls.Load(), "bearer validation skipped once basic resolved")
}

func TestBasicAuthWrongPasswordStaysAnonymous(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator()

	resolved := true
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, resolved = httpx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := httpx.Chain(final, httpx.BasicAuth(basicStub{}), a.Middleware(), httpx.DispatchMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// The Basic header is not a bearer header, so nothing is deferred either.
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, resolved)
}
