package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// stubValidator maps the Authorization header straight to a result.
type stubValidator struct {
	calls atomic.Int32
}

func (s *stubValidator) Authenticate(r *http.Request) (int64, error) {
	s.calls.Add(1)
	switch r.Header.Get("Authorization") {
	case "":
		return 0, authsdk.ErrNoAuthHeader
	case "Basic Zm9vOmJhcg==":
		return 0, authsdk.ErrBadAuthHeader
	case "Bearer good":
		return 7, nil
	case "Bearer deleted":
		return 0, authsdk.ErrUserNotFound
	case "Bearer opaque":
		return 0, errors.New("something the validator did not classify")
	default:
		return 0, authsdk.ErrInvalidToken
	}
}

func newAuthenticator() (*httpx.Authenticator, *stubValidator) {
	v := &stubValidator{}
	return &httpx.Authenticator{
		Validator:    v,
		Prefix:       "/api/",
		ValidatePath: "/api/jwt-auth/v1/token/validate",
	}, v
}

func TestAuthenticateStates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		header string
		state  httpx.State
		code   string
	}{
		{"outside prefix", "/livez", "Bearer bad", httpx.NotApplicable, ""},
		{"validate endpoint skipped", "/api/jwt-auth/v1/token/validate", "Bearer bad", httpx.NotApplicable, ""},
		{"no header", "/api/v1/users/me", "", httpx.NotApplicable, ""},
		{"other scheme", "/api/v1/users/me", "Basic Zm9vOmJhcg==", httpx.NotApplicable, ""},
		{"valid", "/api/v1/users/me", "Bearer good", httpx.Resolved, ""},
		{"invalid", "/api/v1/users/me", "Bearer bad", httpx.Deferred, authsdk.CodeInvalidToken},
		{"deleted user", "/api/v1/users/me", "Bearer deleted", httpx.Deferred, authsdk.CodeUserNotFound},
		{"unclassified error", "/api/v1/users/me", "Bearer opaque", httpx.Deferred, authsdk.CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newAuthenticator()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			out := a.Authenticate(req)
			require.Equal(t, tt.state, out.State, out.State.String())
			if tt.state == httpx.Resolved {
				require.EqualValues(t, 7, out.UserID)
			}
			if tt.code != "" {
				require.Equal(t, tt.code, out.Err.Code)
			}
		})
	}
}

func TestAuthenticateRespectsExistingIdentity(t *testing.T) {
	t.Parallel()

	a, v := newAuthenticator()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	req = req.WithContext(httpx.WithUserID(req.Context(), 3))

	require.Equal(t, httpx.NotApplicable, a.Authenticate(req).State)
	require.Zero(t, v.calls.Load(), "validator must not run")
}

// pipeline mirrors the router: phase one, something in between, phase two.
func pipeline(a *httpx.Authenticator, between httpx.Middleware, final http.Handler) http.Handler {
	return httpx.Chain(final, a.Middleware(), between, httpx.DispatchMiddleware())
}

func TestTwoPhaseDeferral(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator()

	var sawOutcome httpx.Outcome
	between := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawOutcome = httpx.OutcomeFromContext(r.Context())
			next.ServeHTTP(w, r)
		})
	}
	reached := false
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer deleted")
	rec := httptest.NewRecorder()
	pipeline(a, between, final).ServeHTTP(rec, req)

	require.Equal(t, httpx.Deferred, sawOutcome.State, "error is parked, not written, in phase one")
	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "jwt_auth_user_not_found", body.Code)
	require.Equal(t, http.StatusForbidden, body.Data.Status)
}

func TestResolvedIdentityReachesHandler(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator()
	var got int64
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = httpx.UserIDFromContext(r.Context())
	})
	noop := func(next http.Handler) http.Handler { return next }

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	pipeline(a, noop, final).ServeHTTP(httptest.NewRecorder(), req)

	require.EqualValues(t, 7, got)
}

func TestUnauthenticatedRequestsPassThrough(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator()
	noop := func(next http.Handler) http.Handler { return next }
	h := pipeline(a, noop, httpx.Chain(okHandler, httpx.RequireUser()))

	// No token on a protected route: the route itself decides, here 401.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// No token outside the surface: untouched.
	rec = httptest.NewRecorder()
	pipeline(a, noop, okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOutcomeIsPerRequest(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator()
	noop := func(next http.Handler) http.Handler { return next }
	h := pipeline(a, noop, okHandler)

	codes := make([]int, 50)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/things", nil)
			if i%2 == 0 {
				req.Header.Set("Authorization", "Bearer bad")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		if i%2 == 0 {
			require.Equal(t, http.StatusForbidden, code, "request %d", i)
		} else {
			require.Equal(t, http.StatusOK, code, "request %d", i)
		}
	}
}

func TestReportDeferred(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.False(t, httpx.ReportDeferred(rec, httpx.Outcome{State: httpx.Resolved, UserID: 1}))
	require.False(t, httpx.ReportDeferred(rec, httpx.OutcomeFromContext(context.Background())))
	require.Equal(t, 0, rec.Body.Len())

	require.True(t, httpx.ReportDeferred(rec, httpx.Outcome{State: httpx.Deferred, Err: authsdk.ErrBadIssuer}))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "jwt_auth_bad_iss")
}
