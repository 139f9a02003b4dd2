package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

// BasicVerifier checks a username and password and returns the user id.
type BasicVerifier interface {
	VerifyBasic(ctx context.Context, username, password string) (int64, error)
}

// BasicAuth resolves an identity from HTTP Basic credentials. It runs before
// the bearer authenticator, which then leaves the request alone. Requests
// without Basic credentials, or with wrong ones, continue unauthenticated.
func BasicAuth(v BasicVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			userID, err := v.VerifyBasic(ctx, username, password)
			if err != nil {
				slogx.FromContext(ctx).Info("basic auth rejected", "username", username, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			slogx.Annotate(ctx, "auth_scheme", "basic", "user_id", userID)
			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, userID)))
		})
	}
}
