package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

// State is where a request stands with respect to bearer authentication.
type State int

const (
	// NotApplicable: the request is outside the protected surface, already
	// carries an identity, or presents no bearer credential at all.
	NotApplicable State = iota
	// Checking is transient and never stored.
	Checking
	// Resolved: the token was valid and Outcome.UserID is the caller.
	Resolved
	// Deferred: the token was presented but rejected. The error is written
	// at dispatch time.
	Deferred
	// Reported: a deferred error has been written in place of the response.
	Reported
)

func (s State) String() string {
	switch s {
	case NotApplicable:
		return "not_applicable"
	case Checking:
		return "checking"
	case Resolved:
		return "resolved"
	case Deferred:
		return "deferred"
	case Reported:
		return "reported"
	default:
		return "unknown"
	}
}

// Outcome is the result of phase one.
type Outcome struct {
	State  State
	UserID int64
	Err    *authsdk.AuthError
}

// TokenValidator validates the bearer credential on a request and returns
// the user it resolves to.
type TokenValidator interface {
	Authenticate(r *http.Request) (int64, error)
}

// Authenticator resolves bearer identities in two phases. Middleware runs
// phase one (Authenticate) and parks the outcome in the request context;
// DispatchMiddleware runs phase two (ReportDeferred) right before routing.
// Anything placed between the two, such as a user-keyed rate limiter, sees
// the resolved identity but no deferred error has been written yet.
type Authenticator struct {
	Validator TokenValidator

	// Prefix is the protected API surface, e.g. "/api/".
	Prefix string

	// ValidatePath is skipped so the validation endpoint does not validate
	// twice.
	ValidatePath string
}

// Authenticate decides whether the request is checked and, if so, what the
// check produced.
func (a *Authenticator) Authenticate(r *http.Request) Outcome {
	if !a.applies(r) {
		return Outcome{State: NotApplicable}
	}

	userID, err := a.Validator.Authenticate(r)
	if err == nil {
		return Outcome{State: Resolved, UserID: userID}
	}

	ae := authsdk.FromCodecError(err)
	switch ae.Code {
	case authsdk.CodeNoAuthHeader, authsdk.CodeBadAuthHeader:
		// Not ours. Leave the request to other schemes or anonymous access.
		return Outcome{State: NotApplicable}
	default:
		return Outcome{State: Deferred, Err: ae}
	}
}

func (a *Authenticator) applies(r *http.Request) bool {
	if !strings.HasPrefix(r.URL.Path, a.Prefix) {
		return false
	}
	if a.ValidatePath != "" && r.URL.Path == a.ValidatePath {
		return false
	}
	if _, ok := UserIDFromContext(r.Context()); ok {
		return false
	}
	return true
}

// Middleware is phase one. It never writes a response.
func (a *Authenticator) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			out := a.Authenticate(r)

			switch out.State {
			case Resolved:
				ctx = WithUserID(ctx, out.UserID)
				slogx.Annotate(ctx, "auth_state", out.State.String(), "user_id", out.UserID)
			case Deferred:
				slogx.Annotate(ctx, "auth_state", out.State.String(), "auth_code", out.Err.WireCode())
				slogx.FromContext(ctx).Info("bearer token rejected",
					"code", out.Err.WireCode(),
					"err", out.Err,
				)
			}

			next.ServeHTTP(w, r.WithContext(WithOutcome(ctx, out)))
		})
	}
}

// ReportDeferred is phase two. It writes a deferred error in place of the
// normal response and reports whether it did.
func ReportDeferred(w http.ResponseWriter, out Outcome) bool {
	if out.State != Deferred || out.Err == nil {
		return false
	}
	out.Err.WriteError(w)
	return true
}

// DispatchMiddleware applies ReportDeferred to the outcome stored by
// Middleware.
func DispatchMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := OutcomeFromContext(r.Context())
			if ReportDeferred(w, out) {
				slogx.FromContext(r.Context()).Debug("deferred auth error reported",
					"state", Reported.String(),
					"code", out.Err.WireCode(),
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests that no scheme resolved an identity for.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				authsdk.ErrNotLoggedIn.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
