package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID  ctxKey = "user_id"
	CtxKeyOutcome ctxKey = "auth_outcome"
)

// WithUserID records the resolved identity for the rest of the request.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserIDFromContext returns the identity resolved by any scheme.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(int64)
	return id, ok && id > 0
}

// WithOutcome stores the bearer authenticator's outcome. The outcome lives in
// the request context so nothing about one request leaks into the next.
func WithOutcome(ctx context.Context, out Outcome) context.Context {
	return context.WithValue(ctx, CtxKeyOutcome, out)
}

// OutcomeFromContext returns the stored outcome, or NotApplicable.
func OutcomeFromContext(ctx context.Context) Outcome {
	if out, ok := ctx.Value(CtxKeyOutcome).(Outcome); ok {
		return out
	}
	return Outcome{State: NotApplicable}
}
