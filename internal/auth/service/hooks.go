package service

import (
	"time"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
)

// Hooks are the host's extension points. Each is a pure, synchronous
// transform; a nil field means identity (or the documented default).
type Hooks struct {
	// NotBefore returns nbf for a token issued at iat. Default: iat.
	NotBefore func(issuedAt time.Time) time.Time

	// Expire returns exp for a token issued at iat. Default: iat + TTL.
	Expire func(issuedAt time.Time) time.Time

	// BeforeSign may add or change claims right before encoding.
	BeforeSign func(claims jwtx.Claims) jwtx.Claims

	// BeforeDispatch reshapes or redacts the issued response.
	BeforeDispatch func(resp authsdk.TokenResponse) authsdk.TokenResponse

	// Issuer maps the configured issuer to the one used in tokens.
	Issuer func(issuer string) string

	// Algorithm maps the configured algorithm name to the one used. The
	// result still goes through the algorithm registry.
	Algorithm func(algorithm string) string

	// ValidResponse reshapes the validation endpoint's success body.
	ValidResponse func(resp authsdk.ValidateResponse) authsdk.ValidateResponse

	// CORSAllowHeaders maps the default Access-Control-Allow-Headers value.
	CORSAllowHeaders func(headers string) string
}

// withDefaults returns a copy with every nil field filled in.
func (h Hooks) withDefaults(ttl time.Duration) Hooks {
	if ttl <= 0 {
		ttl = jwtx.DefaultTokenTTL
	}
	if h.NotBefore == nil {
		h.NotBefore = func(iat time.Time) time.Time { return iat }
	}
	if h.Expire == nil {
		h.Expire = func(iat time.Time) time.Time { return iat.Add(ttl) }
	}
	if h.BeforeSign == nil {
		h.BeforeSign = func(c jwtx.Claims) jwtx.Claims { return c }
	}
	if h.BeforeDispatch == nil {
		h.BeforeDispatch = func(r authsdk.TokenResponse) authsdk.TokenResponse { return r }
	}
	if h.Issuer == nil {
		h.Issuer = func(s string) string { return s }
	}
	if h.Algorithm == nil {
		h.Algorithm = func(s string) string { return s }
	}
	if h.ValidResponse == nil {
		h.ValidResponse = func(r authsdk.ValidateResponse) authsdk.ValidateResponse { return r }
	}
	if h.CORSAllowHeaders == nil {
		h.CORSAllowHeaders = func(s string) string { return s }
	}
	return h
}

// AllowHeaders is the CORS header value after the CORSAllowHeaders hook.
func (h Hooks) AllowHeaders(defaults string) string {
	return h.withDefaults(0).CORSAllowHeaders(defaults)
}
