package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	CodeAuthFailed           = "auth_failed"
	CodeBadConfig            = "bad_config"
	CodeUnsupportedAlgorithm = "unsupported_algorithm"
	CodeNoAuthHeader         = "no_auth_header"
	CodeBadAuthHeader        = "bad_auth_header"
	CodeInvalidToken         = "invalid_token"
	CodeBadIssuer            = "bad_iss"
	CodeBadRequest           = "bad_request"
	CodeUserNotFound         = "user_not_found"

	// CodeNotLoggedIn is not part of the token taxonomy. Protected endpoints
	// answer with it when no scheme resolved an identity.
	CodeNotLoggedIn = "not_logged_in"

	// CodeServerError covers store outages and other failures that say
	// nothing about the caller's credentials.
	CodeServerError = "server_error"

	// CodeValidToken is the success code of the validation endpoint.
	CodeValidToken = "jwt_auth_valid_token"
)

const wirePrefix = "jwt_auth_"

// ============================================================================
// AuthError - client facing failure
// ============================================================================

// AuthError is the single error type that crosses the service boundary. The
// set of codes is closed; every token failure is one of the Code* constants.
// It implements the error interface and is used both by the server (to write
// HTTP responses) and by the SDK client (to represent errors).
type AuthError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int

	// Code is the bare taxonomy code, e.g. "bad_iss"
	Code string

	// Message is a human-readable description
	Message string

	// Reason carries the identity provider's own failure code for
	// auth_failed, e.g. "incorrect_password".
	Reason string

	// Err is the underlying cause. It is never written to the wire.
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.WireCode(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.WireCode(), e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches on code so callers can write errors.Is(err, authsdk.ErrBadIssuer).
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// WireCode is the code as clients see it.
func (e *AuthError) WireCode() string {
	switch e.Code {
	case CodeAuthFailed:
		return "jwt_auth_failed"
	case CodeNotLoggedIn:
		return "rest_not_logged_in"
	default:
		return wirePrefix + e.Code
	}
}

// Body builds the JSON body written for this error.
func (e *AuthError) Body() ErrorResponse {
	return ErrorResponse{
		Code:    e.WireCode(),
		Message: e.Message,
		Data: ErrorData{
			Status: e.StatusCode,
			Reason: e.Reason,
		},
	}
}

// WriteError writes this AuthError to an HTTP response writer.
func (e *AuthError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e.Body())
}

// WithMessage returns a copy carrying msg.
func (e *AuthError) WithMessage(msg string) *AuthError {
	c := *e
	c.Message = msg
	return &c
}

// Wrap returns a copy carrying err as its cause and err's text as message.
func (e *AuthError) Wrap(err error) *AuthError {
	c := *e
	c.Err = err
	if err != nil {
		c.Message = err.Error()
	}
	return &c
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrAuthFailed = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeAuthFailed,
		Message:    "Invalid credentials.",
	}

	ErrBadConfig = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeBadConfig,
		Message:    "JWT is not configured properly, please contact the admin",
	}

	ErrUnsupportedAlgorithm = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeUnsupportedAlgorithm,
		Message:    "Algorithm not supported, see https://www.rfc-editor.org/rfc/rfc7518#section-3",
	}

	ErrNoAuthHeader = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeNoAuthHeader,
		Message:    "Authorization header not found.",
	}

	ErrBadAuthHeader = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeBadAuthHeader,
		Message:    "Authorization header malformed.",
	}

	ErrInvalidToken = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeInvalidToken,
		Message:    "Invalid token.",
	}

	ErrBadIssuer = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeBadIssuer,
		Message:    "The iss do not match with this server",
	}

	ErrBadRequest = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeBadRequest,
		Message:    "User ID not found in the token",
	}

	ErrUserNotFound = &AuthError{
		StatusCode: http.StatusForbidden,
		Code:       CodeUserNotFound,
		Message:    "User not found",
	}

	ErrServerError = &AuthError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeServerError,
		Message:    "Internal server error.",
	}

	ErrNotLoggedIn = &AuthError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeNotLoggedIn,
		Message:    "You are not currently logged in.",
	}
)

// AsAuthError extracts the AuthError from err's chain.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// FromCodecError converts any token decoding failure into invalid_token,
// keeping the codec's message. AuthErrors pass through untouched.
func FromCodecError(err error) *AuthError {
	if err == nil {
		return nil
	}
	if ae, ok := AsAuthError(err); ok {
		return ae
	}
	return ErrInvalidToken.Wrap(err)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response back into an *AuthError. Bodies
// that do not carry the expected shape still produce one, keyed off the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		return &AuthError{
			StatusCode: resp.StatusCode,
			Code:       codeFromWire(errResp.Code),
			Message:    errResp.Message,
			Reason:     errResp.Data.Reason,
		}
	}

	return &AuthError{
		StatusCode: resp.StatusCode,
		Code:       "http_error",
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

func codeFromWire(code string) string {
	switch code {
	case "jwt_auth_failed":
		return CodeAuthFailed
	case "rest_not_logged_in":
		return CodeNotLoggedIn
	default:
		return strings.TrimPrefix(code, wirePrefix)
	}
}
