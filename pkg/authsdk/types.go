package authsdk

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every failed request:
//
//	{"code":"jwt_auth_bad_iss","message":"...","data":{"status":403}}
type ErrorResponse struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Data    ErrorData `json:"data"`
}

type ErrorData struct {
	Status int `json:"status"`

	// Reason is the identity provider failure code behind jwt_auth_failed
	Reason string `json:"reason,omitempty"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenRequest is the body of POST /token. Form-encoded bodies use the same
// field names.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned from POST /token. It carries the signed token and
// a few non-sensitive profile fields, never the password or its hash.
type TokenResponse struct {
	Token           string `json:"token"`
	UserEmail       string `json:"user_email"`
	UserNicename    string `json:"user_nicename"`
	UserDisplayName string `json:"user_display_name"`

	// Extra holds fields added by a BeforeDispatch hook.
	Extra map[string]any `json:"extra,omitempty"`
}

// ValidateResponse is returned from POST /token/validate.
type ValidateResponse struct {
	Code string       `json:"code"`
	Data ValidateData `json:"data"`
	User *UserProfile `json:"user,omitempty"`
}

type ValidateData struct {
	Status int `json:"status"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Nicename    string `json:"nicename"`
	DisplayName string `json:"display_name"`
}

// ============================================================================
// Health Check Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	// Database is "ok" or an error description
	Database string `json:"database"`

	// Keys is "ok" when signing material for the configured algorithm is loaded
	Keys string `json:"keys"`
}
