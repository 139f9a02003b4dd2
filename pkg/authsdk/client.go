package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTokenPath is where the service mounts its token namespace.
const DefaultTokenPath = "/api/jwt-auth/v1"

// SDKClient is a client for the jwtauth service. It issues and validates
// tokens and calls protected endpoints with a bearer token.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// TokenPath is the token namespace, DefaultTokenPath unless the server
	// was mounted elsewhere.
	TokenPath string
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		TokenPath: DefaultTokenPath,
	}
}
