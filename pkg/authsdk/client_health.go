package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetLiveness reports whether the process is up.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness reports whether the service can issue and validate tokens.
// A degraded service returns both the body, so callers can see which check
// failed, and an *AuthError carrying the 503.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, body, err := c.send(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, parseErrorResponse(resp, body)
		}
		return nil, fmt.Errorf("authsdk: decode %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &health, &AuthError{
			StatusCode: resp.StatusCode,
			Code:       "service_unavailable",
			Message:    fmt.Sprintf("%s reported %q", path, health.Status),
		}
	}
	return &health, nil
}
