package authsdk

import (
	"context"
	"net/http"
)

// Token exchanges a username (or email) and password for a signed token.
// Failures come back as *AuthError, with Reason set to the identity
// provider's code when the credentials were rejected.
func (c *SDKClient) Token(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   c.TokenPath + "/token",
		body:   TokenRequest{Username: username, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the service whether token is currently valid.
func (c *SDKClient) Validate(ctx context.Context, token string) (*ValidateResponse, error) {
	var out ValidateResponse
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   c.TokenPath + "/token/validate",
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile of the user the token resolves to.
func (c *SDKClient) Me(ctx context.Context, token string) (*UserProfile, error) {
	var out UserProfile
	err := c.call(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/users/me",
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
