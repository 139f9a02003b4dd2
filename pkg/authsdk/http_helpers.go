package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// request describes one call to the service.
type request struct {
	method string
	path   string
	token  string // sent as a bearer token when set
	body   any    // JSON encoded when set
}

// send performs r and returns the status with the fully read body.
func (c *SDKClient) send(ctx context.Context, r request) (*http.Response, []byte, error) {
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, fmt.Errorf("authsdk: encode %s: %w", r.path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.BaseURL+r.path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("authsdk: build %s: %w", r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("authsdk: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("authsdk: read %s: %w", r.path, err)
	}
	return resp, raw, nil
}

// call performs r and decodes a 200 body into out. Any other status comes
// back as an *AuthError.
func (c *SDKClient) call(ctx context.Context, r request, out any) error {
	resp, raw, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("authsdk: decode %s: %w", r.path, err)
	}
	return nil
}
