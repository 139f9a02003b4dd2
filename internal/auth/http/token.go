package http

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

const maxTokenBody = 64 << 10

// TokenHandler serves POST /api/jwt-auth/v1/token.
type TokenHandler struct {
	IssuerService *service.IssuerService
}

// ServeHTTP godoc
//
//	@Summary		Issue a token
//	@Description	Exchanges a username (or email) and password for a signed JWT.
//	@Description	The body may be JSON or application/x-www-form-urlencoded.
//	@Tags			Token
//	@Accept			json
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		authsdk.TokenRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse	"token, user_email, user_nicename, user_display_name"
//	@Failure		403		{object}	authsdk.ErrorResponse	"jwt_auth_failed, jwt_auth_bad_config, jwt_auth_unsupported_algorithm"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rest_rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"jwt_auth_server_error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Header			200		{string}	Pragma					"no-cache"
//	@Router			/api/jwt-auth/v1/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := readTokenRequest(w, r)

	resp, err := h.IssuerService.Issue(ctx, req.Username, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// readTokenRequest accepts JSON and form bodies. An unreadable body yields
// empty credentials, which the issuer rejects with a precise reason.
func readTokenRequest(w http.ResponseWriter, r *http.Request) authsdk.TokenRequest {
	r.Body = http.MaxBytesReader(w, r.Body, maxTokenBody)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var req authsdk.TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slogx.FromContext(r.Context()).Debug("unreadable token request body", "err", err)
			return authsdk.TokenRequest{}
		}
		return req
	}

	if err := r.ParseForm(); err != nil {
		slogx.FromContext(r.Context()).Debug("unreadable token request form", "err", err)
		return authsdk.TokenRequest{}
	}
	return authsdk.TokenRequest{
		Username: r.Form.Get("username"),
		Password: r.Form.Get("password"),
	}
}

// writeAuthError writes err as its AuthError, or as a server error when err
// is not one.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := authsdk.AsAuthError(err)
	if !ok {
		slogx.FromContext(r.Context()).Error("unexpected error", "err", err)
		ae = authsdk.ErrServerError
	}
	ae.WriteError(w)
}
