package http

import (
	"net/http"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
)

// ValidateHandler serves POST /api/jwt-auth/v1/token/validate.
type ValidateHandler struct {
	ValidatorService *service.ValidatorService
}

// ServeHTTP godoc
//
//	@Summary		Validate a token
//	@Description	Checks the bearer token on the request: signature, time window, issuer and that the user still exists.
//	@Tags			Token
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ValidateResponse	"jwt_auth_valid_token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"jwt_auth_no_auth_header, jwt_auth_bad_auth_header, jwt_auth_invalid_token, jwt_auth_bad_iss, jwt_auth_bad_request, jwt_auth_user_not_found"
//	@Failure		500	{object}	authsdk.ErrorResponse		"jwt_auth_server_error"
//	@Router			/api/jwt-auth/v1/token/validate [post].
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h.ValidatorService.ValidateRequest(r)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.ValidatorService.Response(res))
}
