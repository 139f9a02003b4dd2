package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

type UsersMeHandler struct {
	UserService *service.UserService
}

// ServeHTTP returns the caller's profile.
//
//	@Summary		Current user
//	@Description	Returns the profile of the user resolved from the bearer token or Basic credentials.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserProfile		"id, username, email, nicename, display_name"
//	@Failure		401	{object}	authsdk.ErrorResponse	"rest_not_logged_in"
//	@Failure		403	{object}	authsdk.ErrorResponse	"jwt_auth_* when a bearer token was presented and rejected"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/api/v1/users/me [get].
func (h *UsersMeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		authsdk.ErrNotLoggedIn.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrNotLoggedIn.WriteError(w)
			return
		}
		log.Warn("failed to load user", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, service.ProfileOf(user))
}
