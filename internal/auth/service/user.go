package service

import (
	"context"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ProfileOf is the public view of u. It never includes the password hash.
func ProfileOf(u domain.User) authsdk.UserProfile {
	return authsdk.UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Nicename:    u.Nicename,
		DisplayName: u.DisplayName,
	}
}
