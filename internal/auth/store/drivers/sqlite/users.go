package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	nicename := u.Nicename
	if nicename == "" {
		nicename = strings.ToLower(u.Username)
	}
	displayName := u.DisplayName
	if displayName == "" {
		displayName = u.Username
	}

	id, err := r.q.CreateUser(ctx, createUserParams{
		Username:     u.Username,
		Email:        u.Email,
		Nicename:     nicename,
		DisplayName:  displayName,
		PasswordHash: u.PasswordHash,
	})
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *usersRepo) UpdateDisplayName(ctx context.Context, userID int64, displayName string) error {
	return affected(r.q.UpdateUserDisplayName(ctx, displayName, userID))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	return affected(r.q.UpdateUserPasswordHash(ctx, newHash, userID))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID int64) error {
	return affected(r.q.DeleteUser(ctx, userID))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// affected turns a zero-row update into ErrNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
