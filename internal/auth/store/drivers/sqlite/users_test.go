package sqlite_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsersCreateAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	id, err := s.Users().CreateUser(ctx, domain.User{
		Username:     "Admin",
		Email:        "admin@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.Positive(t, id)

	byID, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Admin", byID.Username)
	require.Equal(t, "admin", byID.Nicename)
	require.Equal(t, "Admin", byID.DisplayName)
	require.False(t, byID.CreatedAt.IsZero())

	byName, err := s.Users().GetUserByUsername(ctx, "Admin")
	require.NoError(t, err)
	require.Equal(t, id, byName.ID)

	byEmail, err := s.Users().GetUserByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	require.Equal(t, id, byEmail.ID)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestUsersNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Users().GetUserByID(ctx, 404)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByUsername(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Users().DeleteUser(ctx, 404), store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateDisplayName(ctx, 404, "x"), store.ErrNotFound)
}

func TestUsersDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	u := domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"}
	_, err := s.Users().CreateUser(ctx, u)
	require.NoError(t, err)

	_, err = s.Users().CreateUser(ctx, u)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsersUpdateAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Users().CreateUser(ctx, domain.User{Username: "carol", Email: "carol@example.com", PasswordHash: "old"})
	require.NoError(t, err)

	require.NoError(t, s.Users().UpdateDisplayName(ctx, id, "Carol C."))
	require.NoError(t, s.Users().UpdatePasswordHash(ctx, id, "new"))

	u, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Carol C.", u.DisplayName)
	require.Equal(t, "new", u.PasswordHash)

	require.NoError(t, s.Users().DeleteUser(ctx, id))
	_, err = s.Users().GetUserByID(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, domain.User{Username: "dave", Email: "dave@example.com", PasswordHash: "h"})
		require.NoError(t, err)
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestNestedWithTxJoinsOuter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Ping(ctx))

		_, err := tx.Tx(ctx)
		require.ErrorIs(t, err, store.ErrNestedTx)

		require.NoError(t, tx.WithTx(ctx, func(inner store.Tx) error {
			_, err := inner.Users().CreateUser(ctx, domain.User{Username: "erin", Email: "erin@example.com", PasswordHash: "h"})
			return err
		}))

		_, err = tx.Users().GetUserByUsername(ctx, "erin")
		require.NoError(t, err, "inner writes are visible to the outer transaction")
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().GetUserByUsername(ctx, "erin")
	require.ErrorIs(t, err, store.ErrNotFound, "outer rollback discards inner writes")
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())

	v, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, v)
}
