package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testSiteURL  = "https://example.com"
	testSecret   = "0123456789abcdef0123456789abcdef"
	testUsername = "admin"
	testPassword = "s3cret"
)

type domainUser = domain.User

type fixture struct {
	Store     *sqlite.Store
	Identity  *service.StoreIdentity
	Settings  *service.Settings
	Issuer    *service.IssuerService
	Validator *service.ValidatorService
	UserID    int64
	Now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	id, err := st.Users().CreateUser(context.Background(), domain.User{
		Username:     testUsername,
		Email:        "admin@example.com",
		DisplayName:  "The Admin",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0).UTC()
	codec := jwtx.NewCodec()
	codec.Clock = func() time.Time { return now }

	identity := service.NewStoreIdentity(st)
	settings := &service.Settings{
		SiteURL:   testSiteURL,
		Algorithm: "HS256",
		Keys:      &service.Keys{Secret: []byte(testSecret)},
		Codec:     codec,
	}

	return &fixture{
		Store:     st,
		Identity:  identity,
		Settings:  settings,
		Issuer:    &service.IssuerService{Settings: settings, Identity: identity},
		Validator: &service.ValidatorService{Settings: settings, Identity: identity},
		UserID:    id,
		Now:       now,
	}
}

func (f *fixture) issue(t *testing.T) string {
	t.Helper()

	resp, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}
