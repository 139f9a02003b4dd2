package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func requireAuthCode(t *testing.T, err error, code string) *authsdk.AuthError {
	t.Helper()

	require.Error(t, err)
	ae, ok := authsdk.AsAuthError(err)
	require.True(t, ok, "expected *authsdk.AuthError, got %T: %v", err, err)
	require.Equal(t, code, ae.Code)
	return ae
}

func TestIssueReturnsProfileAndDecodableToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", resp.UserEmail)
	require.Equal(t, "admin", resp.UserNicename)
	require.Equal(t, "The Admin", resp.UserDisplayName)

	claims, err := f.Settings.Codec.Decode(resp.Token, jwtx.SigningMaterial{
		Algorithm: jwtx.HS256,
		Key:       []byte(testSecret),
	})
	require.NoError(t, err)
	require.Equal(t, testSiteURL, claims.Issuer)
	require.Equal(t, f.UserID, claims.UserID())
	require.Equal(t, f.Now.Unix(), claims.IssuedAt.Unix())
	require.Equal(t, f.Now.Unix(), claims.NotBefore.Unix())
	require.Equal(t, f.Now.Add(jwtx.DefaultTokenTTL).Unix(), claims.ExpiresAt.Unix())
}

func TestIssueAcceptsEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := f.Issuer.Issue(context.Background(), "ADMIN@example.com", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
}

func TestIssueCredentialFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name     string
		username string
		password string
		reason   string
	}{
		{"empty username", "", testPassword, service.CredEmptyUsername},
		{"empty password", testUsername, "", service.CredEmptyPassword},
		{"unknown username", "nobody", testPassword, service.CredInvalidUsername},
		{"unknown email", "nobody@example.com", testPassword, service.CredInvalidEmail},
		{"wrong password", testUsername, "wrong", service.CredIncorrectPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Issuer.Issue(context.Background(), tt.username, tt.password)
			ae := requireAuthCode(t, err, authsdk.CodeAuthFailed)
			require.Equal(t, tt.reason, ae.Reason)
			require.Equal(t, "jwt_auth_failed", ae.WireCode())
			require.NotEmpty(t, ae.Message)
		})
	}
}

func TestIssueWithoutKeysIsBadConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.Settings.Keys = &service.Keys{}

	// Checked before the credentials are even looked at.
	_, err := f.Issuer.Issue(context.Background(), testUsername, "wrong")
	requireAuthCode(t, err, authsdk.CodeBadConfig)
}

func TestIssueMissingFamilyMaterialIsBadConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.Settings.Algorithm = "RS256"

	_, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	requireAuthCode(t, err, authsdk.CodeBadConfig)
}

func TestIssueUnsupportedAlgorithm(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.Settings.Hooks.Algorithm = func(string) string { return "none" }

	_, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	requireAuthCode(t, err, authsdk.CodeUnsupportedAlgorithm)
}

func TestIssueHooks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.Settings.Hooks = service.Hooks{
		NotBefore: func(iat time.Time) time.Time { return iat.Add(-time.Minute) },
		Expire:    func(iat time.Time) time.Time { return iat.Add(time.Hour) },
		BeforeSign: func(c jwtx.Claims) jwtx.Claims {
			c.Extra = map[string]any{"role": "admin"}
			return c
		},
		BeforeDispatch: func(r authsdk.TokenResponse) authsdk.TokenResponse {
			r.UserEmail = ""
			r.Extra = map[string]any{"scope": "all"}
			return r
		},
		Issuer: func(s string) string { return s + "/wp" },
	}

	resp, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.Empty(t, resp.UserEmail)
	require.Equal(t, "all", resp.Extra["scope"])

	res, err := f.Validator.Validate(context.Background(), "Bearer "+resp.Token)
	require.NoError(t, err)
	require.Equal(t, testSiteURL+"/wp", res.Claims.Issuer)
	require.Equal(t, "admin", res.Claims.Extra["role"])
	require.Equal(t, f.Now.Add(-time.Minute).Unix(), res.Claims.NotBefore.Unix())
	require.Equal(t, f.Now.Add(time.Hour).Unix(), res.Claims.ExpiresAt.Unix())
}

func TestIssueInvertedWindowIsBadConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.Settings.Hooks.NotBefore = func(iat time.Time) time.Time { return iat.Add(2 * time.Hour) }
	f.Settings.Hooks.Expire = func(iat time.Time) time.Time { return iat.Add(time.Hour) }

	_, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	requireAuthCode(t, err, authsdk.CodeBadConfig)
}

type brokenIdentity struct{}

func (brokenIdentity) VerifyCredentials(context.Context, string, string) (domainUser, error) {
	return domainUser{}, errors.New("database is gone")
}

func (brokenIdentity) GetUserByID(context.Context, int64) (domainUser, error) {
	return domainUser{}, errors.New("database is gone")
}

func TestIssueIdentityOutageIsServerError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.Issuer.Identity = brokenIdentity{}

	_, err := f.Issuer.Issue(context.Background(), testUsername, testPassword)
	ae := requireAuthCode(t, err, authsdk.CodeServerError)
	require.Equal(t, 500, ae.StatusCode)
}
