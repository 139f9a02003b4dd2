package auth_test

import (
	"crypto/elliptic"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// TestTokenLifecycle issues a token, validates it and uses it on a
// protected endpoint.
func TestTokenLifecycle(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	tok := login(t, client)
	require.Equal(t, adminEmail, tok.UserEmail)
	require.Equal(t, adminUsername, tok.UserNicename)
	require.Equal(t, adminDisplay, tok.UserDisplayName)

	valid, err := client.Validate(t.Context(), tok.Token)
	require.NoError(t, err)
	require.Equal(t, "jwt_auth_valid_token", valid.Code)
	require.Equal(t, 200, valid.Data.Status)

	me, err := client.Me(t.Context(), tok.Token)
	require.NoError(t, err)
	require.Equal(t, adminUsername, me.Username)
	require.Equal(t, adminEmail, me.Email)

	t.Logf("Token issued and accepted for user %d", me.ID)
}

// TestTokenByEmail verifies login accepts an email in the username field.
func TestTokenByEmail(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	resp, err := client.Token(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
}

// TestTokenRejectedAfterIssuerChange verifies a token minted for one site
// is not accepted by another sharing the secret.
func TestTokenRejectedAfterIssuerChange(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()
	tok := login(t, authsdk.NewSDKClient(baseURL))

	otherURL, otherCleanup := setupAuthContainerWithEnv(t, map[string]string{
		"AUTH_ISSUER": "https://other.example.com",
	})
	defer otherCleanup()

	_, err := authsdk.NewSDKClient(otherURL).Validate(t.Context(), tok.Token)
	// The other instance has its own database, so either check may fire;
	// issuer runs first.
	assertAuthError(t, err, "jwt_auth_bad_iss")
}

// TestAsymmetricAlgorithm verifies tokens signed with a configured private
// key validate with the derived public key.
func TestAsymmetricAlgorithm(t *testing.T) {
	priv, err := cryptox.GenerateECDSAKey(elliptic.P256())
	require.NoError(t, err)

	keyPath := filepath.Join(t.TempDir(), "es256.pem")
	require.NoError(t, os.WriteFile(keyPath, priv, 0o600))

	baseURL, cleanup := setupAuthContainerWithEnv(t, map[string]string{
		"AUTH_ALGORITHM":        "ES256",
		"AUTH_SECRET_KEY":       "",
		"AUTH_PRIVATE_KEY_FILE": "/data/es256.pem",
	}, testcontainers.ContainerFile{
		HostFilePath:      keyPath,
		ContainerFilePath: "/data/es256.pem",
		FileMode:          0o644,
	})
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	tok := login(t, client)

	_, err = client.Validate(t.Context(), tok.Token)
	require.NoError(t, err)
}
