package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

// IssuerService exchanges credentials for a signed token.
type IssuerService struct {
	Settings *Settings
	Identity IdentityProvider
}

// Issue verifies the credentials and returns a signed token with the user's
// public profile fields. Every failure is an *authsdk.AuthError.
func (s *IssuerService) Issue(ctx context.Context, username, password string) (authsdk.TokenResponse, error) {
	l := slogx.FromContext(ctx)
	hooks := s.Settings.hooks()

	// 1. Refuse to even look at credentials without any key material
	keys := s.Settings.keys()
	if keys.Empty() {
		l.Error("token requested but no key material is configured")
		return authsdk.TokenResponse{}, authsdk.ErrBadConfig
	}

	// 2. Verify credentials
	user, err := s.Identity.VerifyCredentials(ctx, username, password)
	if err != nil {
		var cerr *CredentialError
		if errors.As(err, &cerr) {
			l.Info("token request rejected", slog.String("reason", cerr.Code))
			ae := authsdk.ErrAuthFailed.WithMessage(cerr.Message)
			ae.Reason = cerr.Code
			return authsdk.TokenResponse{}, ae
		}
		l.Error("identity provider failed", slog.Any("error", err))
		return authsdk.TokenResponse{}, authsdk.ErrServerError.Wrap(err).WithMessage(authsdk.ErrServerError.Message)
	}

	// 3. Build the claim set
	iat := s.Settings.now()
	nbf := hooks.NotBefore(iat)
	exp := hooks.Expire(iat)
	if nbf.IsZero() || exp.IsZero() || nbf.After(exp) {
		l.Error("token lifetime hooks produced an invalid window",
			slog.Time("nbf", nbf),
			slog.Time("exp", exp),
		)
		return authsdk.TokenResponse{}, authsdk.ErrBadConfig.Wrap(
			fmt.Errorf("invalid token window nbf=%s exp=%s", nbf, exp),
		).WithMessage(authsdk.ErrBadConfig.Message)
	}
	claims := jwtx.NewClaims(s.Settings.Issuer(), user.ID, iat, nbf, exp)

	// 4. Resolve the algorithm before anything is encoded
	alg, err := s.Settings.resolveAlgorithm()
	if err != nil {
		l.Error("configured algorithm rejected", slog.Any("error", err))
		return authsdk.TokenResponse{}, err
	}
	material, ok := keys.ForSigning(alg)
	if !ok {
		l.Error("no signing key for algorithm", slog.String("alg", alg.String()))
		return authsdk.TokenResponse{}, authsdk.ErrBadConfig
	}

	// 5. Let the host add claims, then sign
	token, err := s.Settings.codec().Encode(hooks.BeforeSign(claims), material)
	if err != nil {
		l.Error("failed to sign token", slog.String("alg", alg.String()), slog.Any("error", err))
		if errors.Is(err, jwtx.ErrUnsupportedAlgorithm) {
			return authsdk.TokenResponse{}, authsdk.ErrUnsupportedAlgorithm
		}
		return authsdk.TokenResponse{}, authsdk.ErrBadConfig.Wrap(err).WithMessage(authsdk.ErrBadConfig.Message)
	}

	l.Info("token issued",
		slog.Int64("user_id", user.ID),
		slog.String("alg", alg.String()),
		slog.String("token_fp", cryptox.FingerprintToken(token)),
		slog.Time("exp", exp),
	)

	return hooks.BeforeDispatch(authsdk.TokenResponse{
		Token:           token,
		UserEmail:       user.Email,
		UserNicename:    user.Nicename,
		UserDisplayName: user.DisplayName,
	}), nil
}
