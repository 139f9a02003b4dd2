package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

// DefaultAltHeader is read when Authorization is missing. Some proxies strip
// Authorization and forward it under another name.
const DefaultAltHeader = "X-Authorization"

const bearerPrefix = "Bearer "

// Result is a validated token and the user it belongs to.
type Result struct {
	Claims jwtx.Claims
	User   domain.User
}

// ValidatorService checks bearer tokens presented on requests.
type ValidatorService struct {
	Settings  *Settings
	Identity  IdentityProvider
	AltHeader string
}

// ValidateRequest reads the bearer credential from r and validates it.
func (v *ValidatorService) ValidateRequest(r *http.Request) (Result, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		alt := v.AltHeader
		if alt == "" {
			alt = DefaultAltHeader
		}
		header = r.Header.Get(alt)
	}
	return v.Validate(r.Context(), header)
}

// Validate checks an Authorization header value. The user lookup always
// runs: a correctly signed token for a deleted user is rejected. Every
// failure is an *authsdk.AuthError.
func (v *ValidatorService) Validate(ctx context.Context, header string) (Result, error) {
	l := slogx.FromContext(ctx)

	// 1. Locate the credential
	if header == "" {
		return Result{}, authsdk.ErrNoAuthHeader
	}

	// 2. Exactly "Bearer <token>"
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" || strings.ContainsAny(raw, " \t") {
		return Result{}, authsdk.ErrBadAuthHeader
	}

	// 3. Material must exist before any decoding
	keys := v.Settings.keys()
	if keys.Empty() {
		l.Error("token presented but no key material is configured")
		return Result{}, authsdk.ErrBadConfig
	}

	// 4. Algorithm
	alg, err := v.Settings.resolveAlgorithm()
	if err != nil {
		return Result{}, err
	}
	material, ok := keys.ForVerification(alg)
	if !ok {
		l.Error("no verification key for algorithm", slog.String("alg", alg.String()))
		return Result{}, authsdk.ErrBadConfig
	}

	// 5. Decode and verify
	claims, err := v.Settings.codec().Decode(raw, material)
	if err != nil {
		l.Debug("token rejected by codec",
			slog.String("token_fp", cryptox.FingerprintToken(raw)),
			slog.Any("error", err),
		)
		return Result{}, authsdk.FromCodecError(err)
	}

	// 6. Issuer, exact match
	if err := claims.ValidateIssuer(v.Settings.Issuer()); err != nil {
		return Result{}, authsdk.ErrBadIssuer.Wrap(err).WithMessage(authsdk.ErrBadIssuer.Message)
	}

	// 7. Subject
	if claims.UserID() <= 0 {
		return Result{}, authsdk.ErrBadRequest
	}

	// 8. The user must still exist
	user, err := v.Identity.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Result{}, authsdk.ErrUserNotFound
		}
		l.Error("identity provider failed", slog.Int64("user_id", claims.UserID()), slog.Any("error", err))
		return Result{}, authsdk.ErrServerError.Wrap(err).WithMessage(authsdk.ErrServerError.Message)
	}

	return Result{Claims: claims, User: user}, nil
}

// Authenticate implements httpx.TokenValidator.
func (v *ValidatorService) Authenticate(r *http.Request) (int64, error) {
	res, err := v.ValidateRequest(r)
	if err != nil {
		return 0, err
	}
	return res.User.ID, nil
}

// Response builds the validation endpoint's success body.
func (v *ValidatorService) Response(res Result) authsdk.ValidateResponse {
	profile := ProfileOf(res.User)
	return v.Settings.hooks().ValidResponse(authsdk.ValidateResponse{
		Code: authsdk.CodeValidToken,
		Data: authsdk.ValidateData{Status: http.StatusOK},
		User: &profile,
	})
}
