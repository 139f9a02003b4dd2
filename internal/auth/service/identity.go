package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/go-playground/validator/v10"
)

// ErrUserNotFound is returned by IdentityProvider.GetUserByID for ids that
// do not (or no longer) exist.
var ErrUserNotFound = errors.New("identity: user not found")

// Credential failure codes reported by StoreIdentity.
const (
	CredEmptyUsername     = "empty_username"
	CredEmptyPassword     = "empty_password"
	CredInvalidUsername   = "invalid_username"
	CredInvalidEmail      = "invalid_email"
	CredIncorrectPassword = "incorrect_password"
)

// CredentialError is a rejected login. Code and Message are surfaced to the
// client verbatim inside jwt_auth_failed.
type CredentialError struct {
	Code    string
	Message string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IdentityProvider is the user store as seen by issuance and validation.
type IdentityProvider interface {
	// VerifyCredentials returns the user for a username (or email) and
	// password, or a *CredentialError.
	VerifyCredentials(ctx context.Context, username, password string) (domain.User, error)

	// GetUserByID returns ErrUserNotFound for unknown ids.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
}

// StoreIdentity checks credentials against the users table.
type StoreIdentity struct {
	Store store.Store

	// Validate checks credential shape. A default is built once on first
	// use when it is nil.
	Validate *validator.Validate

	defaultOnce sync.Once
	fallback    *validator.Validate
}

func NewStoreIdentity(st store.Store) *StoreIdentity {
	return &StoreIdentity{Store: st, Validate: validator.New(validator.WithRequiredStructEnabled())}
}

type credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func (s *StoreIdentity) validate() *validator.Validate {
	if s.Validate != nil {
		return s.Validate
	}
	s.defaultOnce.Do(func() {
		s.fallback = validator.New(validator.WithRequiredStructEnabled())
	})
	return s.fallback
}

func (s *StoreIdentity) VerifyCredentials(ctx context.Context, username, password string) (domain.User, error) {
	v := s.validate()

	if err := v.Struct(credentials{Username: username, Password: password}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Username" {
			return domain.User{}, &CredentialError{CredEmptyUsername, "The username field is empty."}
		}
		return domain.User{}, &CredentialError{CredEmptyPassword, "The password field is empty."}
	}

	var (
		user domain.User
		err  error
	)
	byEmail := v.Var(username, "email") == nil
	if byEmail {
		user, err = s.Store.Users().GetUserByEmail(ctx, username)
	} else {
		user, err = s.Store.Users().GetUserByUsername(ctx, username)
	}
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("identity: lookup user: %w", err)
		}
		if byEmail {
			return domain.User{}, &CredentialError{CredInvalidEmail, "Unknown email address. Check again or try your username."}
		}
		return domain.User{}, &CredentialError{CredInvalidUsername, "Unknown username. Check again or try your email address."}
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, &CredentialError{
				CredIncorrectPassword,
				fmt.Sprintf("The password you entered for the username %s is incorrect.", user.Username),
			}
		}
		return domain.User{}, fmt.Errorf("identity: verify password: %w", err)
	}

	return user, nil
}

func (s *StoreIdentity) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}

// VerifyBasic lets the same credentials serve HTTP Basic authentication.
func (s *StoreIdentity) VerifyBasic(ctx context.Context, username, password string) (int64, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
