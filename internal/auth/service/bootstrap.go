package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/jwtauth/internal/auth/domain"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create initial user")
)

// BootstrapService creates the first user on an empty store so a fresh
// deployment has someone to issue tokens to.
type BootstrapService struct {
	Store store.Store
	Data  domain.BootstrapData
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the configured user. When no password is configured a
// random one is generated and returned; it is never stored in clear.
func (s *BootstrapService) Bootstrap(ctx context.Context) (int64, string, error) {
	l := slogx.FromContext(ctx)

	password := s.Data.Password
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			l.Error("failed to generate initial password", slog.Any("error", err))
			return 0, "", ErrBootstrapFailedToCreateAdmin
		}
		password = generated
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash initial password", slog.Any("error", err))
		return 0, "", ErrBootstrapFailedToCreateAdmin
	}

	var userID int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}

		userID, err = tx.Users().CreateUser(ctx, domain.User{
			Username:     s.Data.Username,
			Email:        s.Data.Email,
			DisplayName:  s.Data.DisplayName,
			PasswordHash: passHash,
		})
		if err != nil {
			l.Error("failed to create initial user",
				slog.String("username", s.Data.Username),
				slog.Any("error", err),
			)
			return ErrBootstrapFailedToCreateAdmin
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	l.Info("initial user created",
		slog.Int64("user_id", userID),
		slog.String("username", s.Data.Username),
	)
	return userID, password, nil
}
