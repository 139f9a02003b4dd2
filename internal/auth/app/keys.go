package app

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/pkg/cryptox"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
)

// LoadKeyMaterial reads the configured secret and PEM files. It never
// generates keys: with nothing configured it returns empty Keys and every
// token request answers bad_config.
//
// An inline AUTH_SECRET_KEY wins over AUTH_SECRET_KEY_FILE. When no public
// key file is configured but a private key is, the public half is derived
// from it.
func LoadKeyMaterial(cfg Config) (*service.Keys, error) {
	keys := &service.Keys{}

	switch {
	case cfg.SecretKey != "":
		keys.Secret = []byte(cfg.SecretKey)
	case cfg.SecretKeyFile != "":
		secret, err := os.ReadFile(cfg.SecretKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read secret key file: %w", err)
		}
		keys.Secret = bytes.TrimRight(secret, "\r\n")
	}

	if cfg.PrivateKeyFile != "" {
		priv, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		keys.PrivateKey = priv
	}

	switch {
	case cfg.PublicKeyFile != "":
		pub, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key file: %w", err)
		}
		keys.PublicKey = pub
	case len(keys.PrivateKey) > 0:
		pub, err := cryptox.PublicKeyPEM(keys.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("derive public key: %w", err)
		}
		keys.PublicKey = pub
	}

	return keys, nil
}

// InitKeyReloader loads the key material once and returns the reloader that
// keeps it current. Problems that only matter for the configured algorithm
// are logged, not fatal.
func InitKeyReloader(cfg Config, logger *slog.Logger) (*service.KeyReloader, error) {
	reloader, err := service.NewKeyReloader(func() (*service.Keys, error) {
		return LoadKeyMaterial(cfg)
	}, logger, cfg.KeyReloadInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to load key material: %w", err)
	}

	keys := reloader.Current()
	alg, err := jwtx.ResolveAlgorithm(cfg.Algorithm)
	switch {
	case err != nil:
		logger.Warn("configured algorithm is not supported", "algorithm", cfg.Algorithm)
	case keys.Empty():
		logger.Warn("no key material configured, token requests will fail with bad_config",
			"algorithm", alg.String(),
		)
	default:
		if _, ok := keys.ForSigning(alg); !ok {
			logger.Warn("no signing key for the configured algorithm",
				"algorithm", alg.String(),
				"family", string(alg.Family()),
			)
		} else {
			logger.Info("key material loaded", "algorithm", alg.String())
		}
	}

	return reloader, nil
}
