package service

import (
	"time"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
)

// Settings is the configuration shared by issuance and validation.
type Settings struct {
	// SiteURL is the canonical identity of this service and the default iss.
	SiteURL string

	// IssuerOverride replaces SiteURL as iss when set.
	IssuerOverride string

	// Algorithm is the configured algorithm name, HS256 when empty.
	Algorithm string

	// TTL is the default token lifetime used when no Expire hook is set.
	TTL time.Duration

	Hooks Hooks
	Keys  KeySource
	Codec *jwtx.Codec
}

func (s *Settings) hooks() Hooks {
	return s.Hooks.withDefaults(s.TTL)
}

func (s *Settings) codec() *jwtx.Codec {
	if s.Codec == nil {
		return jwtx.NewCodec()
	}
	return s.Codec
}

func (s *Settings) now() time.Time {
	c := s.codec()
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

func (s *Settings) keys() *Keys {
	if s.Keys == nil {
		return nil
	}
	return s.Keys.Current()
}

// Issuer is the iss written into tokens and required on validation.
func (s *Settings) Issuer() string {
	base := s.IssuerOverride
	if base == "" {
		base = s.SiteURL
	}
	return s.hooks().Issuer(base)
}

// resolveAlgorithm applies the Algorithm hook and checks the result against
// the registry.
func (s *Settings) resolveAlgorithm() (jwtx.Algorithm, error) {
	configured := s.Algorithm
	if configured == "" {
		configured = string(jwtx.DefaultAlgorithm)
	}

	alg, err := jwtx.ResolveAlgorithm(s.hooks().Algorithm(configured))
	if err != nil {
		return "", authsdk.ErrUnsupportedAlgorithm.Wrap(err).WithMessage(authsdk.ErrUnsupportedAlgorithm.Message)
	}
	return alg, nil
}

// Ready reports whether material for the configured algorithm is loaded.
func (s *Settings) Ready() bool {
	alg, err := s.resolveAlgorithm()
	if err != nil {
		return false
	}
	_, ok := s.keys().ForSigning(alg)
	if !ok {
		_, ok = s.keys().ForVerification(alg)
	}
	return ok
}
