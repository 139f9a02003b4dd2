package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec turns claim sets into signed compact JWS strings and back.
type Codec struct {
	// Clock is consulted for exp/nbf checks on decode. Defaults to time.Now.
	Clock func() time.Time
}

func NewCodec() *Codec {
	return &Codec{Clock: time.Now}
}

func (c *Codec) now() time.Time {
	if c == nil || c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

// Encode signs claims with the given material. It only fails when the
// algorithm is not allow-listed or the key does not suit it.
func (c *Codec) Encode(claims Claims, m SigningMaterial) (string, error) {
	method := m.Algorithm.Method()
	if method == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, m.Algorithm)
	}
	if err := claims.ValidateShape(); err != nil {
		return "", err
	}

	key, err := signingKey(m)
	if err != nil {
		return "", err
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidKey) || errors.Is(err, jwt.ErrInvalidKeyType) {
			return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies token against the material and returns its claims.
//
// The parser only accepts the algorithm carried by the material; the alg in
// the token header is never used to pick a verification method. Time checks
// run after the signature is verified and use exact boundaries.
func (c *Codec) Decode(token string, m SigningMaterial) (Claims, error) {
	method := m.Algorithm.Method()
	if method == nil {
		return Claims{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, m.Algorithm)
	}

	key, err := verificationKey(m)
	if err != nil {
		return Claims{}, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	tok, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return Claims{}, classify(tok, m.Algorithm, err)
	}
	if !tok.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateShape(); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(c.now()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// classify maps golang-jwt parse errors onto the package sentinels. A
// malformed error raised once the header resolved to a method can only come
// from the signature segment, so it counts as a bad signature.
func classify(tok *jwt.Token, want Algorithm, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed) && tok != nil && tok.Method != nil && headerAlg(tok) == string(want):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case tok != nil && headerAlg(tok) != string(want):
		return fmt.Errorf("%w: token uses %q, expected %q", ErrAlgMismatch, headerAlg(tok), want)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
}

func headerAlg(tok *jwt.Token) string {
	alg, _ := tok.Header["alg"].(string)
	return alg
}
