package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is a JWS algorithm identifier from the allow-list.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
)

// DefaultAlgorithm is used when nothing else is configured.
const DefaultAlgorithm = HS256

// Family groups algorithms that share a key type.
type Family string

const (
	FamilyHMAC   Family = "hmac"
	FamilyRSA    Family = "rsa"
	FamilyECDSA  Family = "ecdsa"
	FamilyRSAPSS Family = "rsa-pss"
)

var registry = map[Algorithm]jwt.SigningMethod{
	HS256: jwt.SigningMethodHS256,
	HS384: jwt.SigningMethodHS384,
	HS512: jwt.SigningMethodHS512,
	RS256: jwt.SigningMethodRS256,
	RS384: jwt.SigningMethodRS384,
	RS512: jwt.SigningMethodRS512,
	ES256: jwt.SigningMethodES256,
	ES384: jwt.SigningMethodES384,
	ES512: jwt.SigningMethodES512,
	PS256: jwt.SigningMethodPS256,
	PS384: jwt.SigningMethodPS384,
	PS512: jwt.SigningMethodPS512,
}

// Algorithms returns the allow-list in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{
		HS256, HS384, HS512,
		RS256, RS384, RS512,
		ES256, ES384, ES512,
		PS256, PS384, PS512,
	}
}

// ResolveAlgorithm maps a requested identifier onto the allow-list. The
// lookup is exact: "hs256", "none" and anything else outside the list fail.
func ResolveAlgorithm(requested string) (Algorithm, error) {
	alg := Algorithm(requested)
	if _, ok := registry[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, requested)
	}
	return alg, nil
}

// Method returns the golang-jwt signing method, or nil when alg is not
// allow-listed.
func (a Algorithm) Method() jwt.SigningMethod {
	return registry[a]
}

// Family reports the key family the algorithm signs with.
func (a Algorithm) Family() Family {
	switch a {
	case HS256, HS384, HS512:
		return FamilyHMAC
	case RS256, RS384, RS512:
		return FamilyRSA
	case ES256, ES384, ES512:
		return FamilyECDSA
	case PS256, PS384, PS512:
		return FamilyRSAPSS
	default:
		return ""
	}
}

// Symmetric reports whether the same secret signs and verifies.
func (a Algorithm) Symmetric() bool { return a.Family() == FamilyHMAC }

func (a Algorithm) String() string { return string(a) }
