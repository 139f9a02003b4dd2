package jwtx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// SigningMaterial pairs an algorithm with the secret or PEM key it uses.
// For the asymmetric families the caller supplies the private half for
// signing and the public half (or the private key) for verification.
type SigningMaterial struct {
	Algorithm Algorithm
	Key       []byte
}

// signingKey turns material into the key type golang-jwt expects for Sign.
func signingKey(m SigningMaterial) (any, error) {
	switch m.Algorithm.Family() {
	case FamilyHMAC:
		return hmacKey(m.Key)
	case FamilyRSA, FamilyRSAPSS:
		return parseRSAPrivateKey(m.Key)
	case FamilyECDSA:
		key, err := parseECPrivateKey(m.Key)
		if err != nil {
			return nil, err
		}
		if err := checkCurve(m.Algorithm, key.Curve); err != nil {
			return nil, err
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, m.Algorithm)
	}
}

// verificationKey turns material into the key type golang-jwt expects for
// Verify. A private key is accepted and its public half used.
func verificationKey(m SigningMaterial) (any, error) {
	switch m.Algorithm.Family() {
	case FamilyHMAC:
		return hmacKey(m.Key)
	case FamilyRSA, FamilyRSAPSS:
		return parseRSAPublicKey(m.Key)
	case FamilyECDSA:
		key, err := parseECPublicKey(m.Key)
		if err != nil {
			return nil, err
		}
		if err := checkCurve(m.Algorithm, key.Curve); err != nil {
			return nil, err
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, m.Algorithm)
	}
}

func hmacKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}
	return key, nil
}

func decodePEM(data []byte) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: not PEM encoded", ErrInvalidKey)
	}
	return block, nil
}

// parseRSAPrivateKey handles both PKCS1 and PKCS8 encodings.
func parseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS1: %v", ErrInvalidKey, err)
		}
		return key, nil
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS8: %v", ErrInvalidKey, err)
		}
		key, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidKey, block.Type)
	}
}

func parseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "RSA PRIVATE KEY", "PRIVATE KEY":
		key, err := parseRSAPrivateKey(data)
		if err != nil {
			return nil, err
		}
		return &key.PublicKey, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS1 public key: %v", ErrInvalidKey, err)
		}
		return key, nil
	}

	pub, err := parsePublicBlock(block)
	if err != nil {
		return nil, err
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidKey)
	}
	return key, nil
}

// parseECPrivateKey handles SEC1 ("EC PRIVATE KEY") and PKCS8.
func parseECPrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse SEC1: %v", ErrInvalidKey, err)
		}
		return key, nil
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS8: %v", ErrInvalidKey, err)
		}
		key, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an ECDSA private key", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidKey, block.Type)
	}
}

func parseECPublicKey(data []byte) (*ecdsa.PublicKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	if block.Type == "EC PRIVATE KEY" || block.Type == "PRIVATE KEY" {
		key, err := parseECPrivateKey(data)
		if err != nil {
			return nil, err
		}
		return &key.PublicKey, nil
	}

	pub, err := parsePublicBlock(block)
	if err != nil {
		return nil, err
	}
	key, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ECDSA public key", ErrInvalidKey)
	}
	return key, nil
}

// parsePublicBlock reads PKIX public keys and certificates.
func parsePublicBlock(block *pem.Block) (any, error) {
	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKIX: %v", ErrInvalidKey, err)
		}
		return pub, nil
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse certificate: %v", ErrInvalidKey, err)
		}
		return cert.PublicKey, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidKey, block.Type)
	}
}

func checkCurve(alg Algorithm, curve elliptic.Curve) error {
	var want elliptic.Curve
	switch alg {
	case ES256:
		want = elliptic.P256()
	case ES384:
		want = elliptic.P384()
	case ES512:
		want = elliptic.P521()
	}
	if want == nil || curve == nil || curve.Params().Name != want.Params().Name {
		return fmt.Errorf("%w: curve does not match %s", ErrInvalidKey, alg)
	}
	return nil
}
