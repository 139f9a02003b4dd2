package jwtx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of a token when nothing overrides exp.
const DefaultTokenTTL = 7 * 24 * time.Hour

// registeredKeys are the payload members owned by the typed fields; anything
// else lands in Claims.Extra on decode.
var registeredKeys = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti", "data"}

// Claims is the token payload. The subject lives under data.user.id so that
// tokens keep the historical shape:
//
//	{"iss":"...","iat":1,"nbf":1,"exp":2,"data":{"user":{"id":7}}}
//
// Claims are values. Issuance builds a fresh one, decoding reconstructs a
// fresh one, and nothing shares an instance between requests.
type Claims struct {
	jwt.RegisteredClaims

	Data ClaimData `json:"data"`

	// Extra carries custom claims added by the host before signing, and any
	// unrecognised members found while decoding.
	Extra map[string]any `json:"-"`
}

type ClaimData struct {
	User ClaimUser `json:"user"`
}

type ClaimUser struct {
	ID UserID `json:"id"`
}

// UserID accepts both 7 and "7" on the wire. Older issuers wrote the id as a
// string straight out of the user table.
type UserID int64

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}

	s := string(b)
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(b, &unquoted); err != nil {
			return fmt.Errorf("%w: user id %s", ErrInvalidClaim, b)
		}
		if unquoted == "" {
			*id = 0
			return nil
		}
		s = unquoted
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user id %s", ErrInvalidClaim, b)
	}
	*id = UserID(n)
	return nil
}

// NewClaims builds the claim set for one issuance.
func NewClaims(issuer string, userID int64, issuedAt, notBefore, expiresAt time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(notBefore),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Data: ClaimData{User: ClaimUser{ID: UserID(userID)}},
	}
}

// UserID returns data.user.id, zero when absent.
func (c Claims) UserID() int64 { return int64(c.Data.User.ID) }

// claimsJSON drops the Claims methods so the (un)marshalers below can reuse
// the default struct encoding without recursing.
type claimsJSON Claims

// MarshalJSON merges Extra into the payload. Typed fields win on collision.
func (c Claims) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(claimsJSON(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return typed, nil
	}

	var known map[string]json.RawMessage
	if err := json.Unmarshal(typed, &known); err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(c.Extra)+len(known))
	for k, v := range c.Extra {
		merged[k] = v
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (c *Claims) UnmarshalJSON(b []byte) error {
	var typed claimsJSON
	if err := json.Unmarshal(b, &typed); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range registeredKeys {
		delete(all, k)
	}

	*c = Claims(typed)
	c.Extra = nil
	if len(all) == 0 {
		return nil
	}

	c.Extra = make(map[string]any, len(all))
	for k, raw := range all {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		c.Extra[k] = v
	}
	return nil
}

// ValidateIssuer requires an exact, case-sensitive match.
func (c *Claims) ValidateIssuer(expected string) error {
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry treats exp and nbf as exact boundaries: a token is expired
// only once now is strictly after exp, and usable from nbf onwards.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateShape checks the invariants that hold regardless of the clock.
func (c *Claims) ValidateShape() error {
	if c.NotBefore != nil && c.ExpiresAt != nil && c.NotBefore.After(c.ExpiresAt.Time) {
		return fmt.Errorf("%w: nbf after exp", ErrInvalidClaim)
	}
	if c.UserID() < 0 {
		return fmt.Errorf("%w: negative user id", ErrInvalidClaim)
	}
	return nil
}
