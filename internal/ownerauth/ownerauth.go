// Package ownerauth verifies the bearer tokens that identify the designer.
// Session issuance belongs to an outer system; Issue exists for local tooling
// and tests.
package ownerauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleDesigner is the only role allowed to manage mockups.
const RoleDesigner = "designer"

var (
	// ErrNoSecret is returned when no signing secret is configured.
	ErrNoSecret = errors.New("owner secret is not configured")
	// ErrNotDesigner is returned for a valid token without the designer role.
	ErrNotDesigner = errors.New("token does not carry the designer role")
)

// Claims are the JWT claims of a designer token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 designer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for the shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses token and returns its claims when it is a valid,
// unexpired designer token.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	if claims.Role != RoleDesigner {
		return nil, ErrNotDesigner
	}
	return claims, nil
}

// Issue signs a designer token for subject valid for ttl.
func Issue(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := Claims{
		Role: RoleDesigner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
