// Package authtest mints board API access tokens for tests.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/auth"
)

// Option adjusts the claims of a minted token.
type Option func(*auth.Claims)

// ExpiresIn sets exp relative to now. Negative values yield an expired token.
func ExpiresIn(d time.Duration) Option {
	return func(c *auth.Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(d)) }
}

// TokenType overrides the typ claim.
func TokenType(typ string) Option {
	return func(c *auth.Claims) { c.TokenType = typ }
}

// Issuer overrides the iss claim.
func Issuer(iss string) Option {
	return func(c *auth.Claims) { c.Issuer = iss }
}

// RawTenant sets the tid claim verbatim, for malformed tenant cases.
func RawTenant(tid string) Option {
	return func(c *auth.Claims) { c.TenantID = tid }
}

// Token returns an HS256 access token for tenantID and userID, valid for one
// minute unless opts say otherwise.
func Token(t testing.TB, secret string, tenantID, userID uuid.UUID, opts ...Option) string {
	t.Helper()

	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		TenantID:  tenantID.String(),
		UserID:    userID.String(),
		TokenType: auth.TokenTypeAccess,
	}
	for _, opt := range opts {
		opt(&claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("authtest.Token: %v", err)
	}
	return signed
}
