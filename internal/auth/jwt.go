package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim the board API accepts.
const Issuer = "kanban"

// TokenTypeAccess is the only typ claim accepted as a request credential.
const TokenTypeAccess = "access"

var (
	// ErrInvalidToken is returned when a JWT cannot be parsed, is expired, or
	// is not an access token.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
	// ErrNoTenant is returned for a well-formed token that names no tenant.
	ErrNoTenant = errors.New("auth: token carries no tenant")
)

// Claims is the access token payload.
type Claims struct {
	jwt.RegisteredClaims
	TenantID  string `json:"tid"`
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
}

// Verifier checks HS256 access tokens for the board API.
type Verifier struct {
	key    []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for tokens signed with secret. leeway is the
// clock skew tolerated on exp, nbf and iat.
func NewVerifier(secret string, leeway time.Duration) *Verifier {
	return &Verifier{
		key: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Verify parses tokenString and returns the principal it names.
func (v *Verifier) Verify(tokenString string) (Principal, error) {
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return Principal{}, fmt.Errorf("auth.Verify: %w", ErrInvalidToken)
	}

	if claims.TokenType != TokenTypeAccess {
		return Principal{}, fmt.Errorf("auth.Verify: typ %q: %w", claims.TokenType, ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, fmt.Errorf("auth.Verify: uid: %w", ErrInvalidToken)
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil || tenantID == uuid.Nil {
		return Principal{}, fmt.Errorf("auth.Verify: %w", ErrNoTenant)
	}

	return Principal{TenantID: tenantID, UserID: userID}, nil
}
