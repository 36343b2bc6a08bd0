package auth

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a board request. Every board
// read and write is scoped to TenantID; UserID is recorded as the actor of
// the changes the caller makes.
type Principal struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TenantIDFromContext reports the caller's tenant. A nil tenant counts as absent.
func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.TenantID, true
}

// UserIDFromContext reports the acting user, if the request was authenticated.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.UserID, true
}
