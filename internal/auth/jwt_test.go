package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kanban/internal/auth"
	"github.com/gosuda/kanban/internal/auth/authtest"
)

const testSecret = "board-service-test-secret-0123456789"

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	v := auth.NewVerifier(testSecret, 0)

	got, err := v.Verify(authtest.Token(t, testSecret, tenantID, userID))
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{TenantID: tenantID, UserID: userID}, got)
}

func TestVerifier_Leeway(t *testing.T) {
	t.Parallel()

	token := authtest.Token(t, testSecret, uuid.New(), uuid.New(), authtest.ExpiresIn(-5*time.Second))

	_, err := auth.NewVerifier(testSecret, 0).Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewVerifier(testSecret, time.Minute).Verify(token)
	assert.NoError(t, err)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: auth.Issuer},
		TenantID:         uuid.NewString(),
		UserID:           uuid.NewString(),
		TokenType:        auth.TokenTypeAccess,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: authtest.Token(t, testSecret, uuid.New(), uuid.New(), authtest.ExpiresIn(-time.Second)), wantErr: auth.ErrInvalidToken},
		{name: "wrong secret", token: authtest.Token(t, "some-other-secret-value-0123456789", uuid.New(), uuid.New()), wantErr: auth.ErrInvalidToken},
		{name: "foreign issuer", token: authtest.Token(t, testSecret, uuid.New(), uuid.New(), authtest.Issuer("someone-else")), wantErr: auth.ErrInvalidToken},
		{name: "refresh token", token: authtest.Token(t, testSecret, uuid.New(), uuid.New(), authtest.TokenType("refresh")), wantErr: auth.ErrInvalidToken},
		{name: "no expiry", token: noExpiry, wantErr: auth.ErrInvalidToken},
		{name: "malformed", token: "not.a.valid.jwt.token", wantErr: auth.ErrInvalidToken},
		{name: "empty", token: "", wantErr: auth.ErrInvalidToken},
		{name: "nil tenant", token: authtest.Token(t, testSecret, uuid.Nil, uuid.New()), wantErr: auth.ErrNoTenant},
		{name: "garbage tenant", token: authtest.Token(t, testSecret, uuid.New(), uuid.New(), authtest.RawTenant("acme")), wantErr: auth.ErrNoTenant},
	}

	v := auth.NewVerifier(testSecret, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := v.Verify(tt.token)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, auth.Principal{}, p)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		p := auth.Principal{TenantID: uuid.New(), UserID: uuid.New()}
		ctx := auth.WithPrincipal(context.Background(), p)

		got, ok := auth.PrincipalFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, p, got)

		tid, ok := auth.TenantIDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, p.TenantID, tid)

		uid, ok := auth.UserIDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, p.UserID, uid)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		_, ok := auth.TenantIDFromContext(context.Background())
		assert.False(t, ok)
		_, ok = auth.UserIDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("nil ids count as absent", func(t *testing.T) {
		t.Parallel()

		ctx := auth.WithPrincipal(context.Background(), auth.Principal{})
		_, ok := auth.TenantIDFromContext(ctx)
		assert.False(t, ok)
		_, ok = auth.UserIDFromContext(ctx)
		assert.False(t, ok)
	})
}
