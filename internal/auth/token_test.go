package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/service-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	user := &domain.User{ID: "u-1", Name: "Dana", Role: domain.RoleReception}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Dana", claims.Name)
	assert.Equal(t, domain.RoleReception, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	other := NewTokenManager("secret-b", 60)

	token, _, err := tm.GenerateToken(&domain.User{ID: "u-1", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessTokenYieldsIdentity(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	user := &domain.User{ID: "u-2", Name: "Kim", Role: domain.RoleCleaningStaff}

	token, _, err := tm.GenerateToken(user)
	require.NoError(t, err)

	identity, err := tm.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-2", identity.UserID)
	assert.Equal(t, "Kim", identity.Name)
	assert.Equal(t, domain.RoleCleaningStaff, identity.Role)
}
