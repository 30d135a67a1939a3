package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "vaultbridge", time.Hour)
	userID := id.NewUserID()

	token, err := svc.GenerateAccessToken(userID, "jane@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "jane@x.com", claims.Email)
	assert.Equal(t, "vaultbridge", claims.Issuer)
}

func TestJWTService_RejectsTampering(t *testing.T) {
	svc := NewJWTService("test-signing-key", "vaultbridge", time.Hour)
	other := NewJWTService("other-signing-key", "vaultbridge", time.Hour)

	token, err := other.GenerateAccessToken(id.NewUserID(), "jane@x.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-signing-key", "vaultbridge", -time.Minute)

	token, err := svc.GenerateAccessToken(id.NewUserID(), "jane@x.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
