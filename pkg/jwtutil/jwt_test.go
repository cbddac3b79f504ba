package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: 1})

	token, err := j.GenerateToken("a@b.c", 7, "owner")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, "a@b.c", claims.Email)
	require.Equal(t, "owner", claims.Role)
}

func TestValidateRejectsOtherKey(t *testing.T) {
	token, err := NewJWTUtil(&JWTConfig{SigningKey: "one", ExpirationHours: 1}).GenerateToken("a@b.c", 1, "")
	require.NoError(t, err)

	_, err = NewJWTUtil(&JWTConfig{SigningKey: "two", ExpirationHours: 1}).ValidateToken(token)
	require.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: -1})
	token, err := j.GenerateToken("a@b.c", 1, "")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	require.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	_, err := NewJWTUtil(nil).GenerateToken("a@b.c", 1, "")
	require.Error(t, err)
}
