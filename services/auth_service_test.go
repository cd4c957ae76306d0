package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginAndValidate(t *testing.T) {
	auth, err := NewAuthService("hunter2", "secret", time.Hour)
	require.NoError(t, err)

	token, err := auth.Login(&LoginRequest{Password: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "admin", claims.Subject)
}

func TestLoginWrongPassword(t *testing.T) {
	auth, err := NewAuthService("hunter2", "secret", time.Hour)
	require.NoError(t, err)
	_, err = auth.Login(&LoginRequest{Password: "hunter3"})
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	auth, err := NewAuthService("", "secret", time.Hour)
	require.NoError(t, err)
	_, err = auth.Login(&LoginRequest{Password: ""})
	assert.ErrorIs(t, err, ErrLoginDisabled)
}

func TestBcryptHashAccepted(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	auth, err := NewAuthService(string(hash), "secret", time.Hour)
	require.NoError(t, err)
	_, err = auth.Login(&LoginRequest{Password: "letmein"})
	assert.NoError(t, err)
}

func TestMalformedHashRejected(t *testing.T) {
	_, err := NewAuthService("$2a$broken", "secret", time.Hour)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	auth, err := NewAuthService("pw", "secret", time.Minute)
	require.NoError(t, err)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }

	token, err := auth.Login(&LoginRequest{Password: "pw"})
	require.NoError(t, err)
	_, err = auth.ValidateToken(token)
	require.NoError(t, err)

	auth.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	a, err := NewAuthService("pw", "one", time.Hour)
	require.NoError(t, err)
	b, err := NewAuthService("pw", "two", time.Hour)
	require.NoError(t, err)

	token, err := a.Login(&LoginRequest{Password: "pw"})
	require.NoError(t, err)
	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWithoutAdminRoleRejected(t *testing.T) {
	auth, err := NewAuthService("pw", "secret", time.Hour)
	require.NoError(t, err)

	claims := Claims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
