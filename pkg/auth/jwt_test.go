package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerToken_RoundTrip(t *testing.T) {
	// Arrange
	s, err := NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	// Act
	token, err := s.GeneratePlayerToken(42, 7)
	require.NoError(t, err)

	claims, err := s.ParsePlayerToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.PlayerID)
	assert.Equal(t, uint(7), claims.GameID)
}

func TestParsePlayerToken_WrongSecret(t *testing.T) {
	// Arrange
	issuer, err := NewJWTService("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := issuer.GeneratePlayerToken(42, 7)
	require.NoError(t, err)

	// Act & Assert
	_, err = verifier.ParsePlayerToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParsePlayerToken_Expired(t *testing.T) {
	// Arrange: токен с истекшим сроком
	s, err := NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	claims := PlayerClaims{
		PlayerID: 42,
		GameID:   7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	// Act & Assert
	_, err = s.ParsePlayerToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseHostToken_ValidatesClaims(t *testing.T) {
	// Arrange
	s, err := NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	hostClaims := HostClaims{
		UserID: 10,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, hostClaims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	// Act
	claims, err := s.ParseHostToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(10), claims.UserID)

	// Токен без user_id невалиден как токен хоста
	empty, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = s.ParseHostToken(empty)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParsePlayerToken_RejectsUnsignedAlg(t *testing.T) {
	// Arrange: токен с alg=none
	s, err := NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	claims := PlayerClaims{PlayerID: 42, GameID: 7}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	// Act & Assert
	_, err = s.ParsePlayerToken(token)
	assert.Error(t, err)
}
