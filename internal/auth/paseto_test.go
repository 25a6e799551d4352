package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPasetoKey() []byte {
	return bytes.Repeat([]byte("k"), 32)
}

func TestNewPasetoServiceKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	assert.Error(t, err)

	_, err = NewPasetoService(testPasetoKey())
	assert.NoError(t, err)
}

func TestPasetoRoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "ann@x.com", "Ann", "http://example.com/a.png", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, "http://example.com/a.png", claims.ImageURL)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestPasetoWrongKey(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	other, err := NewPasetoService(bytes.Repeat([]byte("x"), 32))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "ann@x.com", "Ann", "", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}

func TestPasetoExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "ann@x.com", "Ann", "", -time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestPasetoGarbageToken(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	_, err = svc.VerifyToken("v4.local.not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
