package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/store"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newAuthStore(t *testing.T) *Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewStore(s)
}

func TestTokenLifecycle(t *testing.T) {
	a := newAuthStore(t)
	ctx := context.Background()

	_, err := a.Token()
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, a.SetToken(ctx, "jwt-value"))
	token, err := a.Token()
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", token)

	require.NoError(t, a.Clear(ctx))
	_, err = a.Token()
	require.ErrorIs(t, err, ErrNoToken)
}

func TestUserIDFromToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	userID, err := UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestUserIDFromExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := UserIDFromToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestUserIDFromTokenWithoutSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	_, err := UserIDFromToken(token)
	require.ErrorContains(t, err, "no subject")
}

func TestUserIDFromTokenNonNumericSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "bob"})

	_, err := UserIDFromToken(token)
	require.ErrorContains(t, err, "not a user id")
}

func TestUserIDFromGarbage(t *testing.T) {
	_, err := UserIDFromToken("not-a-jwt")
	require.Error(t, err)
}

func TestStoredTokenUserID(t *testing.T) {
	a := newAuthStore(t)
	token := signToken(t, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, a.SetToken(context.Background(), token))

	userID, err := a.UserID()
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
}
