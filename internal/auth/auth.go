// Package auth holds the stored credentials the session joins with. Tokens
// are issued by the remote backend; the client only stores them and reads
// their claims, it never verifies signatures.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"messenger/internal/store"
)

const tokenKey = "userToken"

var (
	ErrNoToken      = errors.New("no stored token")
	ErrTokenExpired = errors.New("stored token expired")
)

// Store persists the access token in the local cache. It satisfies
// rest.TokenSource.
type Store struct {
	store *store.Store
}

// NewStore wraps the local cache.
func NewStore(s *store.Store) *Store {
	return &Store{store: s}
}

// SetToken stores the access token after login.
func (a *Store) SetToken(ctx context.Context, token string) error {
	return a.store.SetValue(ctx, tokenKey, token)
}

// Token returns the stored access token, or ErrNoToken.
func (a *Store) Token() (string, error) {
	token, err := a.store.Value(context.Background(), tokenKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoToken
	}
	return token, err
}

// Clear removes the stored token on logout.
func (a *Store) Clear(ctx context.Context) error {
	return a.store.DeleteValue(ctx, tokenKey)
}

// UserID extracts the user id from the stored token's subject claim and
// checks it has not expired.
func (a *Store) UserID() (int, error) {
	token, err := a.Token()
	if err != nil {
		return 0, err
	}
	return UserIDFromToken(token)
}

// UserIDFromToken parses an access token without verifying it and returns
// the user id from the subject claim.
func UserIDFromToken(token string) (int, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}

	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		if exp.Before(time.Now()) {
			return 0, ErrTokenExpired
		}
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return 0, errors.New("token has no subject")
	}
	userID, err := strconv.Atoi(subject)
	if err != nil {
		return 0, fmt.Errorf("token subject %q is not a user id", subject)
	}
	return userID, nil
}
