// Package credentials persists the session credential (an opaque bearer
// token) in the local database so that it survives restarts.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/hubcli/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/hubcli/internal/common"
	"github.com/dmitrijs2005/hubcli/internal/dbx"
)

// Store reads and writes the credential under fixed metadata keys. It
// satisfies client.TokenSource.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Token returns the stored credential, or "" when there is none.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, common.AuthTokenKey)
	if errors.Is(err, metadata.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return string(v), nil
}

// SavedAt returns when the current credential was stored.
func (s *Store) SavedAt(ctx context.Context) (time.Time, bool, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, common.AuthTokenSavedAtKey)
	if errors.Is(err, metadata.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load credential timestamp: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// Save replaces the stored credential.
func (s *Store) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty credential")
	}
	savedAt := s.now().UTC().Format(time.RFC3339Nano)

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Put(ctx, common.AuthTokenKey, []byte(token)); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}
		if err := repo.Put(ctx, common.AuthTokenSavedAtKey, []byte(savedAt)); err != nil {
			return fmt.Errorf("store credential timestamp: %w", err)
		}
		return nil
	})
}

// Discard removes the credential. It is a no-op when none is stored.
func (s *Store) Discard(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, common.AuthTokenKey, common.AuthTokenSavedAtKey); err != nil {
		return fmt.Errorf("discard credential: %w", err)
	}
	return nil
}

// ExpiresAt reads the exp claim of a JWT credential without verifying its
// signature. ok is false for opaque tokens and tokens without exp.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
