// Package identity resolves the owner id that scopes every remote query.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dlo137/garment-tracker/internal/errs"
)

type ctxKey string

const ownerKey ctxKey = "garment.owner"

// WithOwner stores an owner id in the context, overriding any provider.
func WithOwner(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerKey, id)
}

// OwnerFromCtx fetches an owner id placed by WithOwner.
func OwnerFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Static always resolves to the same owner. A nil id means signed out.
type Static uuid.UUID

// CurrentIdentity implements repository.IdentityProvider.
func (s Static) CurrentIdentity(ctx context.Context) (uuid.UUID, error) {
	if id, ok := OwnerFromCtx(ctx); ok {
		return id, nil
	}
	if uuid.UUID(s) == uuid.Nil {
		return uuid.Nil, errs.ErrNoIdentity
	}
	return uuid.UUID(s), nil
}

// SessionFile is the persisted session written by the sign-in flow.
type SessionFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Session reads the owner from the "sub" claim of a stored access token.
// With a non-empty Key the token signature is verified (HS256);
// otherwise the claims are only decoded.
type Session struct {
	Path string
	Key  []byte
	Now  func() time.Time
}

// NewSession constructs a session-file provider.
func NewSession(path string, key []byte) *Session {
	return &Session{Path: path, Key: key, Now: time.Now}
}

// CurrentIdentity implements repository.IdentityProvider.
func (s *Session) CurrentIdentity(ctx context.Context) (uuid.UUID, error) {
	if id, ok := OwnerFromCtx(ctx); ok {
		return id, nil
	}
	tok, err := s.load()
	if err != nil {
		return uuid.Nil, err
	}
	return s.subject(tok)
}

func (s *Session) load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errs.ErrNoIdentity
		}
		return "", fmt.Errorf("read session: %w", err)
	}
	var sf SessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	if strings.TrimSpace(sf.AccessToken) == "" {
		return "", errs.ErrNoIdentity
	}
	if !sf.ExpiresAt.IsZero() && s.Now().After(sf.ExpiresAt) {
		return "", fmt.Errorf("session expired: %w", errs.ErrNoIdentity)
	}
	return sf.AccessToken, nil
}

func (s *Session) subject(raw string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	if len(s.Key) > 0 {
		p := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
		if _, err := p.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return s.Key, nil }); err != nil {
			return uuid.Nil, fmt.Errorf("token: %w: %w", errs.ErrNoIdentity, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
			return uuid.Nil, fmt.Errorf("token: %w: %w", errs.ErrNoIdentity, err)
		}
		if claims.ExpiresAt != nil && s.Now().After(claims.ExpiresAt.Time) {
			return uuid.Nil, fmt.Errorf("token expired: %w", errs.ErrNoIdentity)
		}
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("token subject %q: %w", claims.Subject, errs.ErrNoIdentity)
	}
	return id, nil
}

// Save writes a session file with owner-only permissions.
func Save(path string, sf SessionFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
