package goAuthClient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrEthical07/goAuthClient/claims"
	"github.com/MrEthical07/goAuthClient/storage"
)

// CredentialStore owns the persisted token pair. All mutation is
// whole-value: Set replaces the pair as a unit, Clear removes it. Claim
// queries decode on demand and fail soft, so a corrupted or foreign value
// in storage behaves exactly like an absent one.
type CredentialStore struct {
	store   storage.Store
	key     string
	decoder *claims.Decoder
	skew    time.Duration
	now     func() time.Time
}

// NewCredentialStore wraps a storage backend with token semantics.
func NewCredentialStore(store storage.Store, decoder *claims.Decoder, cfg CredentialConfig) (*CredentialStore, error) {
	if store == nil {
		return nil, fmt.Errorf("nil storage backend")
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "goauthclient:tokens"
	}
	if cfg.ExpirySkew < 0 {
		return nil, fmt.Errorf("negative expiry skew")
	}
	return &CredentialStore{
		store:   store,
		key:     cfg.StorageKey,
		decoder: decoder,
		skew:    cfg.ExpirySkew,
		now:     time.Now,
	}, nil
}

// Get returns the stored token pair. A storage read failure is reported as
// an error so callers can distinguish "logged out" from "storage down".
func (s *CredentialStore) Get(ctx context.Context) (TokenPair, bool, error) {
	raw, ok, err := s.store.Load(ctx, s.key)
	if err != nil {
		return TokenPair{}, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !ok {
		return TokenPair{}, false, nil
	}
	var pair TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		// Corrupt value. Treat as absent rather than poisoning every call.
		return TokenPair{}, false, nil
	}
	if pair.Empty() {
		return TokenPair{}, false, nil
	}
	return pair, true, nil
}

// Set replaces the stored pair.
func (s *CredentialStore) Set(ctx context.Context, pair TokenPair) error {
	raw, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Clear removes the stored pair. Clearing an empty store is not an error.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Decode parses the given access token. Malformed input yields (nil,
// false), never an error or panic.
func (s *CredentialStore) Decode(token string) (*DecodedClaims, bool) {
	c, err := s.decoder.Decode(token)
	if err != nil {
		return nil, false
	}
	return c, true
}

// DecodeCurrent decodes the stored access token, if any.
func (s *CredentialStore) DecodeCurrent(ctx context.Context) (*DecodedClaims, bool) {
	if s == nil {
		return nil, false
	}
	pair, ok, err := s.Get(ctx)
	if err != nil || !ok {
		return nil, false
	}
	return s.Decode(pair.AccessToken)
}

// IsExpired reports whether token is unusable: absent, undecodable, or at
// or past its exp (minus the configured skew). This is the single source
// of truth for "needs refresh".
func (s *CredentialStore) IsExpired(token string) bool {
	c, ok := s.Decode(token)
	if !ok {
		return true
	}
	return c.Expired(s.now().Add(s.skew))
}

// IsSuperAdmin reports whether token carries the superadmin claim. Used to
// pick which profile endpoint the session context calls.
func (s *CredentialStore) IsSuperAdmin(token string) bool {
	c, ok := s.Decode(token)
	if !ok {
		return false
	}
	return c.SuperAdmin
}

// CurrentAccess returns the stored access token only when it exists and is
// not expired. Callers attach headers from this value immediately; the
// expiry check and the use must not be separated by I/O.
func (s *CredentialStore) CurrentAccess(ctx context.Context) (string, bool) {
	pair, ok, err := s.Get(ctx)
	if err != nil || !ok {
		return "", false
	}
	if s.IsExpired(pair.AccessToken) {
		return "", false
	}
	return pair.AccessToken, true
}
