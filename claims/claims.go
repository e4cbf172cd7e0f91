package claims

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects how (and whether) token signatures are checked
// during decoding.
type SigningMethod string

const (
	// MethodNone decodes the claim payload without verifying the
	// signature. This is the default for public clients, which hold no key
	// material; the server re-validates every token it receives anyway.
	MethodNone SigningMethod = ""
	// MethodHS256 verifies signatures with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 verifies signatures with an Ed25519 public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// ErrMalformed is returned by [Decoder.Decode] for input that is not a
// structurally valid JWT or whose signature fails verification.
var ErrMalformed = errors.New("malformed access token")

// Config configures a [Decoder]. The zero value decodes without
// verification.
type Config struct {
	SigningMethod SigningMethod
	// VerifyKey is the HMAC secret (hs256) or raw 32-byte Ed25519 public
	// key (ed25519). Ignored for MethodNone.
	VerifyKey []byte
}

// AccessClaims is the decoded payload of a goAuth access token.
type AccessClaims struct {
	Email          string   `json:"email,omitempty"`
	Role           string   `json:"role,omitempty"`
	SuperAdmin     bool     `json:"is_superadmin,omitempty"`
	OrganizationID string   `json:"organization_id,omitempty"`
	SessionID      string   `json:"sid,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// ExpiresAtUnix returns the exp claim in Unix seconds, or 0 when absent.
func (c *AccessClaims) ExpiresAtUnix() int64 {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// Expired reports whether the token is unusable at the given instant. A
// missing exp claim counts as expired: a token whose lifetime cannot be
// established is never sent to the network.
func (c *AccessClaims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Decoder parses access tokens according to its [Config]. A Decoder is
// immutable after construction and safe for concurrent use.
type Decoder struct {
	config Config
}

// NewDecoder validates cfg and returns a Decoder.
func NewDecoder(cfg Config) (*Decoder, error) {
	switch cfg.SigningMethod {
	case MethodNone:
		if len(cfg.VerifyKey) != 0 {
			return nil, errors.New("verify key set without signing method")
		}
	case MethodHS256:
		if len(cfg.VerifyKey) == 0 {
			return nil, errors.New("hs256 requires verify key")
		}
	case MethodEd25519:
		if len(cfg.VerifyKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("ed25519 verify key must be %d bytes", ed25519.PublicKeySize)
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	return &Decoder{config: cfg}, nil
}

// Decode parses tokenStr and returns its claims. Claim validity (expiry,
// audience) is NOT checked here; see [AccessClaims.Expired].
func (d *Decoder) Decode(tokenStr string) (*AccessClaims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	out := &AccessClaims{}

	if d == nil || d.config.SigningMethod == MethodNone {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return out, nil
	}

	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{d.alg()}),
	)
	if _, err := parser.ParseWithClaims(tokenStr, out, d.keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

func (d *Decoder) alg() string {
	switch d.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA.Alg()
	default:
		return jwt.SigningMethodHS256.Alg()
	}
}

func (d *Decoder) keyFunc(*jwt.Token) (interface{}, error) {
	switch d.config.SigningMethod {
	case MethodHS256:
		return d.config.VerifyKey, nil
	case MethodEd25519:
		return ed25519.PublicKey(d.config.VerifyKey), nil
	}
	return nil, errors.New("no verify key configured")
}
