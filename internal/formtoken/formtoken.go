// Package formtoken issues single-use tokens embedded in HTML forms so that
// a form posted twice (double click, browser resubmit) is applied once.
package formtoken

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	pendingValue = "pending"
	donePrefix   = "done:"
	keyPrefix    = "formtoken:"
)

// ErrInvalidToken covers missing, forged, expired or mismatched tokens.
var ErrInvalidToken = errors.New("formtoken: invalid or expired form token")

// NonceStore records claimed token ids.
type NonceStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
}

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Claim is the result of presenting a token.
type Claim struct {
	Nonce string
	// Duplicate is set when the token was already presented. Result then
	// holds what the first submission recorded, or "" while it is running.
	Duplicate bool
	Result    string
}

// Issuer signs and redeems form tokens.
type Issuer struct {
	key   []byte
	ttl   time.Duration
	store NonceStore
	now   func() time.Time
}

// NewIssuer derives the signing key from secret.
func NewIssuer(secret string, ttl time.Duration, store NonceStore) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("formtoken: secret required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("ticket-web form token v1")), key); err != nil {
		return nil, fmt.Errorf("formtoken: derive key: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{key: key, ttl: ttl, store: store, now: time.Now}, nil
}

// Issue returns a fresh token for a form of the given purpose.
func (i *Issuer) Issue(purpose string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return token.SignedString(i.key)
}

// Claim verifies the token and marks it used. A token presented a second
// time yields a Duplicate claim rather than an error.
func (i *Issuer) Claim(ctx context.Context, tokenStr, purpose string) (Claim, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return Claim{}, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Purpose != purpose || c.ID == "" {
		return Claim{}, ErrInvalidToken
	}

	key := keyPrefix + c.ID
	fresh, err := i.store.SetNX(ctx, key, pendingValue, i.ttl)
	if err != nil {
		return Claim{}, fmt.Errorf("formtoken: claim: %w", err)
	}
	if fresh {
		return Claim{Nonce: c.ID}, nil
	}

	val, _, err := i.store.Get(ctx, key)
	if err != nil {
		return Claim{}, fmt.Errorf("formtoken: lookup: %w", err)
	}
	dup := Claim{Nonce: c.ID, Duplicate: true}
	if strings.HasPrefix(val, donePrefix) {
		dup.Result = strings.TrimPrefix(val, donePrefix)
	}
	return dup, nil
}

// Complete records the outcome of the first submission, e.g. a ticket id.
func (i *Issuer) Complete(ctx context.Context, claim Claim, result string) error {
	return i.store.Set(ctx, keyPrefix+claim.Nonce, donePrefix+result, i.ttl)
}

// Release forgets a claim so the same form can be submitted again after a
// failed attempt.
func (i *Issuer) Release(ctx context.Context, claim Claim) error {
	return i.store.Del(ctx, keyPrefix+claim.Nonce)
}
