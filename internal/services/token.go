package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// Tokens issues and verifies HMAC-signed access tokens carrying the user
// name in the "sub" claim.
type Tokens struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewTokens creates a token helper. algorithm is one of HS256, HS384, HS512.
func NewTokens(secret, algorithm string, ttl time.Duration, clock clockwork.Clock) (*Tokens, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tokens{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		clock:  clock,
	}, nil
}

// Issue signs a token for subject that expires after the configured TTL.
func (t *Tokens) Issue(subject string) (string, error) {
	now := t.clock.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(t.ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature and expiry and returns the token's claims.
func (t *Tokens) Verify(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithTimeFunc(t.clock.Now),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// Subject returns the "sub" claim or fallback when absent.
func Subject(claims jwt.MapClaims, fallback string) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	return fallback
}
