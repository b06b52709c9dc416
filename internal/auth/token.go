// Package auth provides stateless bearer token issuance/verification and
// password hashing for the gateway.
//
// Tokens are HS256-signed JWTs carrying the identity (user ID and
// username) plus an absolute expiry. Verification is a pure function of
// the signing secret and the token, so every request can be
// authenticated without a store round trip. The trade-off is that there
// is no server-side revocation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the token lifetime: 7 days from issuance.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Sentinel errors for token verification.
var (
	// ErrTokenExpired indicates the token's expiry instant has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a bad signature, malformed structure,
	// or missing identity claims.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the verified token payload: the registered expiry claims
// plus the identity the token asserts.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Service issues and verifies signed identity tokens.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service with the given signing secret.
// A zero ttl selects DefaultTokenTTL.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token binding the given identity, expiring
// ttl from now.
func (s *Service) Issue(userID, username string) (string, error) {
	if userID == "" || username == "" {
		return "", errors.New("user id and username are required")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   userID,
		Username: username,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify decodes and validates a token, returning the embedded identity
// claims. It fails with ErrTokenExpired when the expiry instant has
// passed and ErrTokenInvalid for everything else (bad signature,
// malformed token, missing claims).
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" || claims.Username == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrTokenInvalid)
	}
	return claims, nil
}
