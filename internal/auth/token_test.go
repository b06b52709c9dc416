package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewService(testSecret, 0)

	token, err := svc.Issue("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestIssueRequiresIdentity(t *testing.T) {
	svc := NewService(testSecret, 0)

	_, err := svc.Issue("", "alice")
	assert.Error(t, err)

	_, err = svc.Issue("user-1", "")
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	// Negative ttl produces an already-expired token.
	svc := NewService(testSecret, -time.Minute)

	token, err := svc.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService(testSecret, 0)
	verifier := NewService("another-secret-another-secret-32", 0)

	token, err := issuer.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyMalformedToken(t *testing.T) {
	svc := NewService(testSecret, 0)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}

func TestVerifyMissingIdentityClaims(t *testing.T) {
	svc := NewService(testSecret, 0)

	// Correctly signed but carrying no identity: rejected as invalid,
	// not accepted with an empty identity.
	now := time.Now()
	bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	token, err := bare.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc := NewService(testSecret, 0)

	token, err := svc.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = svc.Verify(token[:len(token)-2])
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
