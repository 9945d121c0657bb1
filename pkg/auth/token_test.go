package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer("test-secret", "marketplace-auth")
	require.NoError(t, err)
	issuer.WithClock(fixedClock(now))

	token, expiresAt, err := issuer.Issue("user-1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "marketplace-auth", claims.Issuer)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestTokenIssuer_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer("test-secret", "marketplace-auth")
	require.NoError(t, err)
	issuer.WithClock(fixedClock(now))

	token, _, err := issuer.Issue("user-1", time.Hour)
	require.NoError(t, err)

	issuer.WithClock(fixedClock(now.Add(2 * time.Hour)))
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	a, err := NewTokenIssuer("secret-a", "marketplace-auth")
	require.NoError(t, err)
	b, err := NewTokenIssuer("secret-b", "marketplace-auth")
	require.NoError(t, err)

	token, _, err := a.Issue("user-1", time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Tampered(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "marketplace-auth")
	require.NoError(t, err)

	token, _, err := issuer.Issue("user-1", time.Hour)
	require.NoError(t, err)

	other, _, err := issuer.Issue("user-2", time.Hour)
	require.NoError(t, err)

	// graft the second payload onto the first signature
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := strings.Join([]string{parts[0], otherParts[1], parts[2]}, ".")

	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "marketplace-auth")
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "marketplace-auth",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongIssuer(t *testing.T) {
	a, err := NewTokenIssuer("test-secret", "someone-else")
	require.NoError(t, err)
	b, err := NewTokenIssuer("test-secret", "marketplace-auth")
	require.NoError(t, err)

	token, _, err := a.Issue("user-1", time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", "marketplace-auth")
	assert.Error(t, err)
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "marketplace-auth")
	require.NoError(t, err)

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}
