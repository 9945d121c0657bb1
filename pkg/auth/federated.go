package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAssertion is returned for any identity assertion that fails verification.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

// GoogleIssuers are the issuer values Google puts in ID tokens.
var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Identity holds the verified claims of a federated login.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier validates a third-party identity assertion.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (*Identity, error)
}

// NewGoogleKeys loads the signing keys published at jwksURL. The set is
// refreshed hourly and on an unknown kid until ctx is done. An unreachable
// endpoint at startup is not an error; lookups fail until a refresh succeeds.
func NewGoogleKeys(ctx context.Context, jwksURL string) (keyfunc.Keyfunc, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load google signing keys: %w", err)
	}
	return keys, nil
}

// GoogleVerifier verifies Google ID tokens: RS256 signature against the
// published keys, audience, issuer, expiry and a verified email.
type GoogleVerifier struct {
	clientID string
	issuers  []string
	keys     keyfunc.Keyfunc
	now      func() time.Time
}

func NewGoogleVerifier(clientID string, keys keyfunc.Keyfunc) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		issuers:  GoogleIssuers,
		keys:     keys,
		now:      time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (v *GoogleVerifier) WithClock(now func() time.Time) *GoogleVerifier {
	v.now = now
	return v
}

type googleClaims struct {
	Email         string       `json:"email"`
	EmailVerified flexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
	Picture       string       `json:"picture"`
	jwt.RegisteredClaims
}

func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (*Identity, error) {
	if v.clientID == "" || v.keys == nil {
		return nil, fmt.Errorf("%w: federated login is not configured", ErrInvalidAssertion)
	}
	if assertion == "" {
		return nil, fmt.Errorf("%w: empty assertion", ErrInvalidAssertion)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	claims := &googleClaims{}
	if _, err := parser.ParseWithClaims(assertion, claims, v.keys.KeyfuncCtx(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	if !slices.Contains(v.issuers, claims.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidAssertion, claims.Issuer)
	}
	if claims.Email == "" || !bool(claims.EmailVerified) {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidAssertion)
	}

	return &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// flexibleBool accepts both true and "true"; older ID tokens used a string.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexibleBool(t)
	case string:
		*b = flexibleBool(t == "true")
	default:
		*b = false
	}
	return nil
}
