package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"time"
)

// Reset code shape.
const (
	ResetCodeLength     = 6
	DefaultResetCodeTTL = time.Hour
)

var resetCodeSpace = big.NewInt(1_000_000)

// ResetCodeManager generates and checks numeric password-reset codes.
type ResetCodeManager struct {
	ttl    time.Duration
	random io.Reader
}

func NewResetCodeManager(ttl time.Duration) *ResetCodeManager {
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}
	return &ResetCodeManager{ttl: ttl, random: rand.Reader}
}

// TTL returns how long a generated code stays valid.
func (m *ResetCodeManager) TTL() time.Duration {
	return m.ttl
}

// Generate returns a uniformly random zero-padded code in [000000, 999999].
func (m *ResetCodeManager) Generate() (string, error) {
	n, err := rand.Int(m.random, resetCodeSpace)
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", ResetCodeLength, n.Int64()), nil
}

func (m *ResetCodeManager) ComputeExpiry(now time.Time) time.Time {
	return now.Add(m.ttl)
}

// Validate reports whether supplied matches stored and now is strictly
// before the stored expiry. Missing stored values never validate.
func (m *ResetCodeManager) Validate(stored string, storedExpiry *time.Time, supplied string, now time.Time) bool {
	if stored == "" || storedExpiry == nil || supplied == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return false
	}
	return now.Before(*storedExpiry)
}
