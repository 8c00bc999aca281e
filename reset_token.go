package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

// ResetTokenTTL is the fixed validity window for password reset tokens
const ResetTokenTTL = 10 * time.Minute

// resetTokenBytes of entropy per token; the raw value is shown to the
// requester exactly once and only its digest is persisted.
const resetTokenBytes = 32

// GenerateResetToken creates a high-entropy reset token. It returns the
// raw value for one-time delivery and the digest for storage. The raw
// value must never be logged or persisted.
func GenerateResetToken() (raw string, digest string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, errors.CategoryInternal, "failed to generate reset token")
	}

	raw = hex.EncodeToString(buf)
	return raw, HashResetToken(raw), nil
}

// HashResetToken computes the deterministic one-way digest of a raw reset
// token. SHA-256 is enough here: tokens are high-entropy and single-use,
// so the digest only needs collision resistance for equality lookup, not
// brute-force resistance.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
