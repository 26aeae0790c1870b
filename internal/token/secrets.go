package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	opaqueSecretSize = 32
	otpDigits        = 6
)

// NewOpaqueSecret returns a hex-encoded random secret with 256 bits of
// entropy, used for verification tokens, reset tokens, and API keys.
func NewOpaqueSecret() (string, error) {
	buf := make([]byte, opaqueSecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret returns the hex SHA-256 digest of a secret. Reset tokens are
// stored only as this digest; verification re-hashes the presented secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// NewNumericOtp returns a 6-digit zero-padded code with each digit drawn
// uniformly from crypto/rand.
func NewNumericOtp() (string, error) {
	var b strings.Builder
	b.Grow(otpDigits)

	max := big.NewInt(10)
	for i := 0; i < otpDigits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
