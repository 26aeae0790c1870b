// Package password wraps bcrypt hashing for account credentials.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = 10

// Hash derives a bcrypt hash of the plaintext password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether plain matches the stored hash.
func Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
