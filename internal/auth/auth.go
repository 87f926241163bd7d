// Package auth provides credential hashing and verification for account
// passwords using PBKDF2-SHA512 with per-account salts.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100_000
	keyLen     = 64
	saltLen    = 16

	// MinPasswordLen is the shortest password accepted on change or
	// account creation.
	MinPasswordLen = 4
)

// NewSalt generates a fresh random salt, hex encoded.
func NewSalt() (string, error) {
	buf := make([]byte, saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives the hex-encoded digest for a password and salt.
func Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLen, sha512.New)
	return hex.EncodeToString(key)
}

// HashPassword generates a fresh salt and returns (hash, salt).
func HashPassword(password string) (string, string, error) {
	salt, err := NewSalt()
	if err != nil {
		return "", "", err
	}
	return Hash(password, salt), salt, nil
}

// Verify reports whether password matches the stored hex digest. The
// comparison is constant time.
func Verify(password, storedHash, salt string) bool {
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	computed := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLen, sha512.New)
	return subtle.ConstantTimeCompare(stored, computed) == 1
}
