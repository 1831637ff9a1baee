package backend

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted on sign-up or update.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	errPasswordTooShort = newError(CodeWeakPassword, "password should be at least 6 characters")
	errPasswordTooLong  = newError(CodeWeakPassword, "password exceeds maximum length of 72 bytes")
	errInvalidPassword  = errors.New("invalid password")
)

// hashPassword creates a bcrypt hash of the password.
func hashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", errPasswordTooShort
	}
	// bcrypt has a 72-byte limit
	if len(password) > 72 {
		return "", errPasswordTooLong
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword compares a password with its hash.
func checkPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errInvalidPassword
		}
		return err
	}
	return nil
}

// generateToken creates a random opaque token and its SHA-256 hash.
// Only the hash is stored.
func generateToken() (plaintext string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(bytes)
	return plaintext, hashToken(plaintext), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
