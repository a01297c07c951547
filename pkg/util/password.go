package util

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// MinPasswordLength is the shortest password accepted after trimming.
const MinPasswordLength = 3

// MaxPasswordLength is the bcrypt input limit in bytes.
const MaxPasswordLength = 72

var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	if ExceedsMaxLength(password) {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// IsStrongEnough reports whether password satisfies the minimum length rule.
func IsStrongEnough(password string) bool {
	return len(strings.TrimSpace(password)) >= MinPasswordLength
}

// ExceedsMaxLength reports whether password is longer than bcrypt accepts.
func ExceedsMaxLength(password string) bool {
	return len(password) > MaxPasswordLength
}
