package util

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	purposeAccess = "access"
	purposeReset  = "reset"
)

// TokenClaims carries the identity embedded in an access token.
type TokenClaims struct {
	UserID  uint     `json:"user_id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Purpose string   `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetClaims carries the target of a password reset link.
type ResetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 access token for the user.
func GenerateAccessToken(userID uint, email string, roles []string, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:  userID,
		Email:   email,
		Roles:   roles,
		Purpose: purposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses an access token and returns its claims.
func ValidateToken(tokenString, secret string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if err := parse(tokenString, secret, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != purposeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateResetToken signs a single purpose token identifying userID.
func GenerateResetToken(userID uint, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		Purpose: purposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateResetToken returns the user id a reset token was issued for.
func ValidateResetToken(tokenString, secret string) (uint, error) {
	claims := &ResetClaims{}
	if err := parse(tokenString, secret, claims); err != nil {
		return 0, err
	}
	if claims.Purpose != purposeReset {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
