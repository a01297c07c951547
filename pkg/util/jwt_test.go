package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		userID uint
		email  string
		roles  []string
	}{
		{name: "Customer", userID: 1, email: "test@example.com", roles: []string{"customer"}},
		{name: "Chef and admin", userID: 2, email: "admin@example.com", roles: []string{"chef", "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateAccessToken(tt.userID, tt.email, tt.roles, testSecret, 15*time.Minute)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := ValidateToken(token, testSecret)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.roles, claims.Roles)
			assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
		})
	}
}

func TestValidateToken(t *testing.T) {
	token, err := GenerateAccessToken(123, "test@example.com", []string{"customer"}, testSecret, 15*time.Minute)
	require.NoError(t, err)
	resetToken, err := GenerateResetToken(123, testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "Valid access token", token: token, secret: testSecret},
		{name: "Invalid secret", token: token, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "Invalid token format", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Empty token", token: "", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Reset token is not an access token", token: resetToken, secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateAccessToken(1, "test@example.com", nil, testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestResetToken(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		token, err := GenerateResetToken(42, testSecret, time.Hour)
		require.NoError(t, err)

		userID, err := ValidateResetToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, uint(42), userID)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateResetToken(42, testSecret, -time.Second)
		require.NoError(t, err)

		_, err = ValidateResetToken(token, testSecret)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Access token rejected", func(t *testing.T) {
		token, err := GenerateAccessToken(42, "a@b.com", nil, testSecret, time.Hour)
		require.NoError(t, err)

		_, err = ValidateResetToken(token, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := GenerateResetToken(42, testSecret, time.Hour)
		require.NoError(t, err)

		_, err = ValidateResetToken(token, "other")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
