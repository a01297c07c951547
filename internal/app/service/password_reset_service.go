package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"github.com/threemeal/threemeal-backend/pkg/mailer"
	"github.com/threemeal/threemeal-backend/pkg/util"
	"gorm.io/gorm"
)

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(token, email, newPassword string) error
}

type passwordResetService struct {
	userRepo    repository.UserRepository
	mail        mailer.Mailer
	secret      string
	expiry      time.Duration
	frontendURL string
}

func NewPasswordResetService(
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	secret string,
	expiry time.Duration,
	frontendURL string,
) PasswordResetService {
	return &passwordResetService{
		userRepo:    userRepo,
		mail:        mail,
		secret:      secret,
		expiry:      expiry,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// RequestReset mails a signed reset link. Unknown addresses succeed silently.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		logger.Error("Failed to find user for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	token, err := util.GenerateResetToken(user.ID, s.secret, s.expiry)
	if err != nil {
		logger.Error("Failed to generate reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	query := url.Values{}
	query.Set("token", token)
	query.Set("email", user.Email)
	link := s.frontendURL + "/reset-password?" + query.Encode()

	if err := s.mail.Send(ctx, user.Email, "Reset Your Password", mailer.ResetPasswordHTML(user.Nickname, link, s.expiry)); err != nil {
		logger.Warn("Failed to send password reset mail", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return nil
	}

	logger.Info("Password reset mail sent", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (s *passwordResetService) ResetPassword(token, email, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	userID, err := util.ValidateResetToken(token, s.secret)
	if err != nil {
		logger.Warn("Invalid reset token provided", map[string]interface{}{
			"error": err.Error(),
		})
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if user.ID != userID {
		logger.Warn("Reset token does not belong to account", map[string]interface{}{
			"user_id":  user.ID,
			"token_id": userID,
		})
		return ErrInvalidResetToken
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hashed); err != nil {
		logger.Error("Failed to update user password", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	logger.Info("Password reset successful", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}
