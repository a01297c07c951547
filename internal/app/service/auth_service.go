package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/session"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"github.com/threemeal/threemeal-backend/pkg/mailer"
	"github.com/threemeal/threemeal-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrNicknameAlreadyExists = errors.New("nickname already exists")
	ErrWeakPassword          = errors.New("password is too short")
	ErrPasswordTooLong       = util.ErrPasswordTooLong
	ErrInvalidCredentials    = errors.New("invalid email, nickname or password")
	ErrUserNotFound          = errors.New("user not found")
)

type ProfileInput struct {
	Nickname string
	AboutMe  string
	Avatar   string
}

type AuthService interface {
	Register(ctx context.Context, nickname, email, password string) (*model.User, string, error)
	Authenticate(ctx context.Context, identifier, password string) (*model.User, string, error)
	LoadPrincipal(userID uint) (model.Principal, error)
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, input ProfileInput) (*model.User, error)
	ChangePassword(userID uint, oldPassword, newPassword string) error
	Logout(ctx context.Context, token string, expiresAt time.Time) error
	EnsureAdmin(email, password string) (*model.User, error)
}

type authService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	mail         mailer.Mailer
	sessions     session.Store
	jwtSecret    string
	accessExpiry time.Duration
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	mail mailer.Mailer,
	sessions session.Store,
	jwtSecret string,
	accessExpiry time.Duration,
) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		mail:         mail,
		sessions:     sessions,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, nickname, email, password string) (*model.User, string, error) {
	nickname = strings.TrimSpace(nickname)
	email = normalizeEmail(email)

	logger.Info("Attempting user registration", map[string]interface{}{
		"email":    email,
		"nickname": nickname,
	})

	if err := checkPassword(password); err != nil {
		return nil, "", err
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, "", err
	}

	user := &model.User{
		Nickname:     nickname,
		Email:        email,
		PasswordHash: hashed,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		if _, err := users.FindByEmail(email); err == nil {
			return ErrEmailAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if _, err := users.FindByNickname(nickname); err == nil {
			return ErrNicknameAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := users.Create(user); err != nil {
			return err
		}
		role, err := s.roleRepo.WithTx(tx).GetOrCreate(model.RoleCustomer)
		if err != nil {
			return err
		}
		if err := users.AddRole(user.ID, role); err != nil {
			return err
		}
		user.Roles = []model.Role{*role}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) || errors.Is(err, ErrNicknameAlreadyExists) {
			logger.Warn("Registration rejected", map[string]interface{}{
				"email":  email,
				"reason": err.Error(),
			})
		} else {
			logger.Error("Failed to register user", err, map[string]interface{}{
				"email": email,
			})
		}
		return nil, "", err
	}

	if err := s.mail.Send(ctx, user.Email, "Welcome", mailer.WelcomeHTML(user.Nickname)); err != nil {
		logger.Warn("Failed to send welcome mail", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, token, nil
}

func (s *authService) Authenticate(ctx context.Context, identifier, password string) (*model.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	logger.Info("Login attempt", map[string]interface{}{
		"identifier": identifier,
	})

	user, err := s.userRepo.FindByIdentifier(identifier)
	if err != nil && strings.Contains(identifier, "@") && errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.userRepo.FindByEmail(normalizeEmail(identifier))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"identifier": identifier,
			})
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.TouchLastSeen(user.ID, now); err != nil {
		return nil, "", err
	}
	user.LastSeen = &now

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, token, nil
}

func (s *authService) issueToken(user *model.User) (string, error) {
	token, err := util.GenerateAccessToken(user.ID, user.Email, user.RoleNames(), s.jwtSecret, s.accessExpiry)
	if err != nil {
		logger.Error("Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", err
	}
	return token, nil
}

// LoadPrincipal reads roles from the database so grants apply without re-login.
func (s *authService) LoadPrincipal(userID uint) (model.Principal, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return model.Principal{}, err
	}
	return model.PrincipalFromUser(user), nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input ProfileInput) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if nickname := strings.TrimSpace(input.Nickname); nickname != "" && nickname != user.Nickname {
		existing, err := s.userRepo.FindByNickname(nickname)
		if err == nil && existing.ID != user.ID {
			return nil, ErrNicknameAlreadyExists
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Nickname = nickname
	}
	user.AboutMe = strings.TrimSpace(input.AboutMe)
	user.Avatar = strings.TrimSpace(input.Avatar)

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hashed); err != nil {
		return err
	}

	logger.Info("Password changed", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

// Logout revokes token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	return s.sessions.Revoke(ctx, token, time.Until(expiresAt))
}

// EnsureAdmin creates the bootstrap administrator or re-grants its roles.
// An existing password is left untouched.
func (s *authService) EnsureAdmin(email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	var admin *model.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		roles := s.roleRepo.WithTx(tx)

		user, err := users.FindByEmail(email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashed, err := util.HashPassword(password)
			if err != nil {
				return err
			}
			nickname, err := freeNickname(users, strings.SplitN(email, "@", 2)[0])
			if err != nil {
				return err
			}
			user = &model.User{Nickname: nickname, Email: email, PasswordHash: hashed}
			if err := users.Create(user); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for _, name := range []model.RoleName{model.RoleCustomer, model.RoleAdmin} {
			role, err := roles.GetOrCreate(name)
			if err != nil {
				return err
			}
			if err := users.AddRole(user.ID, role); err != nil {
				return err
			}
		}

		admin, err = users.FindByID(user.ID)
		return err
	})
	if err != nil {
		logger.Error("Failed to ensure admin account", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("Admin account ready", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return admin, nil
}

// freeNickname picks base, then base-admin, then base-admin2 and so on.
func freeNickname(users repository.UserRepository, base string) (string, error) {
	if base == "" {
		base = "admin"
	}
	for i := 0; i < 100; i++ {
		candidate := base
		switch {
		case i == 1:
			candidate = base + "-admin"
		case i > 1:
			candidate = fmt.Sprintf("%s-admin%d", base, i)
		}
		_, err := users.FindByNickname(candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrNicknameAlreadyExists
}

// checkPassword enforces the length bounds on a new password.
func checkPassword(password string) error {
	if !util.IsStrongEnough(password) {
		return ErrWeakPassword
	}
	if util.ExceedsMaxLength(password) {
		return ErrPasswordTooLong
	}
	return nil
}
