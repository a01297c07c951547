package repository

import (
	"errors"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByNickname(nickname string) (*model.User, error)
	FindByIdentifier(identifier string) (*model.User, error)
	Update(user *model.User) error
	UpdatePassword(id uint, passwordHash string) error
	TouchLastSeen(id uint, at time.Time) error
	AddRole(userID uint, role *model.Role) error
	RemoveRole(userID uint, role *model.Role) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email":    user.Email,
		"nickname": user.Nickname,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Roles").First(&user, id).Error; err != nil {
		logLookupError("Failed to find user by ID", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		logLookupError("Failed to find user by email", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByNickname(nickname string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Roles").Where("nickname = ?", nickname).First(&user).Error; err != nil {
		logLookupError("Failed to find user by nickname", err, map[string]interface{}{
			"nickname": nickname,
		})
		return nil, err
	}
	return &user, nil
}

// FindByIdentifier matches identifier against email first, then nickname.
func (r *userRepository) FindByIdentifier(identifier string) (*model.User, error) {
	user, err := r.FindByEmail(identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.FindByNickname(identifier)
}

// Update persists profile columns only; roles and password are written elsewhere.
func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
	})

	err := r.db.Model(user).
		Select("nickname", "avatar", "about_me").
		Updates(user).Error
	if err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

func (r *userRepository) UpdatePassword(id uint, passwordHash string) error {
	err := r.db.Model(&model.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
	if err != nil {
		logger.Error("Failed to update password in database", err, map[string]interface{}{
			"user_id": id,
		})
	}
	return err
}

func (r *userRepository) TouchLastSeen(id uint, at time.Time) error {
	err := r.db.Model(&model.User{}).Where("id = ?", id).
		UpdateColumn("last_seen", at).Error
	if err != nil {
		logger.Error("Failed to update last seen", err, map[string]interface{}{
			"user_id": id,
		})
	}
	return err
}

// AddRole grants role; granting a held role is a no-op.
func (r *userRepository) AddRole(userID uint, role *model.Role) error {
	logger.Debug("Granting role", map[string]interface{}{
		"user_id": userID,
		"role":    role.Name,
	})

	err := r.db.Model(&model.User{ID: userID}).Association("Roles").Append(role)
	if err != nil {
		logger.Error("Failed to grant role", err, map[string]interface{}{
			"user_id": userID,
			"role":    role.Name,
		})
	}
	return err
}

func (r *userRepository) RemoveRole(userID uint, role *model.Role) error {
	logger.Debug("Revoking role", map[string]interface{}{
		"user_id": userID,
		"role":    role.Name,
	})

	err := r.db.Model(&model.User{ID: userID}).Association("Roles").Delete(role)
	if err != nil {
		logger.Error("Failed to revoke role", err, map[string]interface{}{
			"user_id": userID,
			"role":    role.Name,
		})
	}
	return err
}

// logLookupError keeps expected misses at debug level.
func logLookupError(msg string, err error, fields map[string]interface{}) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}
