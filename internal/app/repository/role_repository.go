package repository

import (
	"errors"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	WithTx(tx *gorm.DB) RoleRepository
	FindByName(name model.RoleName) (*model.Role, error)
	GetOrCreate(name model.RoleName) (*model.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) WithTx(tx *gorm.DB) RoleRepository {
	return &roleRepository{db: tx}
}

func (r *roleRepository) FindByName(name model.RoleName) (*model.Role, error) {
	var role model.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		logLookupError("Failed to find role", err, map[string]interface{}{
			"role": name,
		})
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetOrCreate(name model.RoleName) (*model.Role, error) {
	role, err := r.FindByName(name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&model.Role{Name: name})
	if result.Error != nil {
		logger.Error("Failed to create role", result.Error, map[string]interface{}{
			"role": name,
		})
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info("Role created", map[string]interface{}{
			"role": name,
		})
	}
	return r.FindByName(name)
}
