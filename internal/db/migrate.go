package db

import (
	"errors"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&model.Role{},
		&model.User{},
		&model.Zipcode{},
		&model.Meal{},
		&model.MealZipcode{},
		&model.MealPhoto{},
		&model.ChefApply{},
		&model.Order{},
		&model.OrderStatusHistory{},
	}
}

var defaultRoles = []model.Role{
	{Name: model.RoleCustomer, Description: "Orders meals"},
	{Name: model.RoleChef, Description: "Publishes meals and handles orders"},
	{Name: model.RoleAdmin, Description: "Moderates applications and curates meals"},
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB migrates the given connection and seeds the role table.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedRoles(db); err != nil {
		logger.Error("Failed to seed roles during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedRoles creates the built-in roles that are missing.
func SeedRoles(db *gorm.DB) error {
	for _, r := range defaultRoles {
		var existing model.Role
		err := db.Where("name = ?", r.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		role := r
		if err := db.Create(&role).Error; err != nil {
			return err
		}
		logger.Info("Role created", map[string]interface{}{
			"role": role.Name,
		})
	}
	return nil
}
