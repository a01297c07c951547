package repository

import (
	"errors"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ZipcodeRepository interface {
	WithTx(tx *gorm.DB) ZipcodeRepository
	FindByCode(code string) (*model.Zipcode, error)
	GetOrCreate(code string) (*model.Zipcode, error)
	List() ([]model.Zipcode, error)
}

type zipcodeRepository struct {
	db *gorm.DB
}

func NewZipcodeRepository(db *gorm.DB) ZipcodeRepository {
	return &zipcodeRepository{db: db}
}

func (r *zipcodeRepository) WithTx(tx *gorm.DB) ZipcodeRepository {
	return &zipcodeRepository{db: tx}
}

func (r *zipcodeRepository) FindByCode(code string) (*model.Zipcode, error) {
	var zip model.Zipcode
	if err := r.db.Where("code = ?", code).First(&zip).Error; err != nil {
		logLookupError("Failed to find zip code", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}
	return &zip, nil
}

// GetOrCreate returns the row for code, inserting it when missing.
// A concurrent insert of the same code is absorbed by the unique index.
func (r *zipcodeRepository) GetOrCreate(code string) (*model.Zipcode, error) {
	zip, err := r.FindByCode(code)
	if err == nil {
		return zip, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&model.Zipcode{Code: code})
	if result.Error != nil {
		logger.Error("Failed to create zip code", result.Error, map[string]interface{}{
			"code": code,
		})
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Debug("Zip code created", map[string]interface{}{
			"code": code,
		})
	}
	return r.FindByCode(code)
}

func (r *zipcodeRepository) List() ([]model.Zipcode, error) {
	var zips []model.Zipcode
	if err := r.db.Order("code ASC").Find(&zips).Error; err != nil {
		logger.Error("Failed to list zip codes", err)
		return nil, err
	}
	return zips, nil
}
