package repository

import (
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealZipcodeRepository is the only writer of meal_zipcodes rows.
type MealZipcodeRepository interface {
	WithTx(tx *gorm.DB) MealZipcodeRepository
	Associate(mealID, zipcodeID uint, begin, end time.Time) error
	Disassociate(mealID, zipcodeID uint) error
	DisassociateAll(mealID uint) error
	Find(mealID, zipcodeID uint) (*model.MealZipcode, error)
	ListAssociated(mealID uint) ([]model.MealZipcode, error)
	// ListMealIDsForZipcode returns meals served in the zip code; when on is
	// set only windows containing that day are returned.
	ListMealIDsForZipcode(zipcodeID uint, on *time.Time) ([]uint, error)
}

type mealZipcodeRepository struct {
	db *gorm.DB
}

func NewMealZipcodeRepository(db *gorm.DB) MealZipcodeRepository {
	return &mealZipcodeRepository{db: db}
}

func (r *mealZipcodeRepository) WithTx(tx *gorm.DB) MealZipcodeRepository {
	return &mealZipcodeRepository{db: tx}
}

func (r *mealZipcodeRepository) Associate(mealID, zipcodeID uint, begin, end time.Time) error {
	row := &model.MealZipcode{
		MealID:    mealID,
		ZipcodeID: zipcodeID,
		BeginDate: model.TruncateDay(begin),
		EndDate:   model.TruncateDay(end),
	}
	if err := r.db.Omit(clause.Associations).Create(row).Error; err != nil {
		logger.Error("Failed to associate meal with zip code", err, map[string]interface{}{
			"meal_id":    mealID,
			"zipcode_id": zipcodeID,
		})
		return err
	}
	return nil
}

func (r *mealZipcodeRepository) Disassociate(mealID, zipcodeID uint) error {
	err := r.db.Where("meal_id = ? AND zipcode_id = ?", mealID, zipcodeID).
		Delete(&model.MealZipcode{}).Error
	if err != nil {
		logger.Error("Failed to disassociate meal from zip code", err, map[string]interface{}{
			"meal_id":    mealID,
			"zipcode_id": zipcodeID,
		})
	}
	return err
}

func (r *mealZipcodeRepository) DisassociateAll(mealID uint) error {
	result := r.db.Where("meal_id = ?", mealID).Delete(&model.MealZipcode{})
	if result.Error != nil {
		logger.Error("Failed to clear meal zip codes", result.Error, map[string]interface{}{
			"meal_id": mealID,
		})
		return result.Error
	}
	logger.Debug("Meal zip codes cleared", map[string]interface{}{
		"meal_id": mealID,
		"removed": result.RowsAffected,
	})
	return nil
}

func (r *mealZipcodeRepository) Find(mealID, zipcodeID uint) (*model.MealZipcode, error) {
	var row model.MealZipcode
	err := r.db.Preload("Zipcode").
		Where("meal_id = ? AND zipcode_id = ?", mealID, zipcodeID).
		First(&row).Error
	if err != nil {
		logLookupError("Failed to find meal zip code", err, map[string]interface{}{
			"meal_id":    mealID,
			"zipcode_id": zipcodeID,
		})
		return nil, err
	}
	return &row, nil
}

func (r *mealZipcodeRepository) ListAssociated(mealID uint) ([]model.MealZipcode, error) {
	rows := []model.MealZipcode{}
	err := r.db.Preload("Zipcode").
		Where("meal_id = ?", mealID).
		Order("zipcode_id ASC").
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to list meal zip codes", err, map[string]interface{}{
			"meal_id": mealID,
		})
		return nil, err
	}
	return rows, nil
}

func (r *mealZipcodeRepository) ListMealIDsForZipcode(zipcodeID uint, on *time.Time) ([]uint, error) {
	ids := []uint{}
	query := r.db.Model(&model.MealZipcode{}).Where("zipcode_id = ?", zipcodeID)
	if on != nil {
		day := model.TruncateDay(*on)
		query = query.Where("begin_date <= ? AND end_date >= ?", day, day)
	}
	if err := query.Pluck("meal_id", &ids).Error; err != nil {
		logger.Error("Failed to list meals for zip code", err, map[string]interface{}{
			"zipcode_id": zipcodeID,
		})
		return nil, err
	}
	return ids, nil
}
