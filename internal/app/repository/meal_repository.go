package repository

import (
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealFilter narrows admin listings. Nil fields are ignored.
type MealFilter struct {
	Selected *bool
	IDs      []uint
	// RestrictIDs applies IDs even when empty, yielding no rows.
	RestrictIDs bool
}

type MealRepository interface {
	WithTx(tx *gorm.DB) MealRepository
	Create(meal *model.Meal) error
	FindByID(id uint) (*model.Meal, error)
	UpdateDetails(meal *model.Meal) error
	SetSelected(id uint, selected bool) error
	Delete(id uint) error
	ListByChef(chefID uint) ([]model.Meal, error)
	ListFeaturedFirst(ids []uint) ([]model.Meal, error)
	List(filter MealFilter) ([]model.Meal, error)

	CreatePhoto(photo *model.MealPhoto) error
	FindPhoto(mealID, photoID uint) (*model.MealPhoto, error)
	DeletePhoto(id uint) error
	DeletePhotosByMeal(mealID uint) error
}

type mealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) MealRepository {
	return &mealRepository{db: db}
}

func (r *mealRepository) WithTx(tx *gorm.DB) MealRepository {
	return &mealRepository{db: tx}
}

func (r *mealRepository) withDetails() *gorm.DB {
	return r.db.
		Preload("Chef").
		Preload("Zipcodes", func(db *gorm.DB) *gorm.DB {
			return db.Order("zipcode_id ASC")
		}).
		Preload("Zipcodes.Zipcode").
		Preload("Photos")
}

func (r *mealRepository) Create(meal *model.Meal) error {
	logger.Debug("Creating meal in database", map[string]interface{}{
		"chef_id": meal.ChefID,
		"name":    meal.Name,
	})

	if err := r.db.Omit(clause.Associations).Create(meal).Error; err != nil {
		logger.Error("Failed to create meal in database", err, map[string]interface{}{
			"chef_id": meal.ChefID,
		})
		return err
	}

	logger.Debug("Meal created in database", map[string]interface{}{
		"meal_id": meal.ID,
	})
	return nil
}

func (r *mealRepository) FindByID(id uint) (*model.Meal, error) {
	var meal model.Meal
	if err := r.withDetails().First(&meal, id).Error; err != nil {
		logLookupError("Failed to find meal by ID", err, map[string]interface{}{
			"meal_id": id,
		})
		return nil, err
	}
	return &meal, nil
}

func (r *mealRepository) UpdateDetails(meal *model.Meal) error {
	logger.Debug("Updating meal in database", map[string]interface{}{
		"meal_id": meal.ID,
	})

	err := r.db.Model(&model.Meal{ID: meal.ID}).
		Select("name", "description").
		Updates(map[string]interface{}{
			"name":        meal.Name,
			"description": meal.Description,
		}).Error
	if err != nil {
		logger.Error("Failed to update meal in database", err, map[string]interface{}{
			"meal_id": meal.ID,
		})
	}
	return err
}

func (r *mealRepository) SetSelected(id uint, selected bool) error {
	err := r.db.Model(&model.Meal{ID: id}).Update("is_selected", selected).Error
	if err != nil {
		logger.Error("Failed to update meal featured flag", err, map[string]interface{}{
			"meal_id":  id,
			"selected": selected,
		})
	}
	return err
}

// Delete soft deletes the meal row.
func (r *mealRepository) Delete(id uint) error {
	logger.Debug("Deleting meal from database", map[string]interface{}{
		"meal_id": id,
	})

	if err := r.db.Delete(&model.Meal{}, id).Error; err != nil {
		logger.Error("Failed to delete meal from database", err, map[string]interface{}{
			"meal_id": id,
		})
		return err
	}
	return nil
}

func (r *mealRepository) ListByChef(chefID uint) ([]model.Meal, error) {
	var meals []model.Meal
	err := r.withDetails().
		Where("chef_id = ?", chefID).
		Order("created_at DESC, id DESC").
		Find(&meals).Error
	if err != nil {
		logger.Error("Failed to list meals by chef", err, map[string]interface{}{
			"chef_id": chefID,
		})
		return nil, err
	}
	return meals, nil
}

// ListFeaturedFirst loads ids ordered featured first, then newest.
func (r *mealRepository) ListFeaturedFirst(ids []uint) ([]model.Meal, error) {
	meals := []model.Meal{}
	if len(ids) == 0 {
		return meals, nil
	}
	err := r.withDetails().
		Where("id IN ?", ids).
		Order("is_selected DESC, created_at DESC, id DESC").
		Find(&meals).Error
	if err != nil {
		logger.Error("Failed to list meals", err, map[string]interface{}{
			"meal_count": len(ids),
		})
		return nil, err
	}
	return meals, nil
}

// List returns meals newest first.
func (r *mealRepository) List(filter MealFilter) ([]model.Meal, error) {
	meals := []model.Meal{}
	if filter.RestrictIDs && len(filter.IDs) == 0 {
		return meals, nil
	}

	query := r.withDetails()
	if filter.Selected != nil {
		query = query.Where("is_selected = ?", *filter.Selected)
	}
	if filter.RestrictIDs {
		query = query.Where("id IN ?", filter.IDs)
	}
	if err := query.Order("created_at DESC, id DESC").Find(&meals).Error; err != nil {
		logger.Error("Failed to list meals", err)
		return nil, err
	}
	return meals, nil
}

func (r *mealRepository) CreatePhoto(photo *model.MealPhoto) error {
	if err := r.db.Create(photo).Error; err != nil {
		logger.Error("Failed to create meal photo", err, map[string]interface{}{
			"meal_id": photo.MealID,
		})
		return err
	}
	return nil
}

func (r *mealRepository) FindPhoto(mealID, photoID uint) (*model.MealPhoto, error) {
	var photo model.MealPhoto
	err := r.db.Where("id = ? AND meal_id = ?", photoID, mealID).First(&photo).Error
	if err != nil {
		logLookupError("Failed to find meal photo", err, map[string]interface{}{
			"meal_id":  mealID,
			"photo_id": photoID,
		})
		return nil, err
	}
	return &photo, nil
}

func (r *mealRepository) DeletePhoto(id uint) error {
	if err := r.db.Delete(&model.MealPhoto{}, id).Error; err != nil {
		logger.Error("Failed to delete meal photo", err, map[string]interface{}{
			"photo_id": id,
		})
		return err
	}
	return nil
}

func (r *mealRepository) DeletePhotosByMeal(mealID uint) error {
	if err := r.db.Where("meal_id = ?", mealID).Delete(&model.MealPhoto{}).Error; err != nil {
		logger.Error("Failed to delete meal photos", err, map[string]interface{}{
			"meal_id": mealID,
		})
		return err
	}
	return nil
}
