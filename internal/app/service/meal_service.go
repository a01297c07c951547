package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/storage"
	"github.com/threemeal/threemeal-backend/internal/validation"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrMealNotFound      = errors.New("meal not found")
	ErrPhotoNotFound     = errors.New("meal photo not found")
	ErrInvalidDateRange  = errors.New("end date must not be before begin date")
	ErrMealNameRequired  = errors.New("meal name is required")
	ErrZipcodesRequired  = errors.New("at least one zip code is required")
	ErrInvalidMealFilter = errors.New("meal filter must be all, selected or unselected")
)

// MealInput describes a meal and the window it is offered in every listed zip code.
type MealInput struct {
	Name        string
	Description string
	Zipcodes    []string
	BeginDate   time.Time
	EndDate     time.Time
}

type PhotoRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// PhotoResult reports one presign attempt; Error is set when it failed.
type PhotoResult struct {
	Filename  string           `json:"filename"`
	Photo     *model.MealPhoto `json:"photo,omitempty"`
	UploadURL string           `json:"upload_url,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// MealListFilter selects meals on the admin listing.
type MealListFilter string

const (
	MealFilterAll        MealListFilter = "all"
	MealFilterSelected   MealListFilter = "selected"
	MealFilterUnselected MealListFilter = "unselected"
)

func ParseMealListFilter(s string) (MealListFilter, error) {
	switch f := MealListFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case MealFilterAll, MealFilterSelected, MealFilterUnselected:
		return f, nil
	}
	return "", ErrInvalidMealFilter
}

type MealService interface {
	CreateMeal(p model.Principal, input MealInput) (*model.Meal, error)
	EditMeal(p model.Principal, mealID uint, input MealInput) (*model.Meal, error)
	DeleteMeal(ctx context.Context, p model.Principal, mealID uint) error
	GetMeal(id uint) (*model.Meal, error)
	ListByChef(chefID uint) ([]model.Meal, error)
	ListForZipcode(code string, on *time.Time) ([]model.Meal, error)
	SetFeatured(p model.Principal, mealID uint, featured bool) (*model.Meal, error)
	ListForAdmin(p model.Principal, filter MealListFilter, zipcode string) ([]model.Meal, error)
	PresignPhotos(ctx context.Context, p model.Principal, mealID uint, files []PhotoRequest) ([]PhotoResult, error)
	DeletePhoto(ctx context.Context, p model.Principal, mealID, photoID uint) error
}

type mealService struct {
	db         *gorm.DB
	mealRepo   repository.MealRepository
	mzRepo     repository.MealZipcodeRepository
	zipService ZipcodeService
	storage    storage.ObjectStorage
}

func NewMealService(
	db *gorm.DB,
	mealRepo repository.MealRepository,
	mzRepo repository.MealZipcodeRepository,
	zipService ZipcodeService,
	objectStorage storage.ObjectStorage,
) MealService {
	return &mealService{
		db:         db,
		mealRepo:   mealRepo,
		mzRepo:     mzRepo,
		zipService: zipService,
		storage:    objectStorage,
	}
}

func (in MealInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrMealNameRequired
	}
	if len(in.Zipcodes) == 0 {
		return ErrZipcodesRequired
	}
	for _, code := range in.Zipcodes {
		if !validation.IsValidZipcode(strings.TrimSpace(code)) {
			return ErrInvalidZipcode
		}
	}
	if model.TruncateDay(in.EndDate).Before(model.TruncateDay(in.BeginDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// associate links meal to every distinct zip code in codes.
func (s *mealService) associate(tx *gorm.DB, mealID uint, input MealInput) error {
	zips, err := s.zipService.GetOrCreateTx(tx, input.Zipcodes)
	if err != nil {
		return err
	}
	mz := s.mzRepo.WithTx(tx)
	seen := make(map[uint]bool, len(zips))
	for _, zip := range zips {
		if seen[zip.ID] {
			continue
		}
		seen[zip.ID] = true
		if err := mz.Associate(mealID, zip.ID, input.BeginDate, input.EndDate); err != nil {
			return err
		}
	}
	return nil
}

func (s *mealService) CreateMeal(p model.Principal, input MealInput) (*model.Meal, error) {
	if err := CanPublishMeals(p).Err(); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	meal := &model.Meal{
		ChefID:      p.UserID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.mealRepo.WithTx(tx).Create(meal); err != nil {
			return err
		}
		return s.associate(tx, meal.ID, input)
	})
	if err != nil {
		logger.Error("Failed to create meal", err, map[string]interface{}{
			"chef_id": p.UserID,
		})
		return nil, err
	}

	logger.Info("Meal created", map[string]interface{}{
		"meal_id":  meal.ID,
		"chef_id":  meal.ChefID,
		"zipcodes": len(input.Zipcodes),
	})
	return s.GetMeal(meal.ID)
}

// EditMeal replaces the meal details and its whole zip code set.
func (s *mealService) EditMeal(p model.Principal, mealID uint, input MealInput) (*model.Meal, error) {
	meal, err := s.GetMeal(mealID)
	if err != nil {
		return nil, err
	}
	if err := CanManageMeal(p, meal).Err(); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	meal.Name = strings.TrimSpace(input.Name)
	meal.Description = strings.TrimSpace(input.Description)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.mealRepo.WithTx(tx).UpdateDetails(meal); err != nil {
			return err
		}
		if err := s.mzRepo.WithTx(tx).DisassociateAll(meal.ID); err != nil {
			return err
		}
		return s.associate(tx, meal.ID, input)
	})
	if err != nil {
		logger.Error("Failed to edit meal", err, map[string]interface{}{
			"meal_id": mealID,
		})
		return nil, err
	}

	logger.Info("Meal updated", map[string]interface{}{
		"meal_id": meal.ID,
		"by":      p.UserID,
	})
	return s.GetMeal(meal.ID)
}

// DeleteMeal removes the meal from every listing. Orders keep their reference.
func (s *mealService) DeleteMeal(ctx context.Context, p model.Principal, mealID uint) error {
	meal, err := s.GetMeal(mealID)
	if err != nil {
		return err
	}
	if err := CanManageMeal(p, meal).Err(); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.mzRepo.WithTx(tx).DisassociateAll(meal.ID); err != nil {
			return err
		}
		meals := s.mealRepo.WithTx(tx)
		if err := meals.DeletePhotosByMeal(meal.ID); err != nil {
			return err
		}
		return meals.Delete(meal.ID)
	})
	if err != nil {
		logger.Error("Failed to delete meal", err, map[string]interface{}{
			"meal_id": mealID,
		})
		return err
	}

	for _, photo := range meal.Photos {
		if err := s.storage.Delete(ctx, photo.ObjectKey); err != nil {
			logger.Warn("Failed to delete photo object", map[string]interface{}{
				"meal_id": meal.ID,
				"key":     photo.ObjectKey,
				"error":   err.Error(),
			})
		}
	}

	logger.Info("Meal deleted", map[string]interface{}{
		"meal_id": meal.ID,
		"by":      p.UserID,
	})
	return nil
}

func (s *mealService) GetMeal(id uint) (*model.Meal, error) {
	meal, err := s.mealRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return meal, nil
}

func (s *mealService) ListByChef(chefID uint) ([]model.Meal, error) {
	return s.mealRepo.ListByChef(chefID)
}

// ListForZipcode returns the menu for a zip code, featured meals first.
// A zip code nobody serves yields an empty menu.
func (s *mealService) ListForZipcode(code string, on *time.Time) ([]model.Meal, error) {
	zip, err := s.zipService.FindByCode(code)
	if err != nil {
		if errors.Is(err, ErrZipcodeNotFound) {
			return []model.Meal{}, nil
		}
		return nil, err
	}

	ids, err := s.mzRepo.ListMealIDsForZipcode(zip.ID, on)
	if err != nil {
		return nil, err
	}
	return s.mealRepo.ListFeaturedFirst(ids)
}

func (s *mealService) SetFeatured(p model.Principal, mealID uint, featured bool) (*model.Meal, error) {
	if err := CanModerate(p).Err(); err != nil {
		return nil, err
	}
	if _, err := s.GetMeal(mealID); err != nil {
		return nil, err
	}
	if err := s.mealRepo.SetSelected(mealID, featured); err != nil {
		return nil, err
	}

	logger.Info("Meal featured flag changed", map[string]interface{}{
		"meal_id":  mealID,
		"featured": featured,
		"admin_id": p.UserID,
	})
	return s.GetMeal(mealID)
}

func (s *mealService) ListForAdmin(p model.Principal, filter MealListFilter, zipcode string) ([]model.Meal, error) {
	if err := CanModerate(p).Err(); err != nil {
		return nil, err
	}

	var query repository.MealFilter
	switch filter {
	case MealFilterAll, "":
	case MealFilterSelected:
		selected := true
		query.Selected = &selected
	case MealFilterUnselected:
		selected := false
		query.Selected = &selected
	default:
		return nil, ErrInvalidMealFilter
	}

	if zipcode = strings.TrimSpace(zipcode); zipcode != "" {
		zip, err := s.zipService.FindByCode(zipcode)
		if err != nil {
			if errors.Is(err, ErrZipcodeNotFound) {
				return []model.Meal{}, nil
			}
			return nil, err
		}
		ids, err := s.mzRepo.ListMealIDsForZipcode(zip.ID, nil)
		if err != nil {
			return nil, err
		}
		query.IDs = ids
		query.RestrictIDs = true
	}

	return s.mealRepo.List(query)
}

// PresignPhotos issues an upload URL per file. A failed file does not stop the others.
func (s *mealService) PresignPhotos(ctx context.Context, p model.Principal, mealID uint, files []PhotoRequest) ([]PhotoResult, error) {
	meal, err := s.GetMeal(mealID)
	if err != nil {
		return nil, err
	}
	if err := CanManageMeal(p, meal).Err(); err != nil {
		return nil, err
	}

	folder := fmt.Sprintf("meals/%d", meal.ID)
	results := make([]PhotoResult, 0, len(files))
	for _, file := range files {
		result := PhotoResult{Filename: file.Filename}

		presigned, err := s.storage.PresignUpload(ctx, folder, file.Filename, file.ContentType)
		if err != nil {
			logger.Warn("Failed to presign meal photo", map[string]interface{}{
				"meal_id":  meal.ID,
				"filename": file.Filename,
				"error":    err.Error(),
			})
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		photo := &model.MealPhoto{
			MealID:      meal.ID,
			ObjectKey:   presigned.Key,
			URL:         presigned.FileURL,
			ContentType: file.ContentType,
		}
		if err := s.mealRepo.CreatePhoto(photo); err != nil {
			result.Error = "failed to record photo"
			results = append(results, result)
			continue
		}

		result.Photo = photo
		result.UploadURL = presigned.UploadURL
		results = append(results, result)
	}
	return results, nil
}

func (s *mealService) DeletePhoto(ctx context.Context, p model.Principal, mealID, photoID uint) error {
	meal, err := s.GetMeal(mealID)
	if err != nil {
		return err
	}
	if err := CanManageMeal(p, meal).Err(); err != nil {
		return err
	}

	photo, err := s.mealRepo.FindPhoto(mealID, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPhotoNotFound
		}
		return err
	}
	if err := s.mealRepo.DeletePhoto(photo.ID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, photo.ObjectKey); err != nil {
		logger.Warn("Failed to delete photo object", map[string]interface{}{
			"photo_id": photo.ID,
			"key":      photo.ObjectKey,
			"error":    err.Error(),
		})
	}
	return nil
}
