package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
	"github.com/threemeal/threemeal-backend/internal/middleware"
)

type MealController struct {
	mealService service.MealService
}

func NewMealController(mealService service.MealService) *MealController {
	return &MealController{
		mealService: mealService,
	}
}

type MealRequest struct {
	Name        string   `json:"name" binding:"required,max=64"`
	Description string   `json:"description" binding:"max=4096"`
	Zipcodes    []string `json:"zipcodes" binding:"required,min=1,dive,zipcode"`
	BeginDate   string   `json:"begin_date" binding:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" binding:"required,datetime=2006-01-02"`
}

func (r MealRequest) input() (service.MealInput, error) {
	begin, err := time.Parse(dateLayout, r.BeginDate)
	if err != nil {
		return service.MealInput{}, err
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return service.MealInput{}, err
	}
	return service.MealInput{
		Name:        r.Name,
		Description: r.Description,
		Zipcodes:    r.Zipcodes,
		BeginDate:   begin,
		EndDate:     end,
	}, nil
}

type PresignPhotosRequest struct {
	Files []service.PhotoRequest `json:"files" binding:"required,min=1,max=10,dive"`
}

func (ctrl *MealController) bindMeal(c *gin.Context) (service.MealInput, bool) {
	var req MealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid meal request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return service.MealInput{}, false
	}
	input, err := req.input()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "dates must be formatted as YYYY-MM-DD")
		return service.MealInput{}, false
	}
	return input, true
}

// GetMeal
// GET /api/v1/meals/:id
func (ctrl *MealController) GetMeal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	meal, err := ctrl.mealService.GetMeal(id)
	if err != nil {
		respondServiceError(c, err, "get meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meal": meal,
	})
}

// ListMine lists the calling chef's meals
// GET /api/v1/chef/meals
func (ctrl *MealController) ListMine(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	meals, err := ctrl.mealService.ListByChef(p.UserID)
	if err != nil {
		respondServiceError(c, err, "list meals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meals": meals,
		"count": len(meals),
	})
}

// CreateMeal
// POST /api/v1/chef/meals
func (ctrl *MealController) CreateMeal(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	input, ok := ctrl.bindMeal(c)
	if !ok {
		return
	}

	meal, err := ctrl.mealService.CreateMeal(p, input)
	if err != nil {
		respondServiceError(c, err, "create meal")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Meal created",
		"meal":    meal,
	})
}

// UpdateMeal replaces the meal details and zip codes
// PUT /api/v1/chef/meals/:id
func (ctrl *MealController) UpdateMeal(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	input, ok := ctrl.bindMeal(c)
	if !ok {
		return
	}

	meal, err := ctrl.mealService.EditMeal(p, id, input)
	if err != nil {
		respondServiceError(c, err, "update meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Meal updated",
		"meal":    meal,
	})
}

// DeleteMeal
// DELETE /api/v1/chef/meals/:id
func (ctrl *MealController) DeleteMeal(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.mealService.DeleteMeal(c.Request.Context(), p, id); err != nil {
		respondServiceError(c, err, "delete meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Meal deleted",
	})
}

// PresignPhotos returns one upload URL per file; failed files carry an error
// POST /api/v1/chef/meals/:id/photos
func (ctrl *MealController) PresignPhotos(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PresignPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	results, err := ctrl.mealService.PresignPhotos(c.Request.Context(), p, id, req.Files)
	if err != nil {
		respondServiceError(c, err, "presign photos")
		return
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"failed":  failed,
	})
}

// DeletePhoto
// DELETE /api/v1/chef/meals/:id/photos/:photo_id
func (ctrl *MealController) DeletePhoto(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	photoID, ok := parseIDParam(c, "photo_id")
	if !ok {
		return
	}

	if err := ctrl.mealService.DeletePhoto(c.Request.Context(), p, id, photoID); err != nil {
		respondServiceError(c, err, "delete photo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Photo deleted",
	})
}
