package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
)

type AdminController struct {
	mealService  service.MealService
	applyService service.ChefApplyService
}

func NewAdminController(mealService service.MealService, applyService service.ChefApplyService) *AdminController {
	return &AdminController{
		mealService:  mealService,
		applyService: applyService,
	}
}

type FeatureRequest struct {
	Featured *bool `json:"featured" binding:"required"`
}

// ListMeals
// GET /api/v1/admin/meals/:status?zipcode=
func (ctrl *AdminController) ListMeals(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	filter, err := service.ParseMealListFilter(c.Param("status"))
	if err != nil {
		respondServiceError(c, err, "list meals")
		return
	}

	meals, err := ctrl.mealService.ListForAdmin(p, filter, c.Query("zipcode"))
	if err != nil {
		respondServiceError(c, err, "list meals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meals": meals,
		"count": len(meals),
	})
}

// SetFeatured
// PUT /api/v1/admin/meals/:id/featured
func (ctrl *AdminController) SetFeatured(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	meal, err := ctrl.mealService.SetFeatured(p, id, *req.Featured)
	if err != nil {
		respondServiceError(c, err, "update meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meal": meal,
	})
}

// ListApplies
// GET /api/v1/admin/applies?status=waiting
func (ctrl *AdminController) ListApplies(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	status, err := service.ParseApplyFilter(c.DefaultQuery("status", "all"))
	if err != nil {
		respondServiceError(c, err, "list applications")
		return
	}

	applies, err := ctrl.applyService.ListApplies(p, status)
	if err != nil {
		respondServiceError(c, err, "list applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applies": applies,
		"count":   len(applies),
	})
}

// GetApply
// GET /api/v1/admin/applies/:id
func (ctrl *AdminController) GetApply(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	apply, err := ctrl.applyService.GetApply(p, id)
	if err != nil {
		respondServiceError(c, err, "get application")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"apply": apply,
	})
}

// Approve
// PUT /api/v1/admin/applies/:id/approve
func (ctrl *AdminController) Approve(c *gin.Context) {
	ctrl.decide(c, ctrl.applyService.Approve, "approve application")
}

// Refuse
// PUT /api/v1/admin/applies/:id/refuse
func (ctrl *AdminController) Refuse(c *gin.Context) {
	ctrl.decide(c, ctrl.applyService.Refuse, "refuse application")
}

func (ctrl *AdminController) decide(c *gin.Context, fn func(p model.Principal, id uint) (*model.ChefApply, error), action string) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	apply, err := fn(p, id)
	if err != nil {
		respondServiceError(c, err, action)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"apply": apply,
	})
}
