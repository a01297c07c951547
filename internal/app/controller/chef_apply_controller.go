package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
)

type ChefApplyController struct {
	applyService service.ChefApplyService
}

func NewChefApplyController(applyService service.ChefApplyService) *ChefApplyController {
	return &ChefApplyController{
		applyService: applyService,
	}
}

type ApplyRequest struct {
	Content string `json:"content" binding:"required,max=4096"`
}

// Apply submits a chef application
// POST /api/v1/chef/apply
func (ctrl *ChefApplyController) Apply(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	apply, err := ctrl.applyService.Apply(p.UserID, req.Content)
	if err != nil {
		respondServiceError(c, err, "submit chef application")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Your application has been submitted",
		"apply":   apply,
	})
}

// Status returns the caller's latest application
// GET /api/v1/chef/apply
func (ctrl *ChefApplyController) Status(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	apply, err := ctrl.applyService.StatusFor(p.UserID)
	if err != nil {
		respondServiceError(c, err, "get chef application")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"apply": apply,
	})
}
