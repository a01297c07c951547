package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	"github.com/threemeal/threemeal-backend/internal/session"
)

const dateLayout = "2006-01-02"

type ZipcodeController struct {
	zipService  service.ZipcodeService
	mealService service.MealService
}

func NewZipcodeController(zipService service.ZipcodeService, mealService service.MealService) *ZipcodeController {
	return &ZipcodeController{
		zipService:  zipService,
		mealService: mealService,
	}
}

type ZipcodeRequest struct {
	Zipcode string `json:"zipcode" form:"zipcode" binding:"required,zipcode"`
}

// sessionID returns the browser session id, issuing a cookie when there is none.
func sessionID(c *gin.Context) string {
	if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, int(session.TTL/time.Second), "/", "", false, true)
	return id
}

// Current returns the remembered zip code, or captures ?zipcode= like Select
// GET /api/v1/zipcode
func (ctrl *ZipcodeController) Current(c *gin.Context) {
	if c.Query("zipcode") != "" {
		ctrl.Select(c)
		return
	}

	id, _ := c.Cookie(session.CookieName)
	code, err := ctrl.zipService.Remembered(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "read session zip code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"zipcode": code,
	})
}

// Select stores the zip code on the session and redirects to its menu
// POST /api/v1/zipcode
func (ctrl *ZipcodeController) Select(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ZipcodeRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid zip code submitted", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.zipService.Remember(c.Request.Context(), sessionID(c), req.Zipcode); err != nil {
		respondServiceError(c, err, "remember zip code")
		return
	}

	c.Redirect(http.StatusSeeOther, "/api/v1/menu/"+req.Zipcode)
}

// Menu lists meals served in a zip code, optionally on one day
// GET /api/v1/menu/:zipcode?date=YYYY-MM-DD
func (ctrl *ZipcodeController) Menu(c *gin.Context) {
	code := c.Param("zipcode")

	var on *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "date must be formatted as YYYY-MM-DD")
			return
		}
		on = &d
	}

	meals, err := ctrl.mealService.ListForZipcode(code, on)
	if err != nil {
		respondServiceError(c, err, "list menu")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"zipcode": code,
		"meals":   meals,
		"count":   len(meals),
	})
}
