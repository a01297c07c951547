package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	"github.com/threemeal/threemeal-backend/internal/storage"
)

// respondServiceError maps a service error to its HTTP status and code.
// Unknown errors are parsed as database errors.
func respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	// 400
	case errors.Is(err, service.ErrWeakPassword):
		apperrors.BadRequest(c, apperrors.AuthWeakPassword, "Password must be at least 3 characters")
	case errors.Is(err, service.ErrPasswordTooLong):
		apperrors.BadRequest(c, apperrors.AuthPasswordTooLong, "Password must be at most 72 bytes")
	case errors.Is(err, service.ErrInvalidZipcode):
		apperrors.BadRequest(c, apperrors.ZipcodeInvalid, "Zip code must be exactly 5 digits")
	case errors.Is(err, service.ErrInvalidDateRange):
		apperrors.BadRequest(c, apperrors.MealInvalidDateRange, "End date must not be before begin date")
	case errors.Is(err, service.ErrMealNameRequired), errors.Is(err, service.ErrZipcodesRequired),
		errors.Is(err, service.ErrApplyContentMissing):
		apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
	case errors.Is(err, service.ErrInvalidMealFilter):
		apperrors.BadRequest(c, apperrors.MealInvalidFilter, err.Error())
	case errors.Is(err, service.ErrInvalidOrderFilter):
		apperrors.BadRequest(c, apperrors.OrderInvalidStatus, err.Error())
	case errors.Is(err, service.ErrInvalidApplyFilter):
		apperrors.BadRequest(c, apperrors.ApplyInvalidStatus, err.Error())
	case errors.Is(err, service.ErrInvalidResetToken):
		apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "Reset link is invalid or has expired")
	case errors.Is(err, storage.ErrUnsupportedContentType):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())

	// 401
	case errors.Is(err, service.ErrInvalidCredentials):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email, nickname or password")

	// 403
	case errors.Is(err, service.ErrForbidden):
		apperrors.Forbidden(c, "")

	// 404
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
	case errors.Is(err, service.ErrZipcodeNotFound):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Zip code not found")
	case errors.Is(err, service.ErrMealNotFound):
		apperrors.NotFound(c, apperrors.MealNotFound, "Meal not found")
	case errors.Is(err, service.ErrPhotoNotFound):
		apperrors.NotFound(c, apperrors.MealPhotoNotFound, "Photo not found")
	case errors.Is(err, service.ErrApplyNotFound):
		apperrors.NotFound(c, apperrors.ApplyNotFound, "No chef application found")
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")

	// 409
	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email already registered")
	case errors.Is(err, service.ErrNicknameAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthNicknameExists, "Nickname already in use")
	case errors.Is(err, service.ErrAlreadyApplied):
		apperrors.Conflict(c, apperrors.ApplyAlreadyApplied, "You have already applied, please wait for review")
	case errors.Is(err, service.ErrApplyAlreadyDecided):
		apperrors.Conflict(c, apperrors.ApplyAlreadyDecided, err.Error())
	case errors.Is(err, service.ErrUnsupportedZipcode):
		apperrors.Conflict(c, apperrors.ZipcodeUnsupported, "This meal is not offered in your zip code")
	case errors.Is(err, service.ErrCannotCancelHandled):
		apperrors.Conflict(c, apperrors.OrderCannotCancel, "The chef already handled this order")
	case errors.Is(err, service.ErrInvalidTransition):
		apperrors.Conflict(c, apperrors.OrderInvalidTransition, err.Error())

	default:
		log.Error("Request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// parseIDParam reads a positive integer path parameter, writing a 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentPrincipal returns the authenticated principal, writing a 401 when missing.
func currentPrincipal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok || !p.IsAuthenticated() {
		apperrors.Unauthorized(c, "")
		return model.Principal{}, false
	}
	return p, true
}
