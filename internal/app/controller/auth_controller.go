package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
	"github.com/threemeal/threemeal-backend/internal/middleware"
)

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
}

func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService) *AuthController {
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
	}
}

type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required,min=1,max=64"`
	Email    string `json:"email" binding:"required,email,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // email or nickname
	Password   string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Nickname string `json:"nickname" binding:"omitempty,max=64"`
	AboutMe  string `json:"about_me" binding:"max=1024"`
	Avatar   string `json:"avatar" binding:"omitempty,url"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=72"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"new_password" binding:"required,max=72"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"nickname":   user.Nickname,
		"email":      user.Email,
		"avatar":     user.Avatar,
		"about_me":   user.AboutMe,
		"last_seen":  user.LastSeen,
		"roles":      user.RoleNames(),
		"created_at": user.CreatedAt,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, token, err := ctrl.authService.Register(c.Request.Context(), req.Nickname, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "User registered successfully",
		"user":         userResponse(user),
		"access_token": token,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, token, err := ctrl.authService.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         userResponse(user),
		"access_token": token,
	})
}

// GetMe returns the current user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(p.UserID)
	if err != nil {
		respondServiceError(c, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateMe updates the current user's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, err := ctrl.authService.UpdateProfile(p.UserID, service.ProfileInput{
		Nickname: req.Nickname,
		AboutMe:  req.AboutMe,
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondServiceError(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your profile has been updated",
		"user":    userResponse(user),
	})
}

// ChangePassword
// PUT /api/v1/auth/password
func (ctrl *AuthController) ChangePassword(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.authService.ChangePassword(p.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your password has been updated",
	})
}

// Logout revokes the presented token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	token, expiresAt, ok := middleware.GetAccessToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token, expiresAt); err != nil {
		respondServiceError(c, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You have been logged out",
	})
}

// ForgotPassword mails a reset link; the response never reveals whether the email exists
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.passwordResetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err, "request password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "An email with instructions to reset your password has been sent to you",
	})
}

// ResetPassword
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.passwordResetService.ResetPassword(req.Token, req.Email, req.NewPassword); err != nil {
		respondServiceError(c, err, "reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your password has been updated",
	})
}
