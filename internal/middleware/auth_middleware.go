package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/errors"
	"github.com/threemeal/threemeal-backend/pkg/util"
)

// Context keys for the authenticated request
const (
	PrincipalKey      = "principal"
	UserIDKey         = "user_id"
	AccessTokenKey    = "access_token"
	TokenExpiresAtKey = "token_expires_at"
)

// PrincipalLoader resolves the current roles of a user on every request.
type PrincipalLoader interface {
	LoadPrincipal(userID uint) (model.Principal, error)
}

// RevocationChecker reports whether a token was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret  string
	principals PrincipalLoader
	revoked    RevocationChecker
}

func NewAuthMiddleware(jwtSecret string, principals PrincipalLoader, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  jwtSecret,
		principals: principals,
		revoked:    revoked,
	}
}

// Authenticate validates the bearer token (or ?token= for websockets) and
// loads the principal from the database.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "invalid authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "login required")
				c.Abort()
				return
			}
			log.Debug("Using token from query parameter", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "login expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "invalid access token")
			}
			c.Abort()
			return
		}

		revoked, err := m.revoked.IsRevoked(c.Request.Context(), token)
		if err != nil {
			log.Error("Failed to check token revocation", err)
			errors.InternalError(c, "failed to verify session")
			c.Abort()
			return
		}
		if revoked {
			log.Warn("Revoked token used", map[string]interface{}{
				"user_id": claims.UserID,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "session has been logged out")
			c.Abort()
			return
		}

		principal, err := m.principals.LoadPrincipal(claims.UserID)
		if err != nil {
			log.Warn("Failed to load principal", map[string]interface{}{
				"user_id": claims.UserID,
				"error":   err.Error(),
			})
			errors.Unauthorized(c, "account no longer exists")
			c.Abort()
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(UserIDKey, principal.UserID)
		c.Set(AccessTokenKey, token)
		if claims.ExpiresAt != nil {
			c.Set(TokenExpiresAtKey, claims.ExpiresAt.Time)
		}

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": principal.UserID,
			"roles":   principal.Roles,
		})

		c.Next()
	}
}

// RequireRole lets the request through when the principal holds any of roles.
func (m *AuthMiddleware) RequireRole(roles ...model.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		principal, ok := GetPrincipal(c)
		if !ok {
			log.Warn("Principal not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "missing role information")
			c.Abort()
			return
		}

		for _, r := range roles {
			if principal.HasRole(r) {
				c.Next()
				return
			}
		}

		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        principal.UserID,
			"user_roles":     principal.Roles,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.Forbidden(c, "permission denied")
		c.Abort()
	}
}

// GetPrincipal returns the principal set by Authenticate.
func GetPrincipal(c *gin.Context) (model.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetAccessToken returns the raw token and its expiry.
func GetAccessToken(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(AccessTokenKey)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, c.GetTime(TokenExpiresAtKey), true
}
