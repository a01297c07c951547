package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/util"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type stubPrincipals map[uint][]model.RoleName

func (s stubPrincipals) LoadPrincipal(userID uint) (model.Principal, error) {
	roles, ok := s[userID]
	if !ok {
		return model.Principal{}, errors.New("user not found")
	}
	return model.Principal{UserID: userID, Roles: roles}, nil
}

type stubRevocations map[string]bool

func (s stubRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	return s[token], nil
}

func setupMiddlewareTest() (*gin.Engine, *AuthMiddleware, stubPrincipals, stubRevocations) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	principals := stubPrincipals{
		1: {model.RoleCustomer},
		2: {model.RoleCustomer, model.RoleChef},
	}
	revoked := stubRevocations{}
	return router, NewAuthMiddleware(testJWTSecret, principals, revoked), principals, revoked
}

func generateTestToken(t *testing.T, userID uint, expiry time.Duration) string {
	token, err := util.GenerateAccessToken(userID, "user@example.com", []string{"customer"}, testJWTSecret, expiry)
	require.NoError(t, err)
	return token
}

func serve(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, authMiddleware, _, _ := setupMiddlewareTest()
	token := generateTestToken(t, 2, 15*time.Minute)

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		userID, _ := GetUserID(c)
		raw, expiresAt, ok := GetAccessToken(c)
		require.True(t, ok)
		assert.Equal(t, token, raw)
		assert.True(t, expiresAt.After(time.Now()))
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "chef": p.HasRole(model.RoleChef)})
	})

	w := serve(router, "/test", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":2,"chef":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_RolesComeFromLoaderNotToken(t *testing.T) {
	router, authMiddleware, principals, _ := setupMiddlewareTest()
	token := generateTestToken(t, 1, 15*time.Minute)

	router.GET("/chef", authMiddleware.Authenticate(), authMiddleware.RequireRole(model.RoleChef), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusForbidden, serve(router, "/chef", token).Code)

	principals[1] = []model.RoleName{model.RoleCustomer, model.RoleChef}
	assert.Equal(t, http.StatusOK, serve(router, "/chef", token).Code)
}

func TestAuthMiddleware_Authenticate_Failures(t *testing.T) {
	router, authMiddleware, _, revoked := setupMiddlewareTest()
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	revokedToken := generateTestToken(t, 1, 15*time.Minute)
	revoked[revokedToken] = true

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing token", "", "AUTH_UNAUTHORIZED"},
		{"bad scheme", "Basic abc", "AUTH_TOKEN_INVALID"},
		{"garbage token", "Bearer abc", "AUTH_TOKEN_INVALID"},
		{"expired token", "Bearer " + generateTestToken(t, 1, -time.Minute), "AUTH_TOKEN_EXPIRED"},
		{"revoked token", "Bearer " + revokedToken, "AUTH_TOKEN_REVOKED"},
		{"unknown user", "Bearer " + generateTestToken(t, 99, 15*time.Minute), "AUTH_UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestAuthMiddleware_TokenFromQuery(t *testing.T) {
	router, authMiddleware, _, _ := setupMiddlewareTest()
	router.GET("/ws", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/ws?token="+generateTestToken(t, 1, time.Minute), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RequireRoleWithoutPrincipal(t *testing.T) {
	router, authMiddleware, _, _ := setupMiddlewareTest()
	router.GET("/admin", authMiddleware.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/admin", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_ROLE_NOT_FOUND")
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	router, _, _, _ := setupMiddlewareTest()
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
