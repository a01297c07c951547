package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	"github.com/threemeal/threemeal-backend/internal/db"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	"github.com/threemeal/threemeal-backend/internal/session"
	"github.com/threemeal/threemeal-backend/internal/storage"
	"github.com/threemeal/threemeal-backend/internal/validation"
	ws "github.com/threemeal/threemeal-backend/internal/websocket"
	"github.com/threemeal/threemeal-backend/pkg/events"
	"github.com/threemeal/threemeal-backend/pkg/mailer"
	"github.com/threemeal/threemeal-backend/pkg/util"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type stubStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (s *stubStorage) PresignUpload(_ context.Context, folder, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if err := storage.ValidateContentType(contentType, storage.AllowedImageTypes); err != nil {
		return nil, err
	}
	key := folder + "/" + filename
	return &storage.PresignedURLResponse{
		UploadURL: "https://uploads.test/" + key + "?signature=x",
		FileURL:   "https://cdn.test/" + key,
		Key:       key,
	}, nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	storage  *stubStorage
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

// setupControllerTest wires every controller onto real services backed by
// an in-memory database, mirroring the production route table.
func setupControllerTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	sessions := session.NewMemoryStore()
	objects := &stubStorage{}
	mail := mailer.New(config.MailConfig{SubjectPrefix: "[Three Meal]"})

	userRepo := repository.NewUserRepository(testDB)
	roleRepo := repository.NewRoleRepository(testDB)
	zipRepo := repository.NewZipcodeRepository(testDB)
	mealRepo := repository.NewMealRepository(testDB)
	mzRepo := repository.NewMealZipcodeRepository(testDB)

	authService := service.NewAuthService(testDB, userRepo, roleRepo, mail, sessions, testSecret, time.Hour)
	resetService := service.NewPasswordResetService(userRepo, mail, testSecret, time.Hour, "http://localhost:3000")
	zipService := service.NewZipcodeService(testDB, zipRepo, sessions)
	mealService := service.NewMealService(testDB, mealRepo, mzRepo, zipService, objects)
	applyService := service.NewChefApplyService(testDB, repository.NewChefApplyRepository(testDB), userRepo, roleRepo)
	orderService := service.NewOrderService(
		testDB,
		repository.NewOrderRepository(testDB),
		mealRepo,
		zipRepo,
		mzRepo,
		mail,
		events.NoopPublisher{},
		ws.NoopNotifier{},
	)

	authCtrl := NewAuthController(authService, resetService)
	zipCtrl := NewZipcodeController(zipService, mealService)
	mealCtrl := NewMealController(mealService)
	applyCtrl := NewChefApplyController(applyService)
	orderCtrl := NewOrderController(orderService, zipService)
	adminCtrl := NewAdminController(mealService, applyService)

	authMiddleware := middleware.NewAuthMiddleware(testSecret, authService, sessions)
	authed := authMiddleware.Authenticate()
	chefOnly := authMiddleware.RequireRole(model.RoleChef, model.RoleAdmin)
	adminOnly := authMiddleware.RequireRole(model.RoleAdmin)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", authCtrl.Register)
	v1.POST("/auth/login", authCtrl.Login)
	v1.POST("/auth/forgot-password", authCtrl.ForgotPassword)
	v1.POST("/auth/reset-password", authCtrl.ResetPassword)
	v1.GET("/auth/me", authed, authCtrl.GetMe)
	v1.PUT("/auth/me", authed, authCtrl.UpdateMe)
	v1.PUT("/auth/password", authed, authCtrl.ChangePassword)
	v1.POST("/auth/logout", authed, authCtrl.Logout)

	v1.GET("/zipcode", zipCtrl.Current)
	v1.POST("/zipcode", zipCtrl.Select)
	v1.GET("/menu/:zipcode", zipCtrl.Menu)

	v1.GET("/meals/:id", mealCtrl.GetMeal)
	v1.POST("/meals/:id/orders", authed, orderCtrl.PlaceOrder)

	chef := v1.Group("/chef", authed)
	chef.POST("/apply", applyCtrl.Apply)
	chef.GET("/apply", applyCtrl.Status)
	chef.GET("/meals", chefOnly, mealCtrl.ListMine)
	chef.POST("/meals", chefOnly, mealCtrl.CreateMeal)
	chef.PUT("/meals/:id", mealCtrl.UpdateMeal)
	chef.DELETE("/meals/:id", mealCtrl.DeleteMeal)
	chef.POST("/meals/:id/photos", mealCtrl.PresignPhotos)
	chef.DELETE("/meals/:id/photos/:photo_id", mealCtrl.DeletePhoto)
	chef.GET("/orders/:status", chefOnly, orderCtrl.ListForChef)
	chef.PUT("/orders/:id", orderCtrl.ChefUpdateStatus)
	chef.GET("/dashboard", chefOnly, orderCtrl.Dashboard)

	client := v1.Group("/client", authed)
	client.GET("/orders", orderCtrl.ListForCustomer)
	client.GET("/orders/:id", orderCtrl.GetOrder)
	client.GET("/orders/:id/history", orderCtrl.History)
	client.PUT("/orders/:id", orderCtrl.CustomerEdit)

	admin := v1.Group("/admin", authed, adminOnly)
	admin.GET("/meals/:status", adminCtrl.ListMeals)
	admin.PUT("/meals/:id/featured", adminCtrl.SetFeatured)
	admin.GET("/applies", adminCtrl.ListApplies)
	admin.GET("/applies/:id", adminCtrl.GetApply)
	admin.PUT("/applies/:id/approve", adminCtrl.Approve)
	admin.PUT("/applies/:id/refuse", adminCtrl.Refuse)

	return &testEnv{
		router:   router,
		db:       testDB,
		storage:  objects,
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// createUser inserts a user with password "secret" and returns an access token.
func (e *testEnv) createUser(t *testing.T, nickname string, roles ...model.RoleName) (*model.User, string) {
	t.Helper()

	hashed, err := util.HashPassword("secret")
	require.NoError(t, err)
	user := &model.User{
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: hashed,
	}
	require.NoError(t, e.userRepo.Create(user))
	for _, name := range roles {
		role, err := e.roleRepo.GetOrCreate(name)
		require.NoError(t, err)
		require.NoError(t, e.userRepo.AddRole(user.ID, role))
	}

	token, err := util.GenerateAccessToken(user.ID, user.Email, nil, testSecret, time.Hour)
	require.NoError(t, err)
	return user, token
}

type requestOption func(*http.Request)

func withCookies(cookies []*http.Cookie) requestOption {
	return func(req *http.Request) {
		for _, c := range cookies {
			req.AddCookie(c)
		}
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func mealBody(name string, zipcodes ...string) gin.H {
	return gin.H{
		"name":        name,
		"description": "home cooked",
		"zipcodes":    zipcodes,
		"begin_date":  "2026-01-01",
		"end_date":    "2026-01-31",
	}
}

// createMeal posts a meal as the given chef and returns its id.
func (e *testEnv) createMeal(t *testing.T, token, name string, zipcodes ...string) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/chef/meals", token, mealBody(name, zipcodes...))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	meal := decode(t, w)["meal"].(map[string]interface{})
	return uint(meal["id"].(float64))
}
