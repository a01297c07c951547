package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/internal/app/controller"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	"github.com/threemeal/threemeal-backend/internal/db"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	"github.com/threemeal/threemeal-backend/internal/router"
	"github.com/threemeal/threemeal-backend/internal/scheduler"
	"github.com/threemeal/threemeal-backend/internal/session"
	"github.com/threemeal/threemeal-backend/internal/storage"
	ws "github.com/threemeal/threemeal-backend/internal/websocket"
	"github.com/threemeal/threemeal-backend/pkg/events"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"github.com/threemeal/threemeal-backend/pkg/mailer"
	"github.com/threemeal/threemeal-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting THREE MEAL Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedRoles(db.GetDB()); err != nil {
		logger.Fatal("Failed to seed roles", err)
	}

	// Session store: Redis when enabled, process memory otherwise
	sessions := session.NewMemoryStore()
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory sessions", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			sessions = session.NewRedisStore(redis.NewStore(redis.GetClient()))
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Infrastructure
	objectStorage := storage.NewS3Storage(
		context.Background(),
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)
	mail := mailer.New(cfg.Mail)
	publisher := events.New(cfg.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", err)
		}
	}()

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	roleRepo := repository.NewRoleRepository(database)
	zipRepo := repository.NewZipcodeRepository(database)
	mealRepo := repository.NewMealRepository(database)
	mzRepo := repository.NewMealZipcodeRepository(database)
	applyRepo := repository.NewChefApplyRepository(database)
	orderRepo := repository.NewOrderRepository(database)

	// Initialize services
	authService := service.NewAuthService(
		database,
		userRepo,
		roleRepo,
		mail,
		sessions,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
	)
	passwordResetService := service.NewPasswordResetService(
		userRepo,
		mail,
		cfg.JWT.Secret,
		cfg.JWT.ResetTokenExpiry,
		cfg.Server.FrontendURL,
	)
	zipService := service.NewZipcodeService(database, zipRepo, sessions)
	mealService := service.NewMealService(database, mealRepo, mzRepo, zipService, objectStorage)
	applyService := service.NewChefApplyService(database, applyRepo, userRepo, roleRepo)
	orderService := service.NewOrderService(
		database,
		orderRepo,
		mealRepo,
		zipRepo,
		mzRepo,
		mail,
		publisher,
		hub,
	)

	if _, err := authService.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Warn("Failed to ensure administrator account", map[string]interface{}{
			"email": cfg.Admin.Email,
			"error": err.Error(),
		})
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService, passwordResetService)
	zipcodeController := controller.NewZipcodeController(zipService, mealService)
	mealController := controller.NewMealController(mealService)
	chefApplyController := controller.NewChefApplyController(applyService)
	orderController := controller.NewOrderController(orderService, zipService)
	adminController := controller.NewAdminController(mealService, applyService)
	notificationController := controller.NewNotificationController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, authService, sessions)

	// Setup router
	r := router.NewRouter(
		authController,
		zipcodeController,
		mealController,
		chefApplyController,
		orderController,
		adminController,
		notificationController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Background order maintenance
	if cfg.Scheduler.Enabled {
		orderScheduler := scheduler.NewOrderScheduler(orderService, cfg.Scheduler)
		if err := orderScheduler.Start(); err != nil {
			logger.Fatal("Failed to start order scheduler", err)
		}
		defer orderScheduler.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
