package router

import (
	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/internal/app/controller"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	"github.com/threemeal/threemeal-backend/internal/validation"
)

type Router struct {
	authController         *controller.AuthController
	zipcodeController      *controller.ZipcodeController
	mealController         *controller.MealController
	chefApplyController    *controller.ChefApplyController
	orderController        *controller.OrderController
	adminController        *controller.AdminController
	notificationController *controller.NotificationController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	zipcodeController *controller.ZipcodeController,
	mealController *controller.MealController,
	chefApplyController *controller.ChefApplyController,
	orderController *controller.OrderController,
	adminController *controller.AdminController,
	notificationController *controller.NotificationController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		zipcodeController:      zipcodeController,
		mealController:         mealController,
		chefApplyController:    chefApplyController,
		orderController:        orderController,
		adminController:        adminController,
		notificationController: notificationController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	validation.Register()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "THREE MEAL API is running",
		})
	})

	authenticated := r.authMiddleware.Authenticate()
	chefOnly := r.authMiddleware.RequireRole(model.RoleChef, model.RoleAdmin)
	adminOnly := r.authMiddleware.RequireRole(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.GET("/me", authenticated, r.authController.GetMe)
			auth.PUT("/me", authenticated, r.authController.UpdateMe)
			auth.PUT("/password", authenticated, r.authController.ChangePassword)
			auth.POST("/logout", authenticated, r.authController.Logout)
		}

		v1.GET("/zipcode", r.zipcodeController.Current)
		v1.POST("/zipcode", r.zipcodeController.Select)
		v1.GET("/menu/:zipcode", r.zipcodeController.Menu)

		meals := v1.Group("/meals")
		{
			meals.GET("/:id", r.mealController.GetMeal)
			meals.POST("/:id/orders", authenticated, r.orderController.PlaceOrder)
		}

		chef := v1.Group("/chef")
		chef.Use(authenticated)
		{
			chef.POST("/apply", r.chefApplyController.Apply)
			chef.GET("/apply", r.chefApplyController.Status)

			chef.GET("/meals", chefOnly, r.mealController.ListMine)
			chef.POST("/meals", chefOnly, r.mealController.CreateMeal)
			// ownership is checked by the meal service so admins can act on any meal
			chef.PUT("/meals/:id", r.mealController.UpdateMeal)
			chef.DELETE("/meals/:id", r.mealController.DeleteMeal)
			chef.POST("/meals/:id/photos", r.mealController.PresignPhotos)
			chef.DELETE("/meals/:id/photos/:photo_id", r.mealController.DeletePhoto)

			chef.GET("/orders/:status", chefOnly, r.orderController.ListForChef)
			chef.PUT("/orders/:id", r.orderController.ChefUpdateStatus)
			chef.GET("/dashboard", chefOnly, r.orderController.Dashboard)
		}

		client := v1.Group("/client")
		client.Use(authenticated)
		{
			client.GET("/orders", r.orderController.ListForCustomer)
			client.GET("/orders/:id", r.orderController.GetOrder)
			client.GET("/orders/:id/history", r.orderController.History)
			client.PUT("/orders/:id", r.orderController.CustomerEdit)
		}

		admin := v1.Group("/admin")
		admin.Use(authenticated, adminOnly)
		{
			admin.GET("/meals/:status", r.adminController.ListMeals)
			admin.PUT("/meals/:id/featured", r.adminController.SetFeatured)
			admin.GET("/applies", r.adminController.ListApplies)
			admin.GET("/applies/:id", r.adminController.GetApply)
			admin.PUT("/applies/:id/approve", r.adminController.Approve)
			admin.PUT("/applies/:id/refuse", r.adminController.Refuse)
		}

		v1.GET("/ws/notifications", authenticated, r.notificationController.Connect)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
