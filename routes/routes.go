package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yotereparo-backend/config"
	"yotereparo-backend/controllers"
	"yotereparo-backend/utils"
)

// Handlers groups the controllers mounted by SetupRouter.
type Handlers struct {
	Auth     *controllers.AuthController
	Services *controllers.ServiceController
	Catalog  *controllers.CatalogController
}

func SetupRouter(cfg config.ServerConfig, issuer *utils.JWTIssuer, h Handlers, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(log, cfg.SlowRequest))

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		auth.Use(utils.AuthMiddleware(issuer))
		auth.GET("/me", h.Auth.Me)
		auth.GET("/profile", h.Auth.Me)
		auth.PUT("/profile", h.Auth.UpdateProfile)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(issuer))
	{
		// Service routes
		services := api.Group("/services")
		{
			services.POST("", h.Services.CreateService)
			services.GET("", h.Services.GetServices)
			services.GET("/:id", h.Services.GetService)
			services.PUT("/:id", h.Services.UpdateService)
			services.PUT("/:id/enable", h.Services.EnableService)
			services.PUT("/:id/disable", h.Services.DisableService)
			services.DELETE("/:id", h.Services.DeleteService)
		}

		// Catalogue routes
		api.GET("/service-types", h.Catalog.GetServiceTypes)
		api.GET("/payment-methods", h.Catalog.GetPaymentMethods)
	}

	return r
}
