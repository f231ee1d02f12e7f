package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grimoire-backend/internal/shared/middleware"
	"grimoire-backend/pkg/container"
)

// SetupRouter builds the route tree.
// Reads are public; every mutating route requires a bearer token.
func SetupRouter(c *container.Container) *gin.Engine {
	if c.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	router.GET("/health", healthCheck(c))

	api := router.Group("/api")
	auth := middleware.Auth(c.JWTManager)

	// Auth
	api.POST("/auth/signup", c.UserHandler.Signup)
	api.POST("/auth/login", c.UserHandler.Login)

	// Books. The bestrating route is registered before the :id routes
	// so gin does not treat "bestrating" as a book id.
	books := api.Group("/books")
	{
		books.GET("", c.BookHandler.List)
		books.GET("/bestrating", c.BookHandler.BestRated)
		books.GET("/:id", c.BookHandler.Get)

		books.POST("", auth, c.BookHandler.Create)
		books.PUT("/:id", auth, c.BookHandler.Update)
		books.DELETE("/:id", auth, c.BookHandler.Delete)
		books.POST("/:id/rating", auth, c.BookHandler.Rate)
	}

	return router
}

func healthCheck(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checks := gin.H{"database": "ok", "cache": "ok", "storage": "ok"}
		healthy := true

		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if err := c.Cache.Ping(ctx.Request.Context()); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}
		if err := c.Storage.HealthCheck(ctx.Request.Context()); err != nil {
			checks["storage"] = err.Error()
			healthy = false
		}

		status := http.StatusOK
		overall := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}

		ctx.JSON(status, gin.H{
			"status":  overall,
			"version": c.Config.App.Version,
			"checks":  checks,
		})
	}
}
