package api

import (
	"shelf/internal/server/auth"
	"shelf/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, authn *auth.Authenticator, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	e.Use(RequestLogger())

	// Rate limiter on the credential-facing and write-heavy endpoints
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	admin := RequireAdmin(authn)

	e.GET("/health", handler.HandleHealth)

	api := e.Group("/api")
	api.GET("/stats", handler.HandleStats)

	// Auth
	api.POST("/auth/login", handler.HandleLogin, limiter.Middleware())
	api.GET("/auth/verify", handler.HandleVerify)

	// Documents
	pdfs := api.Group("/pdfs")
	pdfs.GET("", handler.HandleList)
	pdfs.GET("/:id", handler.HandleGet)
	pdfs.GET("/file/:filename", handler.HandleFile)
	pdfs.GET("/download/:filename", handler.HandleDownload)
	pdfs.POST("/upload", handler.HandleUpload, admin, limiter.Middleware())
	pdfs.DELETE("/:id", handler.HandleDelete, admin)

	return e
}
