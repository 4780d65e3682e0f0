// Package router wires handlers, guards and cross-cutting middleware
// onto an echo instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/agrodesk/internal/config"
	"github.com/iliyamo/agrodesk/internal/handler"
	"github.com/iliyamo/agrodesk/internal/metrics"
	"github.com/iliyamo/agrodesk/internal/middleware"
	"github.com/iliyamo/agrodesk/internal/model"
)

// Deps is everything the routes need.
type Deps struct {
	Config  config.Config
	Logger  *slog.Logger
	Redis   *redis.Client // optional
	DB      handler.Pinger
	Auth    *handler.AuthHandler
	Reports *handler.ReportHandler
	Crops   *handler.CropHandler
	Alerts  *handler.AlertHandler
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: d.Config.CORSOrigins}))
	e.Use(echomw.BodyLimit("2M"))
	e.Use(middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Config.JWTSecret))

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.Config.JWTSecret)
	RegisterReports(e, d.Reports, d.Config.JWTSecret)
	RegisterCrops(e, d.Crops, d.Config.JWTSecret)
	RegisterAlerts(e, d.Alerts, d.Config.JWTSecret, middleware.NewRedisCache(d.Config.Cache, d.Redis))
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers signup, login, session and profile routes.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/users")
	g.POST("/signup/user", a.SignupUser)
	g.POST("/signup/admin", a.SignupAdmin)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout parses the bearer itself so a refresh token alone is enough.
	g.POST("/logout", a.Logout)
	g.GET("/profile", a.Profile, middleware.JWTAuth(jwtSecret))
}

// RegisterReports registers the report routes. Replying and area listing
// are admin only.
func RegisterReports(e *echo.Echo, h *handler.ReportHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)
	admin := middleware.RequireRole(model.RoleAdmin)

	e.POST("/report", h.Create, auth)
	e.GET("/report", h.ListOwn, auth)
	e.POST("/report/image", h.PresignImage, auth)
	e.POST("/reply", h.Reply, auth, admin)
	e.POST("/get-reports-from-area", h.ListByArea, auth, admin)
}

func RegisterCrops(e *echo.Echo, h *handler.CropHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)
	e.POST("/crop", h.Create, auth)
	e.GET("/crop", h.List, auth)
}

// RegisterAlerts registers alert routes. Reads are public and cached.
func RegisterAlerts(e *echo.Echo, h *handler.AlertHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.POST("/alert", h.Create, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	e.GET("/alert", h.List, cache)
}
