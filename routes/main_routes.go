package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/controllers"
	"github.com/HSouheill/taskreward_backend/metrics"
	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
)

// Handlers bundles everything the route registration functions need
type Handlers struct {
	Guard       *middleware.SessionGuard
	AdminPrefix string

	Auth    *controllers.AuthController
	Task    *controllers.TaskController
	Wallet  *controllers.WalletController
	Account *controllers.AccountController
	Admin   *controllers.AdminController

	// Ping reports whether the backing store is reachable
	Ping func(ctx context.Context) error
}

// SetupRoutes configures all routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, h Handlers) {
	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		status := "connected"
		if h.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := h.Ping(ctx); err != nil {
				c.Logger().Warnf("health check failed: %v", err)
				return c.JSON(http.StatusServiceUnavailable, models.Response{
					Status:  http.StatusServiceUnavailable,
					Message: "unhealthy",
					Data:    map[string]string{"database": "unreachable"},
				})
			}
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "healthy",
			Data:    map[string]string{"database": status},
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	RegisterAuthRoutes(e, h.Auth)
	RegisterUserRoutes(e, h.Guard, h.Task, h.Wallet, h.Account)
	RegisterAdminRoutes(e, h.AdminPrefix, h.Guard, h.Admin)
}
