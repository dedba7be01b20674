package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/controllers"
)

// RegisterAuthRoutes sets up the sign-in and logout routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.GET("/auth", authController.AuthPage)
	e.POST("/session_login", authController.SessionLogin)
	e.Match([]string{"GET", "POST"}, "/logout", authController.Logout)
}
