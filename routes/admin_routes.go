package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/controllers"
	"github.com/HSouheill/taskreward_backend/middleware"
)

// RegisterAdminRoutes sets up all admin routes under the configured prefix
func RegisterAdminRoutes(e *echo.Echo, prefix string, guard *middleware.SessionGuard, adminController *controllers.AdminController) {
	getOrPost := []string{"GET", "POST"}

	admin := e.Group(prefix)
	admin.Use(guard.RequireAdmin())

	admin.GET("", adminController.Console)
	admin.POST("", adminController.ConsoleAction)

	// Tasks
	admin.POST("/tasks", adminController.CreateTask)
	admin.DELETE("/tasks/:id", adminController.DeleteTask)
	admin.Match(getOrPost, "/approve_task/:id", adminController.ApproveTask)
	admin.Match(getOrPost, "/reject_task/:id", adminController.RejectTask)
	admin.POST("/bulk_approve", adminController.BulkApprove)

	// Withdrawals and activation
	admin.Match(getOrPost, "/approve_withdraw/:id", adminController.ApproveWithdraw)
	admin.Match(getOrPost, "/reject_withdraw/:id", adminController.RejectWithdraw)
	admin.Match(getOrPost, "/approve_activation/:id", adminController.ApproveActivation)

	// Users
	admin.GET("/users", adminController.Users)
	admin.Match(getOrPost, "/ban_user/:uid", adminController.BanUser)
	admin.Match(getOrPost, "/unban_user/:uid", adminController.UnbanUser)
	admin.Match(getOrPost, "/delete_user/:uid", adminController.DeleteUser)
	admin.GET("/ledger/:uid", adminController.LedgerAudit)

	// Live feed of new submissions and requests
	admin.GET("/ws", adminController.LiveFeed)
}
