package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/controllers"
	"github.com/HSouheill/taskreward_backend/middleware"
)

// RegisterUserRoutes sets up every route that needs a signed-in, non-banned user
func RegisterUserRoutes(e *echo.Echo, guard *middleware.SessionGuard, taskController *controllers.TaskController, walletController *controllers.WalletController, accountController *controllers.AccountController) {
	user := e.Group("")
	user.Use(guard.RequireLogin())

	user.GET("/dashboard", accountController.Dashboard)
	user.GET("/kyc", accountController.KYCPage)
	user.POST("/submit_kyc", accountController.SubmitKYC)
	user.GET("/referral/qrcode", accountController.ReferralQRCode)
	user.GET("/notice", accountController.Notices)
	user.POST("/notice", accountController.PublishNotice)

	user.GET("/tasks", taskController.ListTasks)
	user.POST("/tasks", taskController.SubmitTask)

	user.GET("/withdraw", walletController.WithdrawPage)
	user.POST("/withdraw", walletController.Withdraw)
	user.GET("/activation", walletController.ActivationPage)
	user.POST("/submit_activation", walletController.SubmitActivation)
}
