package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/services"
)

// ActivationInfo is shown to users who still need to activate their account.
type ActivationInfo struct {
	Fee    float64 `json:"fee"`
	Number string  `json:"number"`
}

type WalletController struct {
	wallet     *services.WalletService
	activation ActivationInfo
}

func NewWalletController(wallet *services.WalletService, activation ActivationInfo) *WalletController {
	return &WalletController{wallet: wallet, activation: activation}
}

// WithdrawPage returns balance, thresholds and recent requests
func (wc *WalletController) WithdrawPage(c echo.Context) error {
	overview, err := wc.wallet.Overview(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to load withdrawals")
	}
	return respond(c, http.StatusOK, "Withdrawal overview retrieved successfully", overview)
}

// Withdraw places a hold on the requested amount and queues it for admin payout
func (wc *WalletController) Withdraw(c echo.Context) error {
	var form models.WithdrawForm
	if err := c.Bind(&form); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if form.Method == "" || form.Number == "" {
		return badRequest(c, "Payment method and number are required")
	}

	req, err := wc.wallet.Withdraw(c.Request().Context(), middleware.GetUserID(c), form)
	if err != nil {
		return respondError(c, err, "Failed to submit withdrawal")
	}
	return respond(c, http.StatusCreated, "Withdrawal request submitted!", req)
}

// ActivationPage returns the payment instructions for account activation
func (wc *WalletController) ActivationPage(c echo.Context) error {
	return respond(c, http.StatusOK, "Activation instructions", wc.activation)
}

func (wc *WalletController) SubmitActivation(c echo.Context) error {
	var form models.ActivationForm
	if err := bindAndValidate(c, &form); err != nil {
		return invalidRequest(c, err)
	}

	req, err := wc.wallet.SubmitActivation(c.Request().Context(), middleware.GetUserID(c), middleware.GetEmail(c), form)
	if err != nil {
		return respondError(c, err, "Failed to submit activation request")
	}
	return respond(c, http.StatusCreated, "Activation request submitted! Waiting for admin approval.", req)
}
