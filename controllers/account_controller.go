package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/services"
)

// AccountController serves the user's own pages: dashboard, KYC, referrals and notices
type AccountController struct {
	account *services.AccountService
	admin   *services.AdminService
}

func NewAccountController(account *services.AccountService, admin *services.AdminService) *AccountController {
	return &AccountController{account: account, admin: admin}
}

func (ac *AccountController) Dashboard(c echo.Context) error {
	dashboard, err := ac.account.Dashboard(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to load dashboard")
	}
	return respond(c, http.StatusOK, "Dashboard retrieved successfully", dashboard)
}

// KYCPage returns the profile to prefill the KYC form, unless KYC is already on file
func (ac *AccountController) KYCPage(c echo.Context) error {
	user, err := ac.account.Profile(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to load profile")
	}
	if user.KYCSubmitted {
		return respond(c, http.StatusOK, "KYC already submitted!", models.Next{Next: "/withdraw"})
	}
	return respond(c, http.StatusOK, "Please complete your KYC", user)
}

func (ac *AccountController) SubmitKYC(c echo.Context) error {
	var form models.KYCRequest
	if err := bindAndValidate(c, &form); err != nil {
		return invalidRequest(c, err)
	}

	if err := ac.account.SubmitKYC(c.Request().Context(), middleware.GetUserID(c), form, c.RealIP()); err != nil {
		return respondError(c, err, "Failed to submit KYC")
	}
	return respond(c, http.StatusOK, "KYC submitted successfully!", models.Next{Next: "/withdraw"})
}

// ReferralQRCode streams the referral sign-up link as a PNG
func (ac *AccountController) ReferralQRCode(c echo.Context) error {
	png, link, err := ac.account.ReferralQRCode(middleware.GetUserID(c))
	if err != nil {
		c.Logger().Errorf("failed to render referral QR code: %v", err)
		return respond(c, http.StatusInternalServerError, "Failed to generate QR code", nil)
	}
	c.Response().Header().Set("X-Referral-Link", link)
	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Blob(http.StatusOK, "image/png", png)
}

func (ac *AccountController) Notices(c echo.Context) error {
	notices, err := ac.account.Notices(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to load notices")
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	return respond(c, http.StatusOK, "Notices retrieved successfully", notices)
}

// PublishNotice lets an admin post from the notice board itself
func (ac *AccountController) PublishNotice(c echo.Context) error {
	if !middleware.IsAdmin(c) {
		return respond(c, http.StatusForbidden, "Admin access required", nil)
	}

	var form models.NoticeForm
	if err := bindAndValidate(c, &form); err != nil {
		return invalidRequest(c, err)
	}
	notice, err := ac.admin.PublishNotice(c.Request().Context(), form)
	if err != nil {
		return respondError(c, err, "Failed to publish notice")
	}
	return respond(c, http.StatusCreated, "Notice published!", notice)
}
