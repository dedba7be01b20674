package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/models"
)

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func badRequest(c echo.Context, message string) error {
	return respond(c, http.StatusBadRequest, message, nil)
}

// respondError maps service errors onto the response envelope. Unknown errors are logged
// and reported with the fallback message.
func respondError(c echo.Context, err error, fallback string) error {
	var authErr *models.AuthError
	var eligErr *models.EligibilityError

	switch {
	case errors.As(err, &authErr):
		return respond(c, http.StatusUnauthorized, "Authentication failed. Please sign in again.", models.Next{Next: "/auth"})
	case errors.Is(err, models.ErrBanned):
		return respond(c, http.StatusForbidden, "Your account has been BANNED by Admin.", nil)
	case errors.Is(err, models.ErrKYCRequired):
		return respond(c, http.StatusForbidden, "Please complete your KYC before withdrawing.", models.Next{Next: "/kyc"})
	case errors.Is(err, models.ErrActivationRequired):
		return respond(c, http.StatusPaymentRequired, "Please activate your account before withdrawing.", models.Next{Next: "/activation"})
	case errors.As(err, &eligErr):
		return respond(c, http.StatusBadRequest, sentence(err.Error()), map[string]interface{}{
			"balance":           eligErr.Balance,
			"referralCount":     eligErr.ReferralCount,
			"requiredBalance":   eligErr.RequiredBalance,
			"requiredReferrals": eligErr.RequiredReferrals,
		})
	case errors.Is(err, models.ErrInvalidAmount):
		return badRequest(c, "Invalid amount entered.")
	case errors.Is(err, models.ErrNothingSelected):
		return badRequest(c, "No tasks selected.")
	case errors.Is(err, models.ErrBelowMinimum),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrNoProof),
		errors.Is(err, models.ErrInvalidImage),
		errors.Is(err, models.ErrInvalidPhone):
		return badRequest(c, sentence(err.Error()))
	case errors.Is(err, models.ErrDuplicateSubmission):
		return respond(c, http.StatusConflict, "You have already submitted this task.", nil)
	case errors.Is(err, models.ErrNotPending):
		return respond(c, http.StatusConflict, "This request has already been processed.", nil)
	case errors.Is(err, models.ErrImageUpload):
		return respond(c, http.StatusBadGateway, "Image upload failed, please try again.", nil)
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrTaskNotFound),
		errors.Is(err, models.ErrSubmissionNotFound),
		errors.Is(err, models.ErrWithdrawalNotFound),
		errors.Is(err, models.ErrActivationNotFound):
		return respond(c, http.StatusNotFound, sentence(err.Error()), nil)
	}

	c.Logger().Errorf("%s: %v", fallback, err)
	return respond(c, http.StatusInternalServerError, fallback, nil)
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	if !strings.HasSuffix(s, ".") {
		return string(r) + "."
	}
	return string(r)
}

// bindAndValidate binds the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func invalidRequest(c echo.Context, err error) error {
	return respond(c, http.StatusBadRequest, "Invalid request", err.Error())
}
