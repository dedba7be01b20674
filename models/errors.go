package models

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrBanned              = errors.New("your account has been banned")
	ErrTaskNotFound        = errors.New("task not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("task already submitted")
	ErrWithdrawalNotFound  = errors.New("withdraw request not found")
	ErrActivationNotFound  = errors.New("activation request not found")
	ErrNotPending          = errors.New("request is not pending")
	ErrInvalidAmount       = errors.New("invalid amount entered")
	ErrBelowMinimum        = errors.New("amount is below the withdrawal minimum")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotEligible         = errors.New("not eligible for withdrawal")
	ErrKYCRequired         = errors.New("kyc verification required")
	ErrActivationRequired  = errors.New("account activation required")
	ErrNoProof             = errors.New("proof image or text is required")
	ErrInvalidImage        = errors.New("uploaded file is not a readable image")
	ErrImageUpload         = errors.New("image upload failed")
	ErrNothingSelected     = errors.New("no tasks selected")
	ErrInvalidPhone        = errors.New("invalid phone number")
)

// AuthError wraps a failed identity token verification.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// EligibilityError carries the figures that failed the withdrawal eligibility gate.
type EligibilityError struct {
	Balance           float64
	ReferralCount     int
	RequiredBalance   float64
	RequiredReferrals int
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("withdrawal needs a balance of %.2f and %d referrals; you have %.2f and %d",
		e.RequiredBalance, e.RequiredReferrals, e.Balance, e.ReferralCount)
}

func (e *EligibilityError) Is(target error) bool { return target == ErrNotEligible }
