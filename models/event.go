package models

import "time"

// Admin live feed event types.
const (
	EventSubmissionCreated   = "submission_created"
	EventWithdrawRequested   = "withdraw_requested"
	EventActivationRequested = "activation_requested"
	EventKYCSubmitted        = "kyc_submitted"
)

// Event is pushed to connected admin consoles.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}
