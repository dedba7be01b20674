package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawStatus string

const (
	WithdrawPending  WithdrawStatus = "pending"
	WithdrawPaid     WithdrawStatus = "paid"
	WithdrawRejected WithdrawStatus = "rejected"
)

// WithdrawRequest is created together with the hold entry it points to.
type WithdrawRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID         string             `bson:"uid" json:"uid"`
	Email       string             `bson:"email" json:"email"`
	Amount      float64            `bson:"amount" json:"amount"`
	Method      string             `bson:"method" json:"method"`
	Number      string             `bson:"number" json:"number"`
	Status      WithdrawStatus     `bson:"status" json:"status"`
	HoldEntryID primitive.ObjectID `bson:"hold_entry_id" json:"holdEntryId"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	ProcessedAt *time.Time         `bson:"processed_at,omitempty" json:"processedAt,omitempty"`
}

type WithdrawForm struct {
	Amount string `form:"amount" validate:"required"`
	Method string `form:"method" validate:"required"`
	Number string `form:"number" validate:"required"`
}

// WithdrawOverview backs the withdraw page.
type WithdrawOverview struct {
	Balance           float64           `json:"balance"`
	ReferralCount     int               `json:"referralCount"`
	Minimum           float64           `json:"minimum"`
	EligibleBalance   float64           `json:"eligibleBalance"`
	EligibleReferrals int               `json:"eligibleReferrals"`
	Eligible          bool              `json:"eligible"`
	KYCSubmitted      bool              `json:"kycSubmitted"`
	IsActive          bool              `json:"isActive"`
	Requests          []WithdrawRequest `json:"requests"`
}

type ActivationStatus string

const (
	ActivationPending  ActivationStatus = "pending"
	ActivationApproved ActivationStatus = "approved"
)

// ActivationRequest records the one-time activation payment a user claims to have sent.
type ActivationRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID          string             `bson:"uid" json:"uid"`
	Email        string             `bson:"email" json:"email"`
	Method       string             `bson:"method" json:"method"`
	SenderNumber string             `bson:"sender_number" json:"senderNumber"`
	TrxID        string             `bson:"trx_id" json:"trxId"`
	Status       ActivationStatus   `bson:"status" json:"status"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}

type ActivationForm struct {
	Method       string `form:"method" validate:"required"`
	SenderNumber string `form:"sender_number" validate:"required"`
	TrxID        string `form:"trx_id" validate:"required"`
}

type BalanceUpdateForm struct {
	TargetUID  string `form:"target_uid" validate:"required"`
	Amount     string `form:"amount" validate:"required"`
	ActionType string `form:"action_type" validate:"required,oneof=add subtract"`
}

// LedgerAudit compares a stored balance with the sum of its history.
type LedgerAudit struct {
	UID        string `json:"uid"`
	Balance    string `json:"balance"`
	HistorySum string `json:"historySum"`
	Drift      string `json:"drift"`
	Consistent bool   `json:"consistent"`
	Entries    int    `json:"entries"`
}
