package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// History entry types.
const (
	HistorySignupBonus    = "signup_bonus"
	HistoryReferralBonus  = "referral_bonus"
	HistoryTaskEarning    = "task_earning"
	HistoryWithdrawHold   = "withdraw_hold"
	HistoryWithdrawPaid   = "withdraw_paid"
	HistoryWithdrawRefund = "withdraw_refund"
	HistoryAdminAdjust    = "admin_adjustment"
	HistoryCarryForward   = "balance_carry_forward"
)

// BalanceHistoryEntry is one signed movement of a user's balance.
type BalanceHistoryEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID         string             `bson:"uid" json:"uid"`
	Type        string             `bson:"type" json:"type"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description" json:"description"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

// SweepResult counts what one cleanup pass removed.
type SweepResult struct {
	Submissions   int `json:"submissions"`
	History       int `json:"history"`
	Withdrawals   int `json:"withdrawals"`
	CarryForwards int `json:"carryForwards"`
}
