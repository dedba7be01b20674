package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is an append-only broadcast shown on the notice board.
type Notice struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title   string             `json:"title" bson:"title"`
	Message string             `json:"message" bson:"message"`
	Date    time.Time          `json:"date" bson:"date"`
}

// SystemNotice is the single banner shown on every dashboard.
type SystemNotice struct {
	Text      string    `json:"text" bson:"text"`
	Link      string    `json:"link" bson:"link"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

type NoticeForm struct {
	Title   string `form:"title" validate:"required"`
	Message string `form:"message" validate:"required"`
}

// Dashboard aggregates everything the user home page shows.
type Dashboard struct {
	User         *User                 `json:"user"`
	History      []BalanceHistoryEntry `json:"history"`
	Referrals    []Referral            `json:"referrals"`
	Stats        SubmissionStats       `json:"stats"`
	SystemNotice *SystemNotice         `json:"systemNotice,omitempty"`
	UID          string                `json:"uid"`
}

// AdminConsole aggregates the admin review queues.
type AdminConsole struct {
	PendingTasks       []PendingSubmission `json:"pendingTasks"`
	PendingWithdraws   []WithdrawRequest   `json:"pendingWithdraws"`
	ActivationRequests []ActivationRequest `json:"activationRequests"`
	ActiveTasks        []Task              `json:"activeTasks"`
	Cleanup            *SweepResult        `json:"cleanup,omitempty"`
}
