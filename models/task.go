package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProofImage = "image"
	ProofLink  = "link"
	ProofText  = "text"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Task is a unit of work published by an admin.
type Task struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title            string             `json:"title" bson:"title"`
	Category         string             `json:"category" bson:"category"`
	TaskLink         string             `json:"taskLink" bson:"task_link"`
	Description      string             `json:"description" bson:"description"`
	Reward           float64            `json:"reward" bson:"reward"`
	ProofRequirement string             `json:"proofRequirement" bson:"proof_requirement"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
}

// Submission is a user's proof of work for a task. At most one exists per (uid, task).
type Submission struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UID        string             `json:"uid" bson:"uid"`
	TaskID     string             `json:"taskId" bson:"task_id"`
	Email      string             `json:"email" bson:"email"`
	Status     SubmissionStatus   `json:"status" bson:"status"`
	Proof      string             `json:"proof" bson:"proof"`
	ProofType  string             `json:"proofType" bson:"proof_type"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
	ReviewedAt *time.Time         `json:"reviewedAt,omitempty" bson:"reviewed_at,omitempty"`
}

// PendingSubmission is a submission annotated for the admin review queue.
type PendingSubmission struct {
	Submission `bson:",inline"`
	TaskTitle  string  `json:"taskTitle"`
	TaskReward float64 `json:"taskReward"`
}

type SubmissionStats struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

type CreateTaskRequest struct {
	Title            string  `json:"title" form:"title" validate:"required"`
	Category         string  `json:"category" form:"category"`
	TaskLink         string  `json:"task_link" form:"task_link"`
	Description      string  `json:"description" form:"description"`
	Reward           float64 `json:"reward" form:"reward" validate:"gt=0"`
	ProofRequirement string  `json:"proof_requirement" form:"proof_requirement" validate:"omitempty,oneof=image link text"`
}

// BulkApproveResult reports a batch approval; failures don't undo earlier approvals.
type BulkApproveResult struct {
	Approved int               `json:"approved"`
	Failed   map[string]string `json:"failed,omitempty"`
}
