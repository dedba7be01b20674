package services

import (
	"context"
	"time"

	"github.com/HSouheill/taskreward_backend/models"
)

// UserStore reads and manages user documents. Balance changes go through LedgerStore.
type UserStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	ListUsers(ctx context.Context, page, perPage int) (users []models.User, hasNext bool, err error)
	ListReferrals(ctx context.Context, uid string) ([]models.User, error)
	SetBanned(ctx context.Context, uid string, banned bool) error
	DeleteUser(ctx context.Context, uid string) error
	SaveKYC(ctx context.Context, uid, phone string, kyc models.KYC) error
}

// LedgerStore performs every balance change together with its history entry in one transaction.
type LedgerStore interface {
	// CreateUser inserts a new user. When grant names an existing referrer both bonuses are
	// paid; granted reports whether that happened. Returns ErrUserExists on a duplicate uid.
	CreateUser(ctx context.Context, user *models.User, grant *models.ReferralGrant) (granted bool, err error)
	Credit(ctx context.Context, entry models.BalanceHistoryEntry) error
	ApproveSubmission(ctx context.Context, id string) (models.BalanceHistoryEntry, error)
	RejectSubmission(ctx context.Context, id string) error
	// HoldWithdrawal debits the balance only if it still covers req.Amount, then records the
	// hold entry and the pending request.
	HoldWithdrawal(ctx context.Context, req *models.WithdrawRequest) error
	ResolveWithdrawal(ctx context.Context, id string, status models.WithdrawStatus) (*models.WithdrawRequest, error)
	ApproveActivation(ctx context.Context, id string) (*models.ActivationRequest, error)
	ListHistory(ctx context.Context, uid string, limit int) ([]models.BalanceHistoryEntry, error)
	HistoryAmounts(ctx context.Context, uid string) ([]float64, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// ListTasks returns the newest tasks first; limit <= 0 means no limit.
	ListTasks(ctx context.Context, limit int) ([]models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type SubmissionStore interface {
	// CreateSubmission returns ErrDuplicateSubmission when (uid, task_id) already exists.
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	HasSubmission(ctx context.Context, uid, taskID string) (bool, error)
	SubmittedTaskIDs(ctx context.Context, uid string, taskIDs []string) (map[string]bool, error)
	SubmissionStats(ctx context.Context, uid string) (models.SubmissionStats, error)
	ListSubmissionsByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error)
}

type WithdrawalStore interface {
	ListWithdrawalsByStatus(ctx context.Context, status models.WithdrawStatus) ([]models.WithdrawRequest, error)
	ListUserWithdrawals(ctx context.Context, uid string, limit int) ([]models.WithdrawRequest, error)
}

type ActivationStore interface {
	CreateActivationRequest(ctx context.Context, req *models.ActivationRequest) error
	ListActivationRequestsByStatus(ctx context.Context, status models.ActivationStatus) ([]models.ActivationRequest, error)
}

type NoticeStore interface {
	PublishNotice(ctx context.Context, notice *models.Notice) error
	ListNotices(ctx context.Context) ([]models.Notice, error)
	SetSystemNotice(ctx context.Context, notice models.SystemNotice) error
	// GetSystemNotice returns nil without error when no notice was ever set.
	GetSystemNotice(ctx context.Context) (*models.SystemNotice, error)
}

type MaintenanceStore interface {
	// Sweep removes records older than cutoff, at most batch per collection, folding swept
	// history amounts into each user's carry-forward entry.
	Sweep(ctx context.Context, cutoff time.Time, batch int) (models.SweepResult, error)
}

// Store is the full persistence surface; services take the narrower interfaces they need.
type Store interface {
	UserStore
	LedgerStore
	TaskStore
	SubmissionStore
	WithdrawalStore
	ActivationStore
	NoticeStore
	MaintenanceStore
}
