package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/taskreward_backend/metrics"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/utils"
)

const recentWithdrawals = 20

// WalletService owns withdrawals, activations and admin balance adjustments.
type WalletService struct {
	users       UserStore
	ledger      LedgerStore
	withdrawals WithdrawalStore
	activations ActivationStore
	mailer      Mailer
	events      Publisher
	rules       Rules
}

func NewWalletService(users UserStore, ledger LedgerStore, withdrawals WithdrawalStore, activations ActivationStore, mailer Mailer, events Publisher, rules Rules) *WalletService {
	if mailer == nil {
		mailer = nopMailer{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &WalletService{
		users:       users,
		ledger:      ledger,
		withdrawals: withdrawals,
		activations: activations,
		mailer:      mailer,
		events:      events,
		rules:       rules,
	}
}

func (s *WalletService) eligible(user *models.User) bool {
	return user.Balance >= s.rules.EligibleBalance && user.ReferralCount >= s.rules.EligibleReferrals
}

// Withdraw validates a request against the withdrawal rules in order and places a hold.
func (s *WalletService) Withdraw(ctx context.Context, uid string, form models.WithdrawForm) (*models.WithdrawRequest, error) {
	amount, err := utils.ParseAmount(form.Amount)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	if amount.LessThan(decimal.NewFromFloat(s.rules.WithdrawMinimum)) {
		return nil, fmt.Errorf("%w (%.2f)", models.ErrBelowMinimum, s.rules.WithdrawMinimum)
	}
	if decimal.NewFromFloat(user.Balance).LessThan(amount) {
		return nil, models.ErrInsufficientBalance
	}
	if !s.eligible(user) {
		return nil, &models.EligibilityError{
			Balance:           user.Balance,
			ReferralCount:     user.ReferralCount,
			RequiredBalance:   s.rules.EligibleBalance,
			RequiredReferrals: s.rules.EligibleReferrals,
		}
	}
	if !user.KYCSubmitted {
		return nil, models.ErrKYCRequired
	}
	if !user.IsActive {
		return nil, models.ErrActivationRequired
	}

	value, _ := amount.Float64()
	req := &models.WithdrawRequest{
		UID:       uid,
		Email:     user.Email,
		Amount:    value,
		Method:    utils.CleanText(form.Method, utils.MaxShortText),
		Number:    utils.CleanText(form.Number, utils.MaxShortText),
		Timestamp: time.Now(),
	}
	err = s.ledger.HoldWithdrawal(ctx, req)
	metrics.RecordLedgerOp("withdraw_hold", err)
	if err != nil {
		return nil, err
	}

	go s.notifyWithdrawal(*req)
	s.events.Publish(models.Event{Type: models.EventWithdrawRequested, Data: req, Time: req.Timestamp})
	return req, nil
}

func (s *WalletService) notifyWithdrawal(req models.WithdrawRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subject, body := withdrawalMail(&req)
	if err := s.mailer.SendAdmin(ctx, subject, body); err != nil {
		log.Printf("Failed to send withdrawal email for %s: %v", req.ID.Hex(), err)
	}
}

func (s *WalletService) Overview(ctx context.Context, uid string) (*models.WithdrawOverview, error) {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	reqs, err := s.withdrawals.ListUserWithdrawals(ctx, uid, recentWithdrawals)
	if err != nil {
		return nil, err
	}
	return &models.WithdrawOverview{
		Balance:           user.Balance,
		ReferralCount:     user.ReferralCount,
		Minimum:           s.rules.WithdrawMinimum,
		EligibleBalance:   s.rules.EligibleBalance,
		EligibleReferrals: s.rules.EligibleReferrals,
		Eligible:          s.eligible(user),
		KYCSubmitted:      user.KYCSubmitted,
		IsActive:          user.IsActive,
		Requests:          reqs,
	}, nil
}

// Resolve pays or rejects a pending withdrawal.
func (s *WalletService) Resolve(ctx context.Context, id string, status models.WithdrawStatus) (*models.WithdrawRequest, error) {
	req, err := s.ledger.ResolveWithdrawal(ctx, id, status)
	metrics.RecordLedgerOp("withdraw_"+string(status), err)
	return req, err
}

func (s *WalletService) PendingWithdrawals(ctx context.Context) ([]models.WithdrawRequest, error) {
	return s.withdrawals.ListWithdrawalsByStatus(ctx, models.WithdrawPending)
}

func (s *WalletService) SubmitActivation(ctx context.Context, uid, email string, form models.ActivationForm) (*models.ActivationRequest, error) {
	req := &models.ActivationRequest{
		UID:          uid,
		Email:        email,
		Method:       utils.CleanText(form.Method, utils.MaxShortText),
		SenderNumber: utils.CleanText(form.SenderNumber, utils.MaxShortText),
		TrxID:        utils.CleanText(form.TrxID, utils.MaxShortText),
		Status:       models.ActivationPending,
		Timestamp:    time.Now(),
	}
	if err := s.activations.CreateActivationRequest(ctx, req); err != nil {
		return nil, err
	}
	s.events.Publish(models.Event{Type: models.EventActivationRequested, Data: req, Time: req.Timestamp})
	return req, nil
}

func (s *WalletService) ApproveActivation(ctx context.Context, id string) (*models.ActivationRequest, error) {
	return s.ledger.ApproveActivation(ctx, id)
}

func (s *WalletService) PendingActivations(ctx context.Context) ([]models.ActivationRequest, error) {
	return s.activations.ListActivationRequestsByStatus(ctx, models.ActivationPending)
}

// AdjustBalance credits or debits a user on behalf of an admin. A debit may take the balance
// below zero; it is ledgered like any other change.
func (s *WalletService) AdjustBalance(ctx context.Context, form models.BalanceUpdateForm) (*models.BalanceHistoryEntry, error) {
	amount, err := utils.ParseAmount(form.Amount)
	if err != nil {
		return nil, err
	}

	description := "Admin Bonus"
	if strings.EqualFold(form.ActionType, "subtract") {
		amount = amount.Neg()
		description = "Admin Deduction"
	}
	value, _ := amount.Float64()

	entry := models.BalanceHistoryEntry{
		UID:         strings.TrimSpace(form.TargetUID),
		Type:        models.HistoryAdminAdjust,
		Amount:      value,
		Description: description,
		Timestamp:   time.Now(),
	}
	err = s.ledger.Credit(ctx, entry)
	metrics.RecordLedgerOp("admin_adjustment", err)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Audit compares a user's stored balance with the exact sum of their history.
func (s *WalletService) Audit(ctx context.Context, uid string) (*models.LedgerAudit, error) {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	amounts, err := s.ledger.HistoryAmounts(ctx, uid)
	if err != nil {
		return nil, err
	}

	balance := decimal.NewFromFloat(user.Balance).Round(2)
	sum := utils.SumAmounts(amounts).Round(2)
	drift := balance.Sub(sum)
	return &models.LedgerAudit{
		UID:        uid,
		Balance:    balance.StringFixed(2),
		HistorySum: sum.StringFixed(2),
		Drift:      drift.StringFixed(2),
		Consistent: drift.IsZero(),
		Entries:    len(amounts),
	}, nil
}
