// Package memory is an in-process services.Store with the same semantics as the Mongo store.
// One mutex serialises every operation, which stands in for the Mongo transactions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/services"
)

var _ services.Store = (*Store)(nil)

type submissionKey struct {
	uid, taskID string
}

type Store struct {
	mu sync.Mutex

	users        map[string]*models.User
	tasks        map[primitive.ObjectID]*models.Task
	submissions  map[primitive.ObjectID]*models.Submission
	submitted    map[submissionKey]primitive.ObjectID
	withdrawals  map[primitive.ObjectID]*models.WithdrawRequest
	activations  map[primitive.ObjectID]*models.ActivationRequest
	history      map[primitive.ObjectID]*models.BalanceHistoryEntry
	notices      []models.Notice
	systemNotice *models.SystemNotice

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		tasks:       make(map[primitive.ObjectID]*models.Task),
		submissions: make(map[primitive.ObjectID]*models.Submission),
		submitted:   make(map[submissionKey]primitive.ObjectID),
		withdrawals: make(map[primitive.ObjectID]*models.WithdrawRequest),
		activations: make(map[primitive.ObjectID]*models.ActivationRequest),
		history:     make(map[primitive.ObjectID]*models.BalanceHistoryEntry),
		now:         time.Now,
	}
}

// SetClock replaces the time source used for generated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func parseID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

func copyUser(u *models.User) models.User {
	out := *u
	if u.KYC != nil {
		kyc := *u.KYC
		out.KYC = &kyc
	}
	return out
}

// Users

func (s *Store) GetUser(_ context.Context, uid string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	out := copyUser(u)
	return &out, nil
}

// PutUser stores a user as is, bypassing the ledger. Intended for seeding.
func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = &u
}

func (s *Store) sortedUsers(match func(*models.User) bool) []models.User {
	var out []models.User
	for _, u := range s.users {
		if match(u) {
			out = append(out, copyUser(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListUsers(_ context.Context, page, perPage int) ([]models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	all := s.sortedUsers(func(*models.User) bool { return true })
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, false, nil
	}
	end := start + perPage
	if end >= len(all) {
		return all[start:], false, nil
	}
	return all[start:end], true, nil
}

func (s *Store) ListReferrals(_ context.Context, uid string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedUsers(func(u *models.User) bool { return u.ReferredBy == uid }), nil
}

func (s *Store) SetBanned(_ context.Context, uid string, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return models.ErrUserNotFound
	}
	u.IsBanned = banned
	return nil
}

func (s *Store) DeleteUser(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[uid]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, uid)
	return nil
}

func (s *Store) SaveKYC(_ context.Context, uid, phone string, kyc models.KYC) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return models.ErrUserNotFound
	}
	u.KYCSubmitted = true
	u.Phone = phone
	u.KYC = &kyc
	return nil
}

// Ledger

func (s *Store) addEntry(e models.BalanceHistoryEntry) models.BalanceHistoryEntry {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	s.history[e.ID] = &e
	return e
}

func (s *Store) CreateUser(_ context.Context, user *models.User, grant *models.ReferralGrant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return false, models.ErrUserExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	var referrer *models.User
	if grant != nil && grant.ReferrerID != "" && grant.ReferrerID != user.ID {
		referrer = s.users[grant.ReferrerID]
	}
	if referrer != nil {
		user.Balance += grant.SignupBonus
		user.ReferredBy = referrer.ID
		referrer.Balance += grant.ReferralBonus
		referrer.ReferralCount++
	}

	doc := copyUser(user)
	s.users[user.ID] = &doc

	if referrer == nil {
		return false, nil
	}
	s.addEntry(models.BalanceHistoryEntry{
		UID:         user.ID,
		Type:        models.HistorySignupBonus,
		Amount:      grant.SignupBonus,
		Description: "Welcome Bonus",
	})
	s.addEntry(models.BalanceHistoryEntry{
		UID:         referrer.ID,
		Type:        models.HistoryReferralBonus,
		Amount:      grant.ReferralBonus,
		Description: "Referral Bonus: " + user.Name,
	})
	return true, nil
}

func (s *Store) Credit(_ context.Context, entry models.BalanceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[entry.UID]
	if !ok {
		return models.ErrUserNotFound
	}
	u.Balance += entry.Amount
	s.addEntry(entry)
	return nil
}

func (s *Store) ApproveSubmission(_ context.Context, id string) (models.BalanceHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oid, err := parseID(id, models.ErrSubmissionNotFound)
	if err != nil {
		return models.BalanceHistoryEntry{}, err
	}
	sub, ok := s.submissions[oid]
	if !ok {
		return models.BalanceHistoryEntry{}, models.ErrSubmissionNotFound
	}
	if sub.Status != models.SubmissionPending {
		return models.BalanceHistoryEntry{}, models.ErrNotPending
	}
	user, ok := s.users[sub.UID]
	if !ok {
		return models.BalanceHistoryEntry{}, models.ErrUserNotFound
	}

	title, reward := "Deleted Task", 0.0
	if taskID, err := primitive.ObjectIDFromHex(sub.TaskID); err == nil {
		if task, ok := s.tasks[taskID]; ok {
			title, reward = task.Title, task.Reward
		}
	}

	now := s.now()
	sub.Status = models.SubmissionApproved
	sub.ReviewedAt = &now
	user.Balance += reward
	return s.addEntry(models.BalanceHistoryEntry{
		UID:         sub.UID,
		Type:        models.HistoryTaskEarning,
		Amount:      reward,
		Description: title,
		Timestamp:   now,
	}), nil
}

func (s *Store) RejectSubmission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oid, err := parseID(id, models.ErrSubmissionNotFound)
	if err != nil {
		return err
	}
	sub, ok := s.submissions[oid]
	if !ok {
		return models.ErrSubmissionNotFound
	}
	if sub.Status != models.SubmissionPending {
		return models.ErrNotPending
	}
	now := s.now()
	sub.Status = models.SubmissionRejected
	sub.ReviewedAt = &now
	return nil
}

func (s *Store) HoldWithdrawal(_ context.Context, req *models.WithdrawRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[req.UID]
	if !ok {
		return models.ErrUserNotFound
	}
	if user.Balance < req.Amount {
		return models.ErrInsufficientBalance
	}

	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now()
	}
	req.Status = models.WithdrawPending

	user.Balance -= req.Amount
	hold := s.addEntry(models.BalanceHistoryEntry{
		ID:          req.HoldEntryID,
		UID:         req.UID,
		Type:        models.HistoryWithdrawHold,
		Amount:      -req.Amount,
		Description: fmt.Sprintf("Withdrawal request via %s (%s)", req.Method, req.Number),
		Timestamp:   req.Timestamp,
	})
	req.HoldEntryID = hold.ID

	stored := *req
	s.withdrawals[req.ID] = &stored
	return nil
}

func (s *Store) ResolveWithdrawal(_ context.Context, id string, status models.WithdrawStatus) (*models.WithdrawRequest, error) {
	if status != models.WithdrawPaid && status != models.WithdrawRejected {
		return nil, fmt.Errorf("resolve withdrawal: unsupported status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oid, err := parseID(id, models.ErrWithdrawalNotFound)
	if err != nil {
		return nil, err
	}
	req, ok := s.withdrawals[oid]
	if !ok {
		return nil, models.ErrWithdrawalNotFound
	}
	if req.Status != models.WithdrawPending {
		return nil, models.ErrNotPending
	}

	now := s.now()
	if status == models.WithdrawPaid {
		if hold, ok := s.history[req.HoldEntryID]; ok {
			hold.Type = models.HistoryWithdrawPaid
			hold.Description = fmt.Sprintf("Paid via %s (%s)", req.Method, req.Number)
		}
	} else if user, ok := s.users[req.UID]; ok {
		user.Balance += req.Amount
		s.addEntry(models.BalanceHistoryEntry{
			UID:         req.UID,
			Type:        models.HistoryWithdrawRefund,
			Amount:      req.Amount,
			Description: "Withdrawal rejected, amount refunded",
			Timestamp:   now,
		})
	}
	req.Status = status
	req.ProcessedAt = &now

	out := *req
	return &out, nil
}

func (s *Store) ApproveActivation(_ context.Context, id string) (*models.ActivationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oid, err := parseID(id, models.ErrActivationNotFound)
	if err != nil {
		return nil, err
	}
	req, ok := s.activations[oid]
	if !ok {
		return nil, models.ErrActivationNotFound
	}
	if req.Status != models.ActivationPending {
		return nil, models.ErrNotPending
	}
	user, ok := s.users[req.UID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	req.Status = models.ActivationApproved
	user.IsActive = true

	out := *req
	return &out, nil
}

func (s *Store) ListHistory(_ context.Context, uid string, limit int) ([]models.BalanceHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.BalanceHistoryEntry
	for _, e := range s.history {
		if e.UID == uid {
			out = append(out, *e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) HistoryAmounts(_ context.Context, uid string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []float64
	for _, e := range s.history {
		if e.UID == uid {
			out = append(out, e.Amount)
		}
	}
	return out, nil
}
