package memory

import (
	"bytes"
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/taskreward_backend/models"
)

// Tasks

func (s *Store) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}
	stored := *task
	s.tasks[task.ID] = &stored
	return nil
}

func (s *Store) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, err := parseID(id, models.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}
	task, ok := s.tasks[oid]
	if !ok {
		return nil, models.ErrTaskNotFound
	}
	out := *task
	return &out, nil
}

func (s *Store) ListTasks(_ context.Context, limit int) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, err := parseID(id, models.ErrTaskNotFound)
	if err != nil {
		return err
	}
	if _, ok := s.tasks[oid]; !ok {
		return models.ErrTaskNotFound
	}
	delete(s.tasks, oid)
	return nil
}

// Submissions

func (s *Store) CreateSubmission(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := submissionKey{sub.UID, sub.TaskID}
	if _, dup := s.submitted[key]; dup {
		return models.ErrDuplicateSubmission
	}
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if sub.Timestamp.IsZero() {
		sub.Timestamp = s.now()
	}
	stored := *sub
	s.submissions[sub.ID] = &stored
	s.submitted[key] = sub.ID
	return nil
}

func (s *Store) HasSubmission(_ context.Context, uid, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.submitted[submissionKey{uid, taskID}]
	return ok, nil
}

func (s *Store) SubmittedTaskIDs(_ context.Context, uid string, taskIDs []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := make(map[string]bool)
	for _, id := range taskIDs {
		if _, ok := s.submitted[submissionKey{uid, id}]; ok {
			done[id] = true
		}
	}
	return done, nil
}

func (s *Store) SubmissionStats(_ context.Context, uid string) (models.SubmissionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.SubmissionStats
	for _, sub := range s.submissions {
		if sub.UID != uid {
			continue
		}
		switch sub.Status {
		case models.SubmissionApproved:
			stats.Approved++
		case models.SubmissionPending:
			stats.Pending++
		case models.SubmissionRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

func (s *Store) ListSubmissionsByStatus(_ context.Context, status models.SubmissionStatus) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Submission
	for _, sub := range s.submissions {
		if sub.Status == status {
			out = append(out, *sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return olderFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID) })
	return out, nil
}

// Withdrawals and activations

func (s *Store) ListWithdrawalsByStatus(_ context.Context, status models.WithdrawStatus) ([]models.WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WithdrawRequest
	for _, w := range s.withdrawals {
		if w.Status == status {
			out = append(out, *w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return olderFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) ListUserWithdrawals(_ context.Context, uid string, limit int) ([]models.WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WithdrawRequest
	for _, w := range s.withdrawals {
		if w.UID == uid {
			out = append(out, *w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateActivationRequest(_ context.Context, req *models.ActivationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now()
	}
	req.Status = models.ActivationPending
	stored := *req
	s.activations[req.ID] = &stored
	return nil
}

func (s *Store) ListActivationRequestsByStatus(_ context.Context, status models.ActivationStatus) ([]models.ActivationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ActivationRequest
	for _, a := range s.activations {
		if a.Status == status {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return olderFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID) })
	return out, nil
}

// Notices

func (s *Store) PublishNotice(_ context.Context, notice *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if notice.ID.IsZero() {
		notice.ID = primitive.NewObjectID()
	}
	if notice.Date.IsZero() {
		notice.Date = s.now()
	}
	s.notices = append(s.notices, *notice)
	return nil
}

func (s *Store) ListNotices(_ context.Context) ([]models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notice, len(s.notices))
	copy(out, s.notices)
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) SetSystemNotice(_ context.Context, notice models.SystemNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemNotice = &notice
	return nil
}

func (s *Store) GetSystemNotice(_ context.Context) (*models.SystemNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.systemNotice == nil {
		return nil, nil
	}
	out := *s.systemNotice
	return &out, nil
}

// Maintenance

func (s *Store) Sweep(_ context.Context, cutoff time.Time, batch int) (models.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result models.SweepResult

	for id, sub := range s.submissions {
		if result.Submissions >= batch {
			break
		}
		if sub.Timestamp.Before(cutoff) {
			delete(s.submissions, id)
			delete(s.submitted, submissionKey{sub.UID, sub.TaskID})
			result.Submissions++
		}
	}

	for id, w := range s.withdrawals {
		if result.Withdrawals >= batch {
			break
		}
		settled := w.Status == models.WithdrawPaid || w.Status == models.WithdrawRejected
		if settled && w.Timestamp.Before(cutoff) {
			delete(s.withdrawals, id)
			result.Withdrawals++
		}
	}

	sums := make(map[string]float64)
	for id, e := range s.history {
		if result.History >= batch {
			break
		}
		if e.Type == models.HistoryWithdrawHold || e.Type == models.HistoryCarryForward {
			continue
		}
		if e.Timestamp.Before(cutoff) {
			sums[e.UID] += e.Amount
			delete(s.history, id)
			result.History++
		}
	}

	now := s.now()
	for uid, sum := range sums {
		var carry *models.BalanceHistoryEntry
		for _, e := range s.history {
			if e.UID == uid && e.Type == models.HistoryCarryForward {
				carry = e
				break
			}
		}
		if carry == nil {
			s.addEntry(models.BalanceHistoryEntry{
				UID:         uid,
				Type:        models.HistoryCarryForward,
				Amount:      sum,
				Description: "Balance carried forward",
				Timestamp:   now,
			})
		} else {
			carry.Amount += sum
			carry.Timestamp = now
		}
		result.CarryForwards++
	}
	return result, nil
}

// newerFirst orders by time descending, breaking ties by descending ObjectID
// so equal timestamps still come back newest insert first.
func newerFirst(a, b time.Time, idA, idB primitive.ObjectID) bool {
	if a.Equal(b) {
		return bytes.Compare(idA[:], idB[:]) > 0
	}
	return a.After(b)
}

func olderFirst(a, b time.Time, idA, idB primitive.ObjectID) bool {
	if a.Equal(b) {
		return bytes.Compare(idA[:], idB[:]) < 0
	}
	return a.Before(b)
}
