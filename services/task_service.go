package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HSouheill/taskreward_backend/metrics"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/utils"
)

// ProofImage is an uploaded proof file before normalisation.
type ProofImage struct {
	Filename string
	Data     []byte
}

// TaskService runs the task listing, submission and review workflow.
type TaskService struct {
	tasks  TaskStore
	subs   SubmissionStore
	ledger LedgerStore
	images ImageHost
	events Publisher
	rules  Rules
}

func NewTaskService(tasks TaskStore, subs SubmissionStore, ledger LedgerStore, images ImageHost, events Publisher, rules Rules) *TaskService {
	if events == nil {
		events = nopPublisher{}
	}
	return &TaskService{
		tasks:  tasks,
		subs:   subs,
		ledger: ledger,
		images: images,
		events: events,
		rules:  rules,
	}
}

// ListOpenTasks returns the newest tasks the user has not submitted yet, capped at the
// visible limit.
func (s *TaskService) ListOpenTasks(ctx context.Context, uid string) ([]models.Task, error) {
	candidates, err := s.tasks.ListTasks(ctx, s.rules.TaskCandidateLimit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(candidates))
	for i, t := range candidates {
		ids[i] = t.ID.Hex()
	}
	done, err := s.subs.SubmittedTaskIDs(ctx, uid, ids)
	if err != nil {
		return nil, err
	}

	open := make([]models.Task, 0, len(candidates))
	for _, t := range candidates {
		if done[t.ID.Hex()] {
			continue
		}
		open = append(open, t)
		if s.rules.TaskVisibleLimit > 0 && len(open) == s.rules.TaskVisibleLimit {
			break
		}
	}
	return open, nil
}

// Submit records proof of work for a task. An image proof wins over a text proof.
func (s *TaskService) Submit(ctx context.Context, uid, email, taskID string, image *ProofImage, text string) (*models.Submission, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	exists, err := s.subs.HasSubmission(ctx, uid, taskID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrDuplicateSubmission
	}

	sub := &models.Submission{
		UID:       uid,
		TaskID:    taskID,
		Email:     email,
		Status:    models.SubmissionPending,
		Timestamp: time.Now(),
	}

	switch {
	case image != nil && len(image.Data) > 0:
		url, err := s.uploadProof(ctx, image)
		if err != nil {
			return nil, err
		}
		sub.Proof, sub.ProofType = url, models.ProofImage
	case strings.TrimSpace(text) != "":
		sub.Proof, sub.ProofType = utils.CleanText(text, utils.MaxLongText), models.ProofText
	default:
		return nil, models.ErrNoProof
	}

	if err := s.subs.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.events.Publish(models.Event{
		Type: models.EventSubmissionCreated,
		Data: map[string]interface{}{
			"id":        sub.ID.Hex(),
			"uid":       uid,
			"email":     email,
			"taskTitle": task.Title,
		},
		Time: sub.Timestamp,
	})
	return sub, nil
}

func (s *TaskService) uploadProof(ctx context.Context, image *ProofImage) (string, error) {
	data, err := utils.NormalizeImage(image.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	name := uuid.NewString() + "-" + utils.JPEGName(image.Filename)
	url, err := s.images.Upload(uploadCtx, data, name)
	metrics.RecordImageUpload(err == nil)
	if err != nil {
		log.Printf("Proof image upload failed: %v", err)
		return "", fmt.Errorf("%w: %v", models.ErrImageUpload, err)
	}
	return url, nil
}

func (s *TaskService) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	proof := req.ProofRequirement
	if proof == "" {
		proof = models.ProofImage
	}
	task := &models.Task{
		Title:            strings.TrimSpace(req.Title),
		Category:         strings.TrimSpace(req.Category),
		TaskLink:         strings.TrimSpace(req.TaskLink),
		Description:      strings.TrimSpace(req.Description),
		Reward:           req.Reward,
		ProofRequirement: proof,
		CreatedAt:        time.Now(),
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.tasks.DeleteTask(ctx, id)
}

func (s *TaskService) Approve(ctx context.Context, id string) (models.BalanceHistoryEntry, error) {
	entry, err := s.ledger.ApproveSubmission(ctx, id)
	metrics.RecordLedgerOp("approve_task", err)
	return entry, err
}

func (s *TaskService) Reject(ctx context.Context, id string) error {
	return s.ledger.RejectSubmission(ctx, id)
}

// BulkApprove approves each id on its own; a failure is reported and does not undo the others.
func (s *TaskService) BulkApprove(ctx context.Context, ids []string) (models.BulkApproveResult, error) {
	var result models.BulkApproveResult
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if _, err := s.Approve(ctx, id); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[id] = err.Error()
			if !errors.Is(err, models.ErrNotPending) && !errors.Is(err, models.ErrSubmissionNotFound) {
				log.Printf("Bulk approve of %s failed: %v", id, err)
			}
			continue
		}
		result.Approved++
	}
	if len(seen) == 0 {
		return result, models.ErrNothingSelected
	}
	return result, nil
}

// PendingReview lists pending submissions with their task title and reward.
func (s *TaskService) PendingReview(ctx context.Context) ([]models.PendingSubmission, error) {
	subs, err := s.subs.ListSubmissionsByStatus(ctx, models.SubmissionPending)
	if err != nil {
		return nil, err
	}

	cache := make(map[string]*models.Task)
	out := make([]models.PendingSubmission, 0, len(subs))
	for _, sub := range subs {
		task, ok := cache[sub.TaskID]
		if !ok {
			task, err = s.tasks.GetTask(ctx, sub.TaskID)
			if err != nil && !errors.Is(err, models.ErrTaskNotFound) {
				return nil, err
			}
			cache[sub.TaskID] = task
		}

		p := models.PendingSubmission{Submission: sub, TaskTitle: "Deleted Task"}
		if task != nil {
			p.TaskTitle, p.TaskReward = task.Title, task.Reward
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *TaskService) RecentTasks(ctx context.Context, limit int) ([]models.Task, error) {
	return s.tasks.ListTasks(ctx, limit)
}
