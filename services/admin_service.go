package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/utils"
)

const (
	usersPerPage     = 20
	consoleTaskLimit = 20
)

// AdminService backs the admin console.
type AdminService struct {
	users   UserStore
	notices NoticeStore
	tasks   *TaskService
	wallet  *WalletService
	sweeper *Sweeper
}

func NewAdminService(users UserStore, notices NoticeStore, tasks *TaskService, wallet *WalletService, sweeper *Sweeper) *AdminService {
	return &AdminService{
		users:   users,
		notices: notices,
		tasks:   tasks,
		wallet:  wallet,
		sweeper: sweeper,
	}
}

// Console collects the review queues. A cleanup sweep runs first; its failure is only logged.
func (s *AdminService) Console(ctx context.Context) (*models.AdminConsole, error) {
	console := &models.AdminConsole{}

	if s.sweeper != nil {
		res, err := s.sweeper.Run(ctx)
		if err != nil {
			log.Printf("Inline cleanup failed: %v", err)
		} else {
			console.Cleanup = &res
		}
	}

	var err error
	if console.PendingTasks, err = s.tasks.PendingReview(ctx); err != nil {
		return nil, err
	}
	if console.PendingWithdraws, err = s.wallet.PendingWithdrawals(ctx); err != nil {
		return nil, err
	}
	if console.ActivationRequests, err = s.wallet.PendingActivations(ctx); err != nil {
		return nil, err
	}
	if console.ActiveTasks, err = s.tasks.RecentTasks(ctx, consoleTaskLimit); err != nil {
		return nil, err
	}
	return console, nil
}

func (s *AdminService) Users(ctx context.Context, page int) (*models.UsersPage, error) {
	if page < 1 {
		page = 1
	}
	users, hasNext, err := s.users.ListUsers(ctx, page, usersPerPage)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return &models.UsersPage{
		Users:   users,
		Page:    page,
		HasNext: hasNext,
		HasPrev: page > 1,
	}, nil
}

func (s *AdminService) SetBanned(ctx context.Context, uid string, banned bool) error {
	return s.users.SetBanned(ctx, uid, banned)
}

func (s *AdminService) DeleteUser(ctx context.Context, uid string) error {
	return s.users.DeleteUser(ctx, uid)
}

func (s *AdminService) PublishNotice(ctx context.Context, form models.NoticeForm) (*models.Notice, error) {
	notice := &models.Notice{
		Title:   utils.CleanText(form.Title, utils.MaxLineText),
		Message: utils.CleanText(form.Message, utils.MaxLongText),
		Date:    time.Now(),
	}
	if err := s.notices.PublishNotice(ctx, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

func (s *AdminService) UpdateSystemNotice(ctx context.Context, text, link string) (*models.SystemNotice, error) {
	notice := models.SystemNotice{
		Text:      utils.CleanText(text, utils.MaxLongText),
		Link:      strings.TrimSpace(link),
		UpdatedAt: time.Now(),
	}
	if err := s.notices.SetSystemNotice(ctx, notice); err != nil {
		return nil, err
	}
	return &notice, nil
}
