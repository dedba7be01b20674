package services

import (
	"context"
	"log"
	"time"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/utils"
)

const dashboardHistoryLimit = 50

// AccountService serves the user's own account pages.
type AccountService struct {
	users     UserStore
	ledger    LedgerStore
	subs      SubmissionStore
	notices   NoticeStore
	alerter   Alerter
	events    Publisher
	publicURL string
}

func NewAccountService(users UserStore, ledger LedgerStore, subs SubmissionStore, notices NoticeStore, alerter Alerter, events Publisher, publicURL string) *AccountService {
	if alerter == nil {
		alerter = nopAlerter{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &AccountService{
		users:     users,
		ledger:    ledger,
		subs:      subs,
		notices:   notices,
		alerter:   alerter,
		events:    events,
		publicURL: publicURL,
	}
}

func (s *AccountService) Dashboard(ctx context.Context, uid string) (*models.Dashboard, error) {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	history, err := s.ledger.ListHistory(ctx, uid, dashboardHistoryLimit)
	if err != nil {
		return nil, err
	}
	referred, err := s.users.ListReferrals(ctx, uid)
	if err != nil {
		return nil, err
	}
	stats, err := s.subs.SubmissionStats(ctx, uid)
	if err != nil {
		return nil, err
	}
	notice, err := s.notices.GetSystemNotice(ctx)
	if err != nil {
		log.Printf("Failed to load system notice: %v", err)
	}

	referrals := make([]models.Referral, len(referred))
	for i, u := range referred {
		referrals[i] = models.Referral{Name: u.Name, Joined: u.CreatedAt}
	}

	return &models.Dashboard{
		User:         user,
		History:      history,
		Referrals:    referrals,
		Stats:        stats,
		SystemNotice: notice,
		UID:          uid,
	}, nil
}

func (s *AccountService) Profile(ctx context.Context, uid string) (*models.User, error) {
	return s.users.GetUser(ctx, uid)
}

// SubmitKYC stores the user's identity details and alerts the operators.
func (s *AccountService) SubmitKYC(ctx context.Context, uid string, form models.KYCRequest, ip string) error {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return err
	}

	phone, err := utils.SanitizePhone(form.Phone)
	if err != nil {
		return models.ErrInvalidPhone
	}
	kyc := models.KYC{
		Name:      utils.CleanText(form.Name, utils.MaxLineText),
		Address:   utils.CleanText(form.Address, utils.MaxLineText),
		DOB:       utils.CleanText(form.DOB, utils.MaxLineText),
		Education: utils.CleanText(form.Education, utils.MaxLineText),
		IP:        ip,
		Timestamp: time.Now(),
	}
	if err := s.users.SaveKYC(ctx, uid, phone, kyc); err != nil {
		return err
	}

	go func() {
		alertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.alerter.Alert(alertCtx, KYCAlert(user, kyc, phone)); err != nil {
			log.Printf("Failed to send KYC alert for %s: %v", uid, err)
		}
	}()
	s.events.Publish(models.Event{
		Type: models.EventKYCSubmitted,
		Data: map[string]string{"uid": uid, "email": user.Email, "name": kyc.Name},
		Time: kyc.Timestamp,
	})
	return nil
}

// ReferralQRCode renders the user's referral sign-up link as a PNG QR code.
func (s *AccountService) ReferralQRCode(uid string) ([]byte, string, error) {
	link := utils.ReferralLink(s.publicURL, uid)
	png, err := utils.ReferralQRCode(link)
	if err != nil {
		return nil, "", err
	}
	return png, link, nil
}

func (s *AccountService) Notices(ctx context.Context) ([]models.Notice, error) {
	return s.notices.ListNotices(ctx)
}
