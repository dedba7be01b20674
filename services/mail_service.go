package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/HSouheill/taskreward_backend/models"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailService sends notifications to the administrator mailbox.
type MailService struct {
	cfg        SMTPConfig
	adminEmail string
}

func NewMailService(cfg SMTPConfig, adminEmail string) *MailService {
	return &MailService{cfg: cfg, adminEmail: adminEmail}
}

func (m *MailService) SendAdmin(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.adminEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func withdrawalMail(req *models.WithdrawRequest) (string, string) {
	subject := fmt.Sprintf("New withdrawal request: %.2f", req.Amount)
	body := fmt.Sprintf("User: %s (%s)\nAmount: %.2f\nMethod: %s\nNumber: %s\nRequested: %s\n",
		req.Email, req.UID, req.Amount, req.Method, req.Number, req.Timestamp.Format("2006-01-02 15:04:05"))
	return subject, body
}
