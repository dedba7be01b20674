package services

import (
	"context"

	"github.com/HSouheill/taskreward_backend/models"
)

// Identity is what a verified ID token tells us about the caller.
type Identity struct {
	UID   string
	Email string
}

type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// ImageHost stores proof images and returns their public URL.
type ImageHost interface {
	Upload(ctx context.Context, image []byte, filename string) (string, error)
}

// Alerter delivers short HTML-formatted operator alerts.
type Alerter interface {
	Alert(ctx context.Context, html string) error
}

// Mailer sends plain-text mail to the administrator.
type Mailer interface {
	SendAdmin(ctx context.Context, subject, body string) error
}

// Publisher fans events out to live admin consoles.
type Publisher interface {
	Publish(event models.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}

type nopAlerter struct{}

func (nopAlerter) Alert(context.Context, string) error { return nil }

type nopMailer struct{}

func (nopMailer) SendAdmin(context.Context, string, string) error { return nil }

// Rules are the product thresholds that drive the economy.
type Rules struct {
	SignupBonus        float64
	ReferralBonus      float64
	WithdrawMinimum    float64
	EligibleBalance    float64
	EligibleReferrals  int
	TaskCandidateLimit int
	TaskVisibleLimit   int
}

func DefaultRules() Rules {
	return Rules{
		SignupBonus:        10,
		ReferralBonus:      10,
		WithdrawMinimum:    50,
		EligibleBalance:    250,
		EligibleReferrals:  3,
		TaskCandidateLimit: 10,
		TaskVisibleLimit:   2,
	}
}
