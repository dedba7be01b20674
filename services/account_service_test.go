package services_test

import (
	"bytes"
	"context"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/repositories/memory"
	"github.com/HSouheill/taskreward_backend/services"
)

type recordingAlerter struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (a *recordingAlerter) Alert(_ context.Context, text string) error {
	a.mu.Lock()
	a.sent = append(a.sent, text)
	a.mu.Unlock()
	close(a.done)
	return nil
}

func TestDashboardAggregatesAccount(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	store.PutUser(models.User{ID: "ref", Name: "Referrer"})
	_, err := store.CreateUser(ctx, &models.User{ID: "kid", Name: "Kid"}, &models.ReferralGrant{
		ReferrerID: "ref", SignupBonus: 10, ReferralBonus: 10,
	})
	require.NoError(t, err)
	task := seedTask(t, store, "T", 1)
	require.NoError(t, store.CreateSubmission(ctx, &models.Submission{
		UID: "ref", TaskID: task.ID.Hex(), Status: models.SubmissionPending,
	}))
	require.NoError(t, store.SetSystemNotice(ctx, models.SystemNotice{Text: "Maintenance tonight"}))

	svc := services.NewAccountService(store, store, store, store, nil, nil, "https://tasks.example.com")
	dash, err := svc.Dashboard(ctx, "ref")
	require.NoError(t, err)

	assert.Equal(t, "ref", dash.UID)
	assert.Equal(t, 10.0, dash.User.Balance)
	require.Len(t, dash.History, 1)
	require.Len(t, dash.Referrals, 1)
	assert.Equal(t, "Kid", dash.Referrals[0].Name)
	assert.Equal(t, models.SubmissionStats{Pending: 1}, dash.Stats)
	require.NotNil(t, dash.SystemNotice)
	assert.Equal(t, "Maintenance tonight", dash.SystemNotice.Text)
}

func TestSubmitKYCStoresDetailsAndAlerts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	store.PutUser(models.User{ID: "u", Email: "u@example.com"})
	alerter := &recordingAlerter{done: make(chan struct{})}
	events := &recordingPublisher{}
	svc := services.NewAccountService(store, store, store, store, alerter, events, "")

	err := svc.SubmitKYC(ctx, "u", models.KYCRequest{
		Name: "Jane <b>Doe</b>", Address: "12 Road", Phone: "+880 1700-000000", DOB: "1990-01-01", Education: "BSc",
	}, "203.0.113.7")
	require.NoError(t, err)

	user, err := store.GetUser(ctx, "u")
	require.NoError(t, err)
	assert.True(t, user.KYCSubmitted)
	assert.Equal(t, "+8801700000000", user.Phone)
	require.NotNil(t, user.KYC)
	assert.Equal(t, "203.0.113.7", user.KYC.IP)
	assert.Equal(t, "Jane <b>Doe</b>", user.KYC.Name)

	select {
	case <-alerter.done:
	case <-time.After(2 * time.Second):
		t.Fatal("KYC alert was not sent")
	}
	alerter.mu.Lock()
	assert.Contains(t, alerter.sent[0], "New KYC Submission")
	assert.Contains(t, alerter.sent[0], "Jane &lt;b&gt;Doe&lt;/b&gt;")
	alerter.mu.Unlock()
	assert.Equal(t, []string{models.EventKYCSubmitted}, events.types())
}

func TestKYCAlertEscapesOnce(t *testing.T) {
	store := memory.New()
	store.PutUser(models.User{ID: "u", Email: "u@example.com"})
	alerter := &recordingAlerter{done: make(chan struct{})}
	svc := services.NewAccountService(store, store, store, store, alerter, &recordingPublisher{}, "")

	err := svc.SubmitKYC(context.Background(), "u", models.KYCRequest{
		Name: "O'Brien & Sons", Address: "5 <Main> St", Phone: "+8801700000000", DOB: "1990-01-01", Education: "BSc",
	}, "203.0.113.7")
	require.NoError(t, err)

	select {
	case <-alerter.done:
	case <-time.After(2 * time.Second):
		t.Fatal("KYC alert was not sent")
	}
	alerter.mu.Lock()
	defer alerter.mu.Unlock()
	assert.Contains(t, alerter.sent[0], "O&#39;Brien &amp; Sons")
	assert.Contains(t, alerter.sent[0], "5 &lt;Main&gt; St")
	assert.NotContains(t, alerter.sent[0], "&amp;amp;")
	assert.NotContains(t, alerter.sent[0], "&amp;#39;")
}

func TestSubmitKYCRejectsBadPhone(t *testing.T) {
	store := memory.New()
	store.PutUser(models.User{ID: "u"})
	svc := services.NewAccountService(store, store, store, store, nil, nil, "")

	err := svc.SubmitKYC(context.Background(), "u", models.KYCRequest{Name: "A", Address: "B", Phone: "12", DOB: "C"}, "")
	assert.ErrorIs(t, err, models.ErrInvalidPhone)
}

func TestReferralQRCodeEncodesSignupLink(t *testing.T) {
	store := memory.New()
	svc := services.NewAccountService(store, store, store, store, nil, nil, "https://tasks.example.com/")

	data, link, err := svc.ReferralQRCode("uid-42")
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com/auth?ref=uid-42", link)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
