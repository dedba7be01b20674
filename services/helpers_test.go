package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/repositories/memory"
	"github.com/HSouheill/taskreward_backend/services"
)

type fakeVerifier struct {
	identities map[string]*services.Identity
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*services.Identity, error) {
	id, ok := f.identities[token]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return id, nil
}

type fakeImageHost struct {
	mu      sync.Mutex
	uploads int
	err     error
}

func (f *fakeImageHost) Upload(_ context.Context, _ []byte, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	return "https://i.ibb.co/proof/" + filename, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// requireBalanceMatchesHistory checks that a user's balance equals the sum of their history.
func requireBalanceMatchesHistory(t *testing.T, store *memory.Store, uid string) {
	t.Helper()
	ctx := context.Background()
	user, err := store.GetUser(ctx, uid)
	require.NoError(t, err)
	amounts, err := store.HistoryAmounts(ctx, uid)
	require.NoError(t, err)

	var sum float64
	for _, a := range amounts {
		sum += a
	}
	require.InDelta(t, user.Balance, sum, 0.001, "balance drifted from history for %s", uid)
}

func seedTask(t *testing.T, store *memory.Store, title string, reward float64) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, Reward: reward, ProofRequirement: models.ProofText}
	require.NoError(t, store.CreateTask(context.Background(), task))
	return task
}
