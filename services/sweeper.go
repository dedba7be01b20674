package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HSouheill/taskreward_backend/metrics"
	"github.com/HSouheill/taskreward_backend/models"
)

// Sweeper prunes old records. Runs never overlap; a run that finds another in progress
// returns an empty result.
type Sweeper struct {
	store     MaintenanceStore
	retention time.Duration
	batch     int

	mu   sync.Mutex
	cron *cron.Cron
	now  func() time.Time
}

func NewSweeper(store MaintenanceStore, retention time.Duration, batch int) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		batch:     batch,
		now:       time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) (models.SweepResult, error) {
	if !s.mu.TryLock() {
		return models.SweepResult{}, nil
	}
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	res, err := s.store.Sweep(ctx, cutoff, s.batch)
	if err != nil {
		return res, fmt.Errorf("cleanup sweep: %w", err)
	}
	metrics.RecordSweep(res)
	if res.Submissions+res.History+res.Withdrawals > 0 {
		log.Printf("Cleanup removed %d submissions, %d history entries, %d withdraw requests",
			res.Submissions, res.History, res.Withdrawals)
	}
	return res, nil
}

// Start schedules Run on a cron spec such as "@every 6h" or "0 3 * * *".
func (s *Sweeper) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			log.Printf("Scheduled cleanup failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	log.Printf("Cleanup scheduled: %s", spec)
	return nil
}

// Stop waits for a running scheduled sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
