package reminder

import (
	"context"
	"log"
	"time"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/schedule"
	"fieldservice-backend/internal/store"
)

// Sweeper periodically finds tomorrow's scheduled visits and dispatches a
// reminder job for each. It stands in for the deployment's external cron
// trigger during development; the sweep itself is idempotent only per
// process, so the interval should be generous.
type Sweeper struct {
	cfg      *config.ReminderConfig
	store    store.Store
	pool     *WorkerPool
	now      func() time.Time
	notified map[int64]struct{}
}

// NewSweeper creates a reminder sweeper backed by the given worker pool.
func NewSweeper(cfg *config.ReminderConfig, s store.Store, pool *WorkerPool) *Sweeper {
	return &Sweeper{
		cfg:      cfg,
		store:    s,
		pool:     pool,
		now:      time.Now,
		notified: make(map[int64]struct{}),
	}
}

// Run starts the sweep loop. It returns when ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Reminder sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting reminder sweeper...")

	s.pool.Start(ctx)
	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce dispatches reminders for every scheduled visit dated tomorrow
// that this process has not reminded about yet.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	tomorrow := schedule.DateOnly(s.now()).AddDate(0, 0, 1)

	visits, err := s.store.ListVisits(ctx, store.VisitFilter{
		Status: model.VisitScheduled,
		From:   &tomorrow,
		To:     &tomorrow,
	})
	if err != nil {
		log.Printf("Reminder sweep failed to list visits: %v", err)
		return
	}

	dispatched := 0
	for _, v := range visits {
		if _, seen := s.notified[v.ID]; seen {
			continue
		}
		s.notified[v.ID] = struct{}{}
		s.pool.Dispatch(v.ID)
		dispatched++
	}
	if dispatched > 0 {
		log.Printf("Reminder sweep dispatched %d visits for %s", dispatched, tomorrow.Format(schedule.DateLayout))
	}
}
