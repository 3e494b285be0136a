package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/magicontap/tapdash/internal/invites/metrics"
	"github.com/magicontap/tapdash/internal/invites/store"
)

// SweepResult reports what one housekeeping pass changed.
type SweepResult struct {
	Expired        int64
	DeadDispatches int64
}

// HousekeepingService periodically expires overdue invitations and clears
// dead outbox rows nobody needs any more.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Interval time.Duration

	now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Metrics:  m,
		Interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop blocks until an in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once on startup so a long outage doesn't leave stale rows
	// around until the first tick.
	s.sweepAndLog()

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweepAndLog() {
	res, err := s.Sweep(context.Background())
	if err != nil {
		s.Logger.Error("housekeeping sweep failed", slog.Any("error", err))
	}
	s.Logger.Info("housekeeping sweep completed",
		slog.Int64("expired", res.Expired),
		slog.Int64("dead_dispatches", res.DeadDispatches),
	)
}

// Sweep runs both cleanups. They're independent, a failure in one doesn't
// stop the other; the first error is returned.
func (s *HousekeepingService) Sweep(ctx context.Context) (SweepResult, error) {
	var (
		res      SweepResult
		firstErr error
	)

	n, err := s.Store.Invitations().ExpireInvitations(ctx, s.now())
	if err != nil {
		s.Logger.Error("failed to expire invitations", slog.Any("error", err))
		firstErr = err
	} else {
		res.Expired = n
		s.Metrics.Expired(n)
	}

	n, err = s.Store.Dispatches().DeleteDeadDispatches(ctx)
	if err != nil {
		s.Logger.Error("failed to delete dead dispatches", slog.Any("error", err))
		if firstErr == nil {
			firstErr = err
		}
	} else {
		res.DeadDispatches = n
	}

	return res, firstErr
}
