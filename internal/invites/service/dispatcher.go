package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/metrics"
	"github.com/magicontap/tapdash/internal/invites/provider"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/pkg/cryptox"
)

type DispatcherConfig struct {
	Interval    time.Duration
	Lease       time.Duration
	BatchSize   int
	MaxAttempts int
}

// DispatchRun is the outcome of one outbox pass.
type DispatchRun struct {
	Claimed int
	Sent    int
	Dropped int
	Retried int
	Dead    int
}

// Dispatcher works the invite outbox: rows whose synchronous send never got
// recorded (crash, lost lease) and rows waiting on a retry.
type Dispatcher struct {
	Store   store.Store
	Sender  provider.Sender
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Config  DispatcherConfig

	now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewDispatcher(st store.Store, sender provider.Sender, m *metrics.Metrics, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = DefaultOutboxLease
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		Store:   st,
		Sender:  sender,
		Metrics: m,
		Logger:  logger,
		Config:  cfg,
		now:     func() time.Time { return time.Now().UTC() },
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start runs the outbox loop in the background until Stop.
func (d *Dispatcher) Start() {
	go d.run()
	d.Logger.Info("outbox dispatcher started", slog.Duration("interval", d.Config.Interval))
}

// Stop waits for an in-flight pass to finish.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.doneCh
	d.Logger.Info("outbox dispatcher stopped")
}

func (d *Dispatcher) run() {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Dispatcher) tick() {
	ctx := context.Background()

	res, err := d.RunOnce(ctx)
	if err != nil {
		d.Logger.Error("outbox pass failed", slog.Any("error", err))
	} else if res.Claimed > 0 {
		d.Logger.Info("outbox pass completed",
			slog.Int("claimed", res.Claimed),
			slog.Int("sent", res.Sent),
			slog.Int("dropped", res.Dropped),
			slog.Int("retried", res.Retried),
			slog.Int("dead", res.Dead),
		)
	}

	if sum, err := d.Summary(ctx); err == nil {
		d.Metrics.SetOutbox(sum)
	}
}

// RunOnce claims the due rows and tries each once.
func (d *Dispatcher) RunOnce(ctx context.Context) (DispatchRun, error) {
	now := d.now()

	var claimed []domain.Dispatch
	err := d.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		claimed, err = tx.Dispatches().ClaimDueDispatches(ctx, now, now.Add(d.Config.Lease), d.Config.BatchSize)
		return err
	})
	if err != nil {
		return DispatchRun{}, err
	}

	res := DispatchRun{Claimed: len(claimed)}
	for _, row := range claimed {
		switch d.process(ctx, row) {
		case outcomeSent:
			res.Sent++
		case outcomeDropped:
			res.Dropped++
		case outcomeRetry:
			res.Retried++
		case outcomeDead:
			res.Dead++
		}
	}
	return res, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeDropped
	outcomeRetry
	outcomeDead
	outcomeError
)

func (d *Dispatcher) process(ctx context.Context, row domain.Dispatch) outcome {
	log := d.Logger.With(slog.String("dispatch_id", row.ID), slog.String("invitation_id", row.InvitationID))

	inv, err := d.Store.Invitations().GetInvitationByID(ctx, row.InvitationID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return d.drop(ctx, log, row, "invitation gone")
	case err != nil:
		log.Error("failed to load invitation", slog.Any("error", err))
		return outcomeError
	case !inv.IsPending():
		return d.drop(ctx, log, row, "invitation no longer pending")
	case inv.Overdue(d.now()):
		return d.drop(ctx, log, row, "invitation expired")
	case inv.SentAt != nil && !inv.SentAt.Before(row.CreatedAt):
		// The request path got the email out and failed to clean up after.
		return d.drop(ctx, log, row, "already sent")
	}

	user, err := d.Sender.SendInvite(ctx, provider.Invite{
		Email:      row.Email,
		RedirectTo: row.RedirectTo,
		Role:       row.Role,
	})
	d.Metrics.DispatchAttempt("outbox", err == nil)
	if err == nil {
		if err := markSent(ctx, d.Store, inv.ID, row.ID, user.ID, d.now()); err != nil {
			log.Error("failed to record sent invitation", slog.Any("error", err))
			return outcomeError
		}
		log.Info("invite sent from outbox", slog.String("email_fp", cryptox.EmailFingerprint(inv.Email)))
		return outcomeSent
	}

	attempts := row.Attempts + 1
	now := d.now()
	status := domain.DispatchPending
	if attempts >= d.Config.MaxAttempts {
		status = domain.DispatchDead
	}
	next := now.Add(domain.Backoff(attempts))

	if rerr := d.Store.Dispatches().RetryDispatch(ctx, row.ID, status, attempts, next, err.Error(), now); rerr != nil {
		log.Error("failed to record dispatch failure", slog.Any("error", rerr))
		return outcomeError
	}

	if status == domain.DispatchDead {
		log.Error("dispatch gave up", slog.Int("attempts", attempts), slog.Any("error", err))
		return outcomeDead
	}
	log.Warn("dispatch failed, will retry",
		slog.Int("attempts", attempts),
		slog.Time("next_attempt_at", next),
		slog.Any("error", err),
	)
	return outcomeRetry
}

func (d *Dispatcher) drop(ctx context.Context, log *slog.Logger, row domain.Dispatch, why string) outcome {
	if err := d.Store.Dispatches().CompleteDispatch(ctx, row.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to drop dispatch", slog.Any("error", err))
		return outcomeError
	}
	log.Info("dispatch dropped", slog.String("reason", why))
	return outcomeDropped
}

// Summary counts outbox rows per status.
func (d *Dispatcher) Summary(ctx context.Context) (domain.DispatchSummary, error) {
	return d.Store.Dispatches().Summary(ctx)
}
