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
	"github.com/magicontap/tapdash/pkg/idx"
	"github.com/magicontap/tapdash/pkg/slogx"
)

const (
	DefaultRedirectURL = "https://tap-magic-dashboard.lovable.app/signin"
	DefaultInviteTTL   = 7 * 24 * time.Hour
	DefaultOutboxLease = 2 * time.Minute

	DefaultListLimit = 50
	MaxListLimit     = 200
)

type IssuerConfig struct {
	DefaultRedirectURL string
	InviteTTL          time.Duration

	// OutboxLease is how long the request path owns a freshly enqueued
	// dispatch before the outbox worker may pick it up.
	OutboxLease time.Duration
}

// IssueRequest is the raw input of an invite, before defaults.
type IssueRequest struct {
	Email      string
	Role       string
	RedirectTo string
}

// ListFilter selects a page of invitations.
type ListFilter struct {
	Status string
	Email  string
	Limit  int

	// Before is the id of the last row of the previous page.
	Before string
}

// ListResult is one page. NextBefore is empty on the last page.
type ListResult struct {
	Invitations []domain.Invitation
	NextBefore  string
}

// Issuer creates invitations and gets the invite emails out.
type Issuer struct {
	Store   store.Store
	Sender  provider.Sender
	Metrics *metrics.Metrics
	Config  IssuerConfig

	now func() time.Time
}

func NewIssuer(st store.Store, sender provider.Sender, m *metrics.Metrics, cfg IssuerConfig) *Issuer {
	if cfg.DefaultRedirectURL == "" {
		cfg.DefaultRedirectURL = DefaultRedirectURL
	}
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = DefaultInviteTTL
	}
	if cfg.OutboxLease <= 0 {
		cfg.OutboxLease = DefaultOutboxLease
	}
	return &Issuer{
		Store:   st,
		Sender:  sender,
		Metrics: m,
		Config:  cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type normalized struct {
	Email      string
	Role       domain.Role
	RedirectTo string
}

func (s *Issuer) normalize(caller domain.Caller, req IssueRequest) (normalized, error) {
	if !caller.Role.CanManageInvitations() {
		return normalized{}, ErrForbidden
	}

	n := normalized{
		Email:      NormalizeEmail(req.Email),
		RedirectTo: req.RedirectTo,
	}
	if !validEmail(n.Email) {
		return normalized{}, ErrInvalidEmail
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return normalized{}, ErrInvalidRole
	}
	n.Role = role

	if n.RedirectTo == "" {
		n.RedirectTo = s.Config.DefaultRedirectURL
	}
	if !validRedirect(n.RedirectTo) {
		return normalized{}, ErrInvalidRedirect
	}

	if !caller.Role.CanGrant(n.Role) {
		return normalized{}, ErrForbiddenRole
	}
	return n, nil
}

// Issue creates a pending invitation for req.Email and has the provider send
// the invite email. Either both happen or neither: a provider failure
// removes the record again.
func (s *Issuer) Issue(ctx context.Context, caller domain.Caller, req IssueRequest) (domain.Invitation, error) {
	n, err := s.normalize(caller, req)
	if err != nil {
		s.Metrics.IssueFailed(failureReason(err))
		return domain.Invitation{}, err
	}

	ctx = slogx.With(ctx,
		slog.String("email_fp", cryptox.EmailFingerprint(n.Email)),
		slog.String("role", n.Role.String()),
	)
	log := slogx.FromContext(ctx)

	// 1. Fast path, nothing is written when the address is already taken.
	if err := s.checkNoPending(ctx, n.Email); err != nil {
		s.Metrics.IssueFailed(failureReason(err))
		return domain.Invitation{}, err
	}

	// 2. Record and outbox row go in together. The unique index on pending
	// emails settles races with a concurrent Issue for the same address.
	now := s.now()
	expiresAt := now.Add(s.Config.InviteTTL)
	inv := domain.Invitation{
		ID:         idx.NewAt(now).String(),
		Email:      n.Email,
		Role:       n.Role,
		Status:     domain.StatusPending,
		RedirectTo: n.RedirectTo,
		InvitedBy:  caller.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  &expiresAt,
	}
	dispatch := s.leasedDispatch(inv, now)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			return err
		}
		return tx.Dispatches().EnqueueDispatch(ctx, dispatch)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		err = s.duplicateOf(ctx, n.Email)
	}
	if err != nil {
		s.Metrics.IssueFailed(failureReason(err))
		if !errors.Is(err, ErrDuplicatePending) {
			log.Error("failed to persist invitation", slog.Any("error", err))
		}
		return domain.Invitation{}, err
	}

	// 3. Send. On failure take the record back out so the address can be
	// invited again straight away.
	user, err := s.Sender.SendInvite(ctx, provider.Invite{
		Email:      inv.Email,
		RedirectTo: inv.RedirectTo,
		Role:       inv.Role,
	})
	s.Metrics.DispatchAttempt("sync", err == nil)
	if err != nil {
		derr := toDispatchError(err)
		log.Warn("invite dispatch failed", slog.Int("status", derr.StatusCode), slog.Any("error", err))

		if cerr := s.Store.Invitations().DeleteInvitation(context.WithoutCancel(ctx), inv.ID); cerr != nil {
			// The leased dispatch row is still there, the outbox will retry
			// once the lease runs out.
			log.Error("failed to remove invitation after dispatch failure",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", cerr),
			)
		}
		s.Metrics.IssueFailed(failureReason(derr))
		return domain.Invitation{}, derr
	}

	// 4. Best effort bookkeeping, the email is already out.
	sentAt := s.now()
	if err := markSent(context.WithoutCancel(ctx), s.Store, inv.ID, dispatch.ID, user.ID, sentAt); err != nil {
		log.Error("failed to record sent invitation", slog.String("invitation_id", inv.ID), slog.Any("error", err))
	} else {
		inv.SentAt = &sentAt
		inv.ProviderUserID = user.ID
		inv.UpdatedAt = sentAt
	}

	s.Metrics.Issued(inv.Role)
	log.Info("invitation issued", slog.String("invitation_id", inv.ID), slog.String("invited_by", caller.UserID))
	return inv, nil
}

// checkNoPending returns a DuplicatePendingError when email already has a
// live pending invitation. One that is past its expiry but not yet swept is
// expired here instead.
func (s *Issuer) checkNoPending(ctx context.Context, email string) error {
	existing, err := s.Store.Invitations().GetPendingInvitationByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return err
	}

	now := s.now()
	if !existing.Overdue(now) {
		return &DuplicatePendingError{Existing: existing}
	}

	if _, err := s.Store.Invitations().ExpireInvitations(ctx, now); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("expired overdue invitation", slog.String("invitation_id", existing.ID))
	return nil
}

func (s *Issuer) duplicateOf(ctx context.Context, email string) error {
	winner, err := s.Store.Invitations().GetPendingInvitationByEmail(ctx, email)
	if err != nil {
		// The other invitation vanished again (its dispatch failed). Still a
		// duplicate from this caller's point of view.
		return &DuplicatePendingError{}
	}
	return &DuplicatePendingError{Existing: winner}
}

func (s *Issuer) leasedDispatch(inv domain.Invitation, now time.Time) domain.Dispatch {
	return domain.Dispatch{
		ID:            idx.NewAt(now).String(),
		InvitationID:  inv.ID,
		Email:         inv.Email,
		Role:          inv.Role,
		RedirectTo:    inv.RedirectTo,
		Status:        domain.DispatchProcessing,
		NextAttemptAt: now.Add(s.Config.OutboxLease),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Resend sends the invite email for an invitation again. An expired
// invitation is re-issued as a fresh pending one.
func (s *Issuer) Resend(ctx context.Context, caller domain.Caller, id string) (domain.Invitation, error) {
	if !caller.Role.CanManageInvitations() {
		return domain.Invitation{}, ErrForbidden
	}

	inv, err := s.get(ctx, id)
	if err != nil {
		return domain.Invitation{}, err
	}
	if !caller.Role.CanGrant(inv.Role) {
		return domain.Invitation{}, ErrForbiddenRole
	}

	ctx = slogx.With(ctx,
		slog.String("invitation_id", inv.ID),
		slog.String("email_fp", cryptox.EmailFingerprint(inv.Email)),
	)
	log := slogx.FromContext(ctx)

	now := s.now()
	if inv.Overdue(now) {
		if _, err := s.Store.Invitations().ExpireInvitations(ctx, now); err != nil {
			return domain.Invitation{}, err
		}
		inv.Status = domain.StatusExpired
	}

	switch inv.Status {
	case domain.StatusAccepted:
		return domain.Invitation{}, ErrInvitationAccepted
	case domain.StatusExpired:
		log.Info("re-issuing expired invitation")
		return s.Issue(ctx, caller, IssueRequest{
			Email:      inv.Email,
			Role:       string(inv.Role),
			RedirectTo: inv.RedirectTo,
		})
	}

	// Pending: replace whatever the outbox holds for it with a fresh lease.
	dispatch := s.leasedDispatch(inv, now)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Dispatches().DeleteDispatchesForInvitation(ctx, inv.ID); err != nil {
			return err
		}
		return tx.Dispatches().EnqueueDispatch(ctx, dispatch)
	})
	if err != nil {
		log.Error("failed to enqueue resend", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	user, err := s.Sender.SendInvite(ctx, provider.Invite{
		Email:      inv.Email,
		RedirectTo: inv.RedirectTo,
		Role:       inv.Role,
	})
	s.Metrics.DispatchAttempt("sync", err == nil)
	if err != nil {
		derr := toDispatchError(err)
		log.Warn("resend dispatch failed", slog.Int("status", derr.StatusCode), slog.Any("error", err))
		if cerr := s.Store.Dispatches().CompleteDispatch(context.WithoutCancel(ctx), dispatch.ID); cerr != nil && !errors.Is(cerr, store.ErrNotFound) {
			log.Error("failed to drop resend dispatch", slog.Any("error", cerr))
		}
		return domain.Invitation{}, derr
	}

	sentAt := s.now()
	if err := markSent(context.WithoutCancel(ctx), s.Store, inv.ID, dispatch.ID, user.ID, sentAt); err != nil {
		log.Error("failed to record resent invitation", slog.Any("error", err))
	} else {
		inv.SentAt = &sentAt
		inv.UpdatedAt = sentAt
		if user.ID != "" {
			inv.ProviderUserID = user.ID
		}
	}

	log.Info("invitation resent", slog.String("resent_by", caller.UserID))
	return inv, nil
}

// Get returns one invitation.
func (s *Issuer) Get(ctx context.Context, caller domain.Caller, id string) (domain.Invitation, error) {
	if !caller.Role.CanManageInvitations() {
		return domain.Invitation{}, ErrForbidden
	}
	return s.get(ctx, id)
}

func (s *Issuer) get(ctx context.Context, id string) (domain.Invitation, error) {
	if !idx.Valid(id) {
		return domain.Invitation{}, ErrInvitationNotFound
	}
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, ErrInvitationNotFound
	}
	return inv, err
}

// List returns invitations newest first.
func (s *Issuer) List(ctx context.Context, caller domain.Caller, f ListFilter) (ListResult, error) {
	if !caller.Role.CanManageInvitations() {
		return ListResult{}, ErrForbidden
	}

	p := store.ListInvitationsParams{
		Email:  NormalizeEmail(f.Email),
		Before: f.Before,
		Limit:  f.Limit,
	}
	if f.Status != "" {
		p.Status = domain.InvitationStatus(f.Status)
		if !p.Status.Valid() {
			return ListResult{}, ErrInvalidStatus
		}
	}
	if p.Before != "" && !idx.Valid(p.Before) {
		return ListResult{}, ErrInvalidCursor
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultListLimit
	case p.Limit > MaxListLimit:
		p.Limit = MaxListLimit
	}

	rows, err := s.Store.Invitations().ListInvitations(ctx, p)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list invitations", slog.Any("error", err))
		return ListResult{}, err
	}

	res := ListResult{Invitations: rows}
	if len(rows) == p.Limit {
		res.NextBefore = rows[len(rows)-1].ID
	}
	return res, nil
}

// markSent drops the dispatch row and stamps the invitation in one go.
func markSent(ctx context.Context, st store.Store, invitationID, dispatchID, providerUserID string, at time.Time) error {
	return st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Dispatches().CompleteDispatch(ctx, dispatchID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Invitations().MarkInvitationSent(ctx, invitationID, providerUserID, at)
	})
}

func toDispatchError(err error) *DispatchError {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return &DispatchError{StatusCode: pe.StatusCode, Message: pe.Message, Err: err}
	}
	return &DispatchError{Message: provider.DefaultErrorMessage, Err: err}
}

func failureReason(err error) string {
	switch {
	case IsValidation(err):
		return "invalid"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrForbiddenRole):
		return "forbidden"
	case errors.Is(err, ErrDuplicatePending):
		return "duplicate"
	case errors.Is(err, ErrDispatchFailed):
		return "dispatch"
	default:
		return "internal"
	}
}
