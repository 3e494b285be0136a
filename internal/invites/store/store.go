package store

import (
	"context"
	"errors"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so a Tx hands out the same repos scoped to the
// transaction. A Tx can't start another Tx.
type Store interface {
	Invitations() Invitations
	Dispatches() Dispatches

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// ListInvitationsParams filters a page of invitations, newest first.
type ListInvitationsParams struct {
	Status domain.InvitationStatus // "" for any
	Email  string                  // exact, already normalised; "" for any
	Before string                  // only ids strictly older than this; "" for the first page
	Limit  int
}

type Invitations interface {
	// CreateInvitation inserts inv. A second pending invitation for the same
	// email fails with ErrAlreadyExists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetPendingInvitationByEmail returns the single pending invitation for
	// email, or ErrNotFound.
	GetPendingInvitationByEmail(ctx context.Context, email string) (domain.Invitation, error)

	ListInvitations(ctx context.Context, p ListInvitationsParams) ([]domain.Invitation, error)

	// DeleteInvitation removes the row and, through the foreign key, its
	// dispatches.
	DeleteInvitation(ctx context.Context, id string) error

	// MarkInvitationSent stamps sent_at and the provider's user id.
	MarkInvitationSent(ctx context.Context, id string, providerUserID string, at time.Time) error

	// ExpireInvitations flips pending invitations whose expires_at is at or
	// before now to expired, returning how many changed.
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
}

type Dispatches interface {
	EnqueueDispatch(ctx context.Context, d domain.Dispatch) error

	GetDispatch(ctx context.Context, id string) (domain.Dispatch, error)

	ListDispatchesForInvitation(ctx context.Context, invitationID string) ([]domain.Dispatch, error)

	// ClaimDueDispatches leases up to limit rows that are due at now: they
	// become processing with next_attempt_at = leaseUntil.
	ClaimDueDispatches(ctx context.Context, now, leaseUntil time.Time, limit int) ([]domain.Dispatch, error)

	// CompleteDispatch removes a row once the provider took the email.
	CompleteDispatch(ctx context.Context, id string) error

	// DeleteDispatchesForInvitation clears any outbox rows of an invitation.
	DeleteDispatchesForInvitation(ctx context.Context, invitationID string) error

	// RetryDispatch records a failed attempt. status is pending for another
	// go at next, or dead when out of attempts.
	RetryDispatch(ctx context.Context, id string, status domain.DispatchStatus, attempts int, next time.Time, lastErr string, now time.Time) error

	// DeleteDeadDispatches drops dead rows whose invitation is no longer
	// pending (or gone).
	DeleteDeadDispatches(ctx context.Context) (int64, error)

	Summary(ctx context.Context) (domain.DispatchSummary, error)
}
