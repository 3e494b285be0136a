package sqlite

import (
	"context"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/store/drivers/sqlite/gen"
)

type dispatchesRepo struct {
	q *gen.Queries
}

func (r *dispatchesRepo) EnqueueDispatch(ctx context.Context, d domain.Dispatch) error {
	err := r.q.EnqueueDispatch(ctx, gen.EnqueueDispatchParams{
		ID:            d.ID,
		InvitationID:  d.InvitationID,
		Email:         d.Email,
		Role:          string(d.Role),
		RedirectTo:    d.RedirectTo,
		Status:        string(d.Status),
		Attempts:      int64(d.Attempts),
		NextAttemptAt: d.NextAttemptAt.UTC(),
		LastError:     mapStringNull(d.LastError),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *dispatchesRepo) GetDispatch(ctx context.Context, id string) (domain.Dispatch, error) {
	row, err := r.q.GetDispatch(ctx, id)
	if err != nil {
		return domain.Dispatch{}, mapNotFound(err)
	}
	return mapDispatch(row), nil
}

func (r *dispatchesRepo) ListDispatchesForInvitation(ctx context.Context, invitationID string) ([]domain.Dispatch, error) {
	rows, err := r.q.ListDispatchesForInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	return mapDispatches(rows), nil
}

// ClaimDueDispatches should run inside a transaction so the select and the
// lease land together. Each lease re-checks that the row is still due, so a
// row another worker grabbed in between is left out.
func (r *dispatchesRepo) ClaimDueDispatches(ctx context.Context, now, leaseUntil time.Time, limit int) ([]domain.Dispatch, error) {
	now, leaseUntil = now.UTC(), leaseUntil.UTC()

	rows, err := r.q.ListDueDispatches(ctx, gen.ListDueDispatchesParams{
		Now:   now,
		Limit: int64(limit),
	})
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.Dispatch, 0, len(rows))
	for _, row := range rows {
		n, err := r.q.LeaseDispatch(ctx, gen.LeaseDispatchParams{
			LeaseUntil: leaseUntil,
			Now:        now,
			ID:         row.ID,
		})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}

		d := mapDispatch(row)
		d.Status = domain.DispatchProcessing
		d.NextAttemptAt = leaseUntil
		d.UpdatedAt = now
		claimed = append(claimed, d)
	}
	return claimed, nil
}

func (r *dispatchesRepo) CompleteDispatch(ctx context.Context, id string) error {
	return requireRow(r.q.DeleteDispatch(ctx, id))
}

func (r *dispatchesRepo) DeleteDispatchesForInvitation(ctx context.Context, invitationID string) error {
	return r.q.DeleteDispatchesForInvitation(ctx, invitationID)
}

func (r *dispatchesRepo) RetryDispatch(
	ctx context.Context,
	id string,
	status domain.DispatchStatus,
	attempts int,
	next time.Time,
	lastErr string,
	now time.Time,
) error {
	return requireRow(r.q.RetryDispatch(ctx, gen.RetryDispatchParams{
		Status:        string(status),
		Attempts:      int64(attempts),
		NextAttemptAt: next.UTC(),
		LastError:     mapStringNull(lastErr),
		UpdatedAt:     now.UTC(),
		ID:            id,
	}))
}

func (r *dispatchesRepo) DeleteDeadDispatches(ctx context.Context) (int64, error) {
	return r.q.DeleteDeadDispatches(ctx)
}

func (r *dispatchesRepo) Summary(ctx context.Context) (domain.DispatchSummary, error) {
	rows, err := r.q.CountDispatchesByStatus(ctx)
	if err != nil {
		return domain.DispatchSummary{}, err
	}

	var s domain.DispatchSummary
	for _, row := range rows {
		switch domain.DispatchStatus(row.Status) {
		case domain.DispatchPending:
			s.Pending = int(row.Count)
		case domain.DispatchProcessing:
			s.Processing = int(row.Count)
		case domain.DispatchDead:
			s.Dead = int(row.Count)
		}
	}
	return s, nil
}

func mapDispatch(row gen.InvitationDispatch) domain.Dispatch {
	return domain.Dispatch{
		ID:            row.ID,
		InvitationID:  row.InvitationID,
		Email:         row.Email,
		Role:          domain.Role(row.Role),
		RedirectTo:    row.RedirectTo,
		Status:        domain.DispatchStatus(row.Status),
		Attempts:      int(row.Attempts),
		NextAttemptAt: row.NextAttemptAt.UTC(),
		LastError:     mapNullString(row.LastError),
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func mapDispatches(rows []gen.InvitationDispatch) []domain.Dispatch {
	out := make([]domain.Dispatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapDispatch(row))
	}
	return out
}
