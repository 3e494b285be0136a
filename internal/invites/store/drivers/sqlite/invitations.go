package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/internal/invites/store/drivers/sqlite/gen"
)

type invitationsRepo struct {
	q *gen.Queries
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	err := r.q.CreateInvitation(ctx, gen.CreateInvitationParams{
		ID:             inv.ID,
		Email:          inv.Email,
		Role:           string(inv.Role),
		Status:         string(inv.Status),
		RedirectTo:     inv.RedirectTo,
		InvitedBy:      mapStringNull(inv.InvitedBy),
		ProviderUserID: mapStringNull(inv.ProviderUserID),
		CreatedAt:      inv.CreatedAt.UTC(),
		UpdatedAt:      inv.UpdatedAt.UTC(),
		ExpiresAt:      mapOptionalTime(inv.ExpiresAt),
		SentAt:         mapOptionalTime(inv.SentAt),
	})
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row, err := r.q.GetInvitationByID(ctx, id)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row), nil
}

func (r *invitationsRepo) GetPendingInvitationByEmail(ctx context.Context, email string) (domain.Invitation, error) {
	row, err := r.q.GetPendingInvitationByEmail(ctx, email)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row), nil
}

func (r *invitationsRepo) ListInvitations(ctx context.Context, p store.ListInvitationsParams) ([]domain.Invitation, error) {
	rows, err := r.q.ListInvitations(ctx, gen.ListInvitationsParams{
		Status: mapStringNull(string(p.Status)),
		Email:  mapStringNull(p.Email),
		Before: mapStringNull(p.Before),
		Limit:  int64(p.Limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapInvitation(row))
	}
	return out, nil
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	return requireRow(r.q.DeleteInvitation(ctx, id))
}

func (r *invitationsRepo) MarkInvitationSent(ctx context.Context, id string, providerUserID string, at time.Time) error {
	return requireRow(r.q.MarkInvitationSent(ctx, gen.MarkInvitationSentParams{
		SentAt:         sql.NullTime{Time: at.UTC(), Valid: true},
		ProviderUserID: mapStringNull(providerUserID),
		UpdatedAt:      at.UTC(),
		ID:             id,
	}))
}

func (r *invitationsRepo) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	return r.q.ExpireInvitations(ctx, now.UTC())
}

func mapInvitation(row gen.Invitation) domain.Invitation {
	return domain.Invitation{
		ID:             row.ID,
		Email:          row.Email,
		Role:           domain.Role(row.Role),
		Status:         domain.InvitationStatus(row.Status),
		RedirectTo:     row.RedirectTo,
		InvitedBy:      mapNullString(row.InvitedBy),
		ProviderUserID: mapNullString(row.ProviderUserID),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
		ExpiresAt:      mapNullTimePtr(row.ExpiresAt),
		SentAt:         mapNullTimePtr(row.SentAt),
	}
}
