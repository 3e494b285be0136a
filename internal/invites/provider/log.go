package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/magicontap/tapdash/pkg/cryptox"
)

// LogSender pretends to send invites and only logs them. For local runs
// without a Supabase project.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendInvite(ctx context.Context, inv Invite) (User, error) {
	now := time.Now().UTC()
	u := User{
		ID:        uuid.NewString(),
		Email:     inv.Email,
		InvitedAt: &now,
	}

	s.logger.InfoContext(ctx, "invite email (not sent)",
		slog.String("email_fp", cryptox.EmailFingerprint(inv.Email)),
		slog.String("role", inv.Role.String()),
		slog.String("redirect_to", inv.RedirectTo),
		slog.String("provider_user_id", u.ID),
	)
	return u, nil
}
