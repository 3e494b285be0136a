// Package provider talks to the auth provider that owns user accounts and
// sends the actual invite emails.
package provider

import (
	"context"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
)

// Invite is what gets sent to the provider.
type Invite struct {
	Email      string
	RedirectTo string
	Role       domain.Role
}

// User is the provider's view of the invited account.
type User struct {
	ID        string
	Email     string
	InvitedAt *time.Time
}

// Sender sends invite emails. Implementations must not retry on their own,
// the caller decides what a failure means.
type Sender interface {
	SendInvite(ctx context.Context, inv Invite) (User, error)
}
