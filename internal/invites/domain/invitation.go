package domain

import "time"

type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusExpired  InvitationStatus = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s InvitationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusExpired:
		return true
	}
	return false
}

// Invitation is a record that someone was asked to join the dashboard with
// a given role. At most one per email may be pending.
type Invitation struct {
	ID         string
	Email      string
	Role       Role
	Status     InvitationStatus
	RedirectTo string

	// InvitedBy is the user id of whoever issued it, empty for system issued.
	InvitedBy string

	// ProviderUserID is the auth provider's id for the invited user, set once
	// the provider accepted the invite.
	ProviderUserID string

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
	SentAt    *time.Time
}

// IsPending reports if the invitation still counts against its email.
func (i Invitation) IsPending() bool {
	return i.Status == StatusPending
}

// Overdue reports whether a pending invitation's expiry has passed at now.
func (i Invitation) Overdue(now time.Time) bool {
	return i.IsPending() && i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}
