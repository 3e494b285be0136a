package domain

import "time"

type DispatchStatus string

const (
	DispatchPending    DispatchStatus = "pending"
	DispatchProcessing DispatchStatus = "processing"
	DispatchDead       DispatchStatus = "dead"
)

// Dispatch is an outbox row: an invite email that has to reach the auth
// provider. It lives until the provider accepts the email or it runs out of
// attempts and goes dead.
type Dispatch struct {
	ID           string
	InvitationID string
	Email        string
	Role         Role
	RedirectTo   string

	Status        DispatchStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DispatchSummary counts outbox rows per status.
type DispatchSummary struct {
	Pending    int
	Processing int
	Dead       int
}

// Backlog is everything still waiting to go out.
func (s DispatchSummary) Backlog() int {
	return s.Pending + s.Processing
}

const maxBackoff = 5 * time.Minute

// Backoff is the wait before the given retry attempt (1-based): 1s, 2s, 4s
// and so on, capped at five minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 20 {
		return maxBackoff
	}
	d := time.Second << (attempt - 1)
	return min(d, maxBackoff)
}
