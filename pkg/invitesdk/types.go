package invitesdk

import "time"

// Error codes in ErrorResponse.Code.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeDuplicatePending = "duplicate_pending"
	CodeAlreadyAccepted  = "already_accepted"
	CodeDispatchFailed   = "dispatch_failed"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal"
)

// IssueRequest asks for an invitation. Role defaults to customer and
// RedirectTo to the dashboard sign-in page.
type IssueRequest struct {
	Email      string `json:"email" validate:"required,email,max=320"`
	RedirectTo string `json:"redirectTo,omitempty" validate:"omitempty,http_url"`
	Role       string `json:"role,omitempty"`
}

// Invitation is the public view of an invitation record.
type Invitation struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	InvitedBy  string     `json:"invited_by,omitempty"`
	RedirectTo string     `json:"redirect_to"`
}

// IssueResponse is returned by issue and resend.
type IssueResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Status is "invited" on the legacy edge function path only.
	Status string `json:"status,omitempty"`

	Invitation Invitation `json:"invitation"`
}

type InvitationResponse struct {
	Invitation Invitation `json:"invitation"`
}

// ListResponse is one page of invitations, newest first. Pass NextBefore as
// ListOptions.Before to get the next page; it is empty on the last one.
type ListResponse struct {
	Invitations []Invitation `json:"invitations"`
	NextBefore  string       `json:"next_before,omitempty"`
}

// ListOptions filters List. Zero values mean no filter.
type ListOptions struct {
	Status string
	Email  string
	Limit  int
	Before string
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`

	// Invitation is the pending invitation behind a duplicate_pending error.
	Invitation *Invitation `json:"invitation,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Verifier string `json:"verifier"`
	Outbox   string `json:"outbox"`

	OutboxPending int `json:"outbox_pending"`
	OutboxDead    int `json:"outbox_dead"`
}
