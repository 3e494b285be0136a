package service

import (
	"errors"
	"fmt"

	"github.com/magicontap/tapdash/internal/invites/domain"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidRedirect = errors.New("redirect must be an absolute http(s) URL")
	ErrInvalidStatus   = errors.New("invalid status filter")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")

	ErrForbidden     = errors.New("caller may not manage invitations")
	ErrForbiddenRole = errors.New("caller may not grant this role")

	ErrDuplicatePending   = errors.New("a pending invitation already exists for this email")
	ErrDispatchFailed     = errors.New("invite dispatch failed")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationAccepted = errors.New("invitation has already been accepted")
)

// IsValidation reports whether err is a problem with the caller's input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrInvalidRedirect) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidCursor)
}

// DuplicatePendingError carries the pending invitation that already holds
// the email.
type DuplicatePendingError struct {
	Existing domain.Invitation
}

func (e *DuplicatePendingError) Error() string {
	return ErrDuplicatePending.Error()
}

func (e *DuplicatePendingError) Is(target error) bool {
	return target == ErrDuplicatePending
}

// DispatchError is a failed hand-off to the auth provider. StatusCode is the
// provider's HTTP status, 0 when it couldn't be reached.
type DispatchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *DispatchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrDispatchFailed, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", ErrDispatchFailed, e.StatusCode, e.Message)
}

func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatchFailed
}

func (e *DispatchError) Unwrap() error { return e.Err }
