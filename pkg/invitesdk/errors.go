package invitesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string

	// Invitation is set on duplicate_pending errors.
	Invitation *Invitation
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("invitesdk: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("invitesdk: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsDuplicatePending reports whether err is the 409 for an email that
// already has a pending invitation.
func IsDuplicatePending(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == CodeDuplicatePending
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

func parseErrorResponse(status int, body []byte) error {
	ae := &APIError{StatusCode: status}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		ae.Code = er.Code
		ae.Message = er.Error
		ae.Invitation = er.Invitation
		return ae
	}

	// Plain text or empty, a proxy in between most likely.
	ae.Message = strings.TrimSpace(string(body))
	if ae.Message == "" {
		ae.Message = http.StatusText(status)
	}
	return ae
}
