package http

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/service"
	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/magicontap/tapdash/pkg/invitesdk"
	"github.com/magicontap/tapdash/pkg/slogx"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns the first validator failure into something a
// dashboard user can read.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Invalid request"
	}

	fe := ve[0]
	switch {
	case fe.Field() == "email" && fe.Tag() == "required":
		return "Missing email"
	case fe.Field() == "email":
		return "Invalid email"
	case fe.Field() == "redirectTo":
		return "redirectTo must be an absolute http(s) URL"
	}
	return "Invalid " + fe.Field()
}

// callerFrom turns the authenticated principal into the explicit identity
// handed to the service.
func callerFrom(r *http.Request) (domain.Caller, bool) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Caller{}, false
	}
	// Supabase subjects are user UUIDs. Anything else isn't one of ours.
	if _, err := uuid.Parse(p.UserID); err != nil {
		return domain.Caller{}, false
	}
	return domain.CallerFromClaims(p.UserID, p.Email, p.Role), true
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, invitesdk.CodeUnauthorized, "Unauthorized")
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	httpx.WriteJSON(w, status, invitesdk.ErrorResponse{Error: msg, Code: code})
}

// writeServiceError maps a service error onto the HTTP response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dup *service.DuplicatePendingError
		de  *service.DispatchError
	)

	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, invitesdk.CodeInvalidRequest, "Invalid email")
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, invitesdk.CodeInvalidRequest, capitalize(err.Error()))

	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, invitesdk.CodeForbidden, "Insufficient permissions")
	case errors.Is(err, service.ErrForbiddenRole):
		writeError(w, http.StatusForbidden, invitesdk.CodeForbidden, "You may not grant this role")

	case errors.Is(err, service.ErrInvitationNotFound):
		writeError(w, http.StatusNotFound, invitesdk.CodeNotFound, "Invitation not found")

	case errors.As(err, &dup):
		resp := invitesdk.ErrorResponse{
			Error: "A pending invitation already exists for this email",
			Code:  invitesdk.CodeDuplicatePending,
		}
		if dup.Existing.ID != "" {
			inv := toInvitation(dup.Existing)
			resp.Invitation = &inv
		}
		httpx.WriteJSON(w, http.StatusConflict, resp)
	case errors.Is(err, service.ErrInvitationAccepted):
		writeError(w, http.StatusConflict, invitesdk.CodeAlreadyAccepted, "Invitation has already been accepted")

	case errors.As(err, &de):
		writeError(w, dispatchStatus(de.StatusCode), invitesdk.CodeDispatchFailed, de.Message)

	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, invitesdk.CodeInternal, "Internal server error")
	}
}

// dispatchStatus forwards the provider's client errors (422 for an address
// that's already registered, 429 when Supabase throttles mail). Auth errors
// mean our service key is wrong, which is our problem, not the caller's.
func dispatchStatus(code int) int {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return http.StatusInternalServerError
	case code >= 400 && code < 500:
		return code
	default:
		return http.StatusInternalServerError
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toInvitation(inv domain.Invitation) invitesdk.Invitation {
	return invitesdk.Invitation{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       inv.Role.String(),
		Status:     string(inv.Status),
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
		ExpiresAt:  inv.ExpiresAt,
		SentAt:     inv.SentAt,
		InvitedBy:  inv.InvitedBy,
		RedirectTo: inv.RedirectTo,
	}
}
