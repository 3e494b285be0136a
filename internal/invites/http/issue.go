package http

import (
	"net/http"
	"strings"

	"github.com/magicontap/tapdash/internal/invites/service"
	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/magicontap/tapdash/pkg/invitesdk"
)

// IssueHandler creates an invitation. Legacy marks the old edge function
// path, which also answers with status "invited".
type IssueHandler struct {
	Issuer *service.Issuer
	Legacy bool
}

// ServeHTTP godoc
//
//	@Summary		Issue Invitation
//	@Description	Invite someone to the dashboard by email. Fails with 409 when the address already has a pending
//	@Description	invitation, nothing is sent and nothing is stored in that case. When the auth provider rejects the
//	@Description	invite no invitation is stored either. Role defaults to customer, redirectTo to the sign-in page.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		invitesdk.IssueRequest	true	"Invite request"
//	@Success		200		{object}	invitesdk.IssueResponse	"success, message, invitation"
//	@Failure		400		{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		401		{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		403		{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		409		{object}	invitesdk.ErrorResponse	"error, code, invitation"
//	@Failure		429		{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		500		{object}	invitesdk.ErrorResponse	"error, code"
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *IssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := callerFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req invitesdk.IssueRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invitesdk.CodeInvalidRequest, "Invalid JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.RedirectTo = strings.TrimSpace(req.RedirectTo)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, invitesdk.CodeInvalidRequest, validationMessage(err))
		return
	}

	inv, err := h.Issuer.Issue(ctx, caller, service.IssueRequest{
		Email:      req.Email,
		Role:       req.Role,
		RedirectTo: req.RedirectTo,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := invitesdk.IssueResponse{
		Success:    true,
		Message:    "Invitation sent successfully",
		Invitation: toInvitation(inv),
	}
	if h.Legacy {
		resp.Status = "invited"
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
