package http

import (
	"net/http"
	"strconv"

	"github.com/magicontap/tapdash/internal/invites/service"
	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/magicontap/tapdash/pkg/invitesdk"
)

type ListHandler struct {
	Issuer *service.Issuer
}

// ServeHTTP godoc
//
//	@Summary		List Invitations
//	@Description	Invitations newest first. Page with the next_before value of the previous response.
//	@Tags			Invitations
//	@Produce		json
//	@Param			status	query		string					false	"pending, accepted or expired"
//	@Param			email	query		string					false	"exact email"
//	@Param			limit	query		int						false	"page size, at most 200"
//	@Param			before	query		string					false	"id of the last invitation of the previous page"
//	@Success		200		{object}	invitesdk.ListResponse	"invitations, next_before"
//	@Failure		400		{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		401		{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		403		{object}	invitesdk.ErrorResponse	"error, code"
//	@Security		BearerAuth
//	@Router			/v1/invitations [get].
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	q := r.URL.Query()
	f := service.ListFilter{
		Status: q.Get("status"),
		Email:  q.Get("email"),
		Before: q.Get("before"),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, invitesdk.CodeInvalidRequest, "Invalid limit")
			return
		}
		f.Limit = n
	}

	res, err := h.Issuer.List(r.Context(), caller, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := invitesdk.ListResponse{
		Invitations: make([]invitesdk.Invitation, 0, len(res.Invitations)),
		NextBefore:  res.NextBefore,
	}
	for _, inv := range res.Invitations {
		out.Invitations = append(out.Invitations, toInvitation(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type GetHandler struct {
	Issuer *service.Issuer
}

// ServeHTTP godoc
//
//	@Summary		Get Invitation
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string							true	"Invitation ID"
//	@Success		200	{object}	invitesdk.InvitationResponse	"invitation"
//	@Failure		401	{object}	invitesdk.ErrorResponse			"error, code"
//	@Failure		403	{object}	invitesdk.ErrorResponse			"error, code"
//	@Failure		404	{object}	invitesdk.ErrorResponse			"error, code"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id} [get].
func (h *GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	inv, err := h.Issuer.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.InvitationResponse{Invitation: toInvitation(inv)})
}

type ResendHandler struct {
	Issuer *service.Issuer
}

// ServeHTTP godoc
//
//	@Summary		Resend Invitation
//	@Description	Send the invite email again. A pending invitation keeps its id; an expired one is replaced by a
//	@Description	new pending invitation. Accepted invitations can't be resent.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string					true	"Invitation ID"
//	@Success		200	{object}	invitesdk.IssueResponse	"success, message, invitation"
//	@Failure		401	{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		403	{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		404	{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		409	{object}	invitesdk.ErrorResponse	"error, code"
//	@Failure		500	{object}	invitesdk.ErrorResponse	"error, code"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id}/resend [post].
func (h *ResendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	inv, err := h.Issuer.Resend(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.IssueResponse{
		Success:    true,
		Message:    "Invitation resent",
		Invitation: toInvitation(inv),
	})
}
