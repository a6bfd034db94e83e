package handlers

import (
	"encoding/json"
	"net/http"

	"offrecord/internal/apperr"
	"offrecord/internal/middleware"
	"offrecord/internal/service"
)

// InvitationHandler handles invitation-related HTTP requests
type InvitationHandler struct {
	invitationService *service.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// RedeemRequest is the invitation redemption request body
type RedeemRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Redeem binds an invitation code to the caller's account
// @Summary Redeem an invitation code
// @Description Join a group roster with the invited email and one-time code
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemRequest true "Invited email and code"
// @Success 200 {object} models.Group "Joined group"
// @Failure 401 {object} map[string]string "Invalid email or code"
// @Failure 409 {object} map[string]string "Already redeemed"
// @Router /invitations/redeem [post]
func (h *InvitationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		ErrorResponse(w, apperr.Auth("authentication required"))
		return
	}

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, apperr.Validation("invalid request body"))
		return
	}

	group, err := h.invitationService.Redeem(r.Context(), userID, req.Email, req.Code)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, group)
}

// Send mails every unredeemed invitation of a group
// @Summary Send invitation mails
// @Description Host-only; failed recipients are counted, not fatal
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.InvitationSendResult "Send counts"
// @Failure 403 {object} map[string]string "Host only"
// @Router /groups/{id}/invitations/send [post]
func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		ErrorResponse(w, apperr.Auth("authentication required"))
		return
	}

	groupID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	result, err := h.invitationService.SendInvitations(r.Context(), userID, groupID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, result)
}
