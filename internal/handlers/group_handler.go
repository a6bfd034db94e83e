package handlers

import (
	"encoding/json"
	"net/http"

	"offrecord/internal/apperr"
	"offrecord/internal/middleware"
	"offrecord/internal/service"
)

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest is the group creation request body
type CreateGroupRequest struct {
	Name    string                `json:"name"`
	Members []service.MemberInput `json:"members"`
}

// Create handles group creation
// @Summary Create a feedback group
// @Description Create a group with its roster; one invitation code is minted per member
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} models.GroupWithRoster "Created group"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /groups [post]
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		ErrorResponse(w, apperr.Auth("authentication required"))
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, apperr.Validation("invalid request body"))
		return
	}

	group, err := h.groupService.Create(r.Context(), userID, req.Name, req.Members)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, group)
}

// List returns the caller's hosted and joined groups
// @Summary List my groups
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Group "Groups"
// @Router /groups [get]
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		ErrorResponse(w, apperr.Auth("authentication required"))
		return
	}

	groups, err := h.groupService.ListForUser(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, groups)
}

// Get returns one group with its roster
// @Summary Get a group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.GroupWithRoster "Group with roster"
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Not found"
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	group, err := h.groupService.Get(r.Context(), userID, groupID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, group)
}

// Delete deletes a group and all data hanging off it
// @Summary Delete a group
// @Tags Groups
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Host only"
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.groupService.Delete(r.Context(), userID, groupID); err != nil {
		ErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember removes a roster entry from a group
// @Summary Remove a group member
// @Description Host-only; the member's past submissions stay
// @Tags Groups
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param memberId path int true "Member ID"
// @Success 204 "Removed"
// @Failure 403 {object} map[string]string "Host only"
// @Router /groups/{id}/members/{memberId} [delete]
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
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
	memberID, err := pathID(r, "memberId")
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	if err := h.groupService.RemoveMember(r.Context(), userID, groupID, memberID); err != nil {
		ErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
