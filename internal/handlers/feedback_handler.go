package handlers

import (
	"encoding/json"
	"net/http"

	"offrecord/internal/apperr"
	"offrecord/internal/middleware"
	"offrecord/internal/models"
	"offrecord/internal/service"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	reportService   *service.ReportService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *service.FeedbackService, reportService *service.ReportService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		reportService:   reportService,
	}
}

// SubmitRequest is the feedback round request body
type SubmitRequest struct {
	Items []models.RoundItem `json:"items"`
}

// Submit stores the caller's feedback round for a group
// @Summary Submit a feedback round
// @Description One round per member, covering every other member, scores summing to 100 per recipient
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param request body SubmitRequest true "Feedback round"
// @Success 201 {object} models.Submission "Stored submission"
// @Failure 400 {object} map[string]string "Invalid round"
// @Failure 409 {object} map[string]string "Already submitted"
// @Router /groups/{id}/feedback [post]
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, apperr.Validation("invalid request body"))
		return
	}

	sub, err := h.feedbackService.Submit(r.Context(), userID, groupID, req.Items)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, sub)
}

// Completion reports the group's submission progress
// @Summary Get submission progress
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.Completion "Progress"
// @Router /groups/{id}/completion [get]
func (h *FeedbackHandler) Completion(w http.ResponseWriter, r *http.Request) {
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

	completion, err := h.feedbackService.Completion(r.Context(), userID, groupID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, completion)
}

// Feedback returns the caller's anonymized feedback rows
// @Summary Get my feedback
// @Description Available only once every member has submitted; rows arrive shuffled
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {array} models.FeedbackEntry "Anonymized feedback"
// @Failure 403 {object} map[string]string "Locked or not a member"
// @Router /groups/{id}/feedback [get]
func (h *FeedbackHandler) Feedback(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.feedbackService.FeedbackFor(r.Context(), userID, groupID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, entries)
}

// Report renders the caller's feedback as an HTML report
// @Summary Get my feedback report
// @Tags Feedback
// @Produce html
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {string} string "HTML report"
// @Failure 403 {object} map[string]string "Locked or not a member"
// @Router /groups/{id}/report [get]
func (h *FeedbackHandler) Report(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.reportService.Render(r.Context(), userID, groupID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
