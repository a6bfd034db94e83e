package service

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"strings"

	"offrecord/internal/apperr"
	"offrecord/internal/database"
	"offrecord/internal/models"
	"offrecord/internal/repository"
	"offrecord/internal/sealbox"
)

// BudgetPerRecipient is the point budget granted per feedback recipient. A
// round must allocate the whole budget, no more and no less.
const BudgetPerRecipient = 100

// FeedbackStore is the persistence surface the feedback service needs
type FeedbackStore interface {
	SubmitRound(ctx context.Context, sub *models.Submission, items []models.FeedbackItem, seal repository.SealFunc) error
	CompletionCounts(ctx context.Context, groupID uint) (completed, total int, err error)
	ListForRecipient(ctx context.Context, groupID, recipientUserID uint) ([]models.FeedbackItem, error)
}

// CompletionMailer notifies members that every round of their group is in
type CompletionMailer interface {
	SendGroupComplete(to, displayName, groupName string) error
}

// FeedbackService handles submitting feedback rounds and disclosing the
// collected feedback once a group is complete
type FeedbackService struct {
	feedback FeedbackStore
	groups   GroupStore
	sealer   sealbox.Sealer
	mailer   CompletionMailer
}

// NewFeedbackService creates a new feedback service. The mailer may be nil,
// in which case no completion mails are sent.
func NewFeedbackService(feedback FeedbackStore, groups GroupStore, sealer sealbox.Sealer, mailer CompletionMailer) *FeedbackService {
	return &FeedbackService{feedback: feedback, groups: groups, sealer: sealer, mailer: mailer}
}

// ValidateRound checks a feedback round against its recipient set: every
// recipient covered exactly once, no self-feedback, non-empty texts, integer
// scores of at least 1 summing to exactly 100 per recipient. A round with no
// recipients is valid only when empty.
func ValidateRound(respondentID uint, recipients []uint, items []models.RoundItem) error {
	wanted := make(map[uint]bool, len(recipients))
	for _, id := range recipients {
		wanted[id] = true
	}

	seen := make(map[uint]bool, len(items))
	sum := 0
	for _, item := range items {
		if item.RecipientUserID == respondentID {
			return apperr.Validation("feedback about yourself is not allowed")
		}
		if !wanted[item.RecipientUserID] {
			return apperr.Validation("recipient %d is not in this group", item.RecipientUserID)
		}
		if seen[item.RecipientUserID] {
			return apperr.Validation("recipient %d appears more than once", item.RecipientUserID)
		}
		seen[item.RecipientUserID] = true

		if strings.TrimSpace(item.Strengths) == "" {
			return apperr.Validation("strengths for recipient %d must not be empty", item.RecipientUserID)
		}
		if strings.TrimSpace(item.Improvements) == "" {
			return apperr.Validation("improvements for recipient %d must not be empty", item.RecipientUserID)
		}
		if item.Score < 1 {
			return apperr.Validation("score for recipient %d must be at least 1", item.RecipientUserID)
		}
		sum += item.Score
	}

	if len(seen) != len(recipients) {
		return apperr.Validation("feedback must cover every other group member")
	}

	budget := BudgetPerRecipient * len(recipients)
	if sum != budget {
		return apperr.Validation("scores must add up to exactly %d points, got %d", budget, sum)
	}
	return nil
}

// Submit stores the caller's feedback round. The caller must be a bound
// roster member, every other member must already have joined, and the round
// must pass validation. The submission marker and all rows land in one
// transaction; the uniqueness constraint on the marker makes a duplicate
// concurrent submit lose cleanly.
func (s *FeedbackService) Submit(ctx context.Context, callerID, groupID uint, items []models.RoundItem) (*models.Submission, error) {
	roster, err := s.requireBoundMember(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	recipients := make([]uint, 0, len(roster)-1)
	for _, m := range roster {
		if m.UserID == nil {
			return nil, apperr.Validation("every member must join the group before feedback can be submitted")
		}
		if *m.UserID != callerID {
			recipients = append(recipients, *m.UserID)
		}
	}

	if err := ValidateRound(callerID, recipients, items); err != nil {
		return nil, err
	}

	feedbackItems := make([]models.FeedbackItem, len(items))
	for i, item := range items {
		feedbackItems[i] = models.FeedbackItem{
			RecipientUserID: item.RecipientUserID,
			Strengths:       strings.TrimSpace(item.Strengths),
			Improvements:    strings.TrimSpace(item.Improvements),
			Score:           item.Score,
		}
	}

	var seal repository.SealFunc
	if s.sealer.Enabled() {
		seal = s.sealPayload
	}

	sub := &models.Submission{GroupID: groupID, RespondentUserID: callerID}
	if err := s.feedback.SubmitRound(ctx, sub, feedbackItems, seal); err != nil {
		if database.IsUniqueViolation(err, "submissions_one_per_respondent") {
			return nil, apperr.Conflict("feedback has already been submitted for this group")
		}
		return nil, apperr.Internal("failed to store feedback round", err)
	}

	slog.Info("feedback submitted", "group_id", groupID, "respondent_user_id", callerID, "recipients", len(items))
	s.notifyIfComplete(ctx, groupID, roster)
	return sub, nil
}

// notifyIfComplete mails every member once the last round of a group has
// landed. Mail failures are logged, never surfaced to the submitter.
func (s *FeedbackService) notifyIfComplete(ctx context.Context, groupID uint, roster []models.GroupMember) {
	if s.mailer == nil {
		return
	}

	completion, err := s.completion(ctx, groupID)
	if err != nil || !completion.Complete {
		return
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil || group == nil {
		slog.Error("failed to load group for completion mail", "group_id", groupID, "error", err)
		return
	}

	for _, m := range roster {
		if err := s.mailer.SendGroupComplete(m.Email, m.DisplayName, group.Name); err != nil {
			slog.Error("failed to send completion mail", "group_id", groupID, "email", m.Email, "error", err)
		}
	}
}

// Completion reports the group's submission progress. Host and members may
// read it. Only submissions from the current roster count.
func (s *FeedbackService) Completion(ctx context.Context, callerID, groupID uint) (*models.Completion, error) {
	if _, err := s.requireParticipant(ctx, callerID, groupID); err != nil {
		return nil, err
	}
	return s.completion(ctx, groupID)
}

func (s *FeedbackService) completion(ctx context.Context, groupID uint) (*models.Completion, error) {
	completed, total, err := s.feedback.CompletionCounts(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to count submissions", err)
	}
	return &models.Completion{
		Completed: completed,
		Total:     total,
		Complete:  total > 0 && completed == total,
	}, nil
}

// FeedbackFor returns the caller's anonymized feedback rows in a fresh random
// order. The rows exist only for bound roster members, the host included
// never, and stay locked until every current member has submitted.
func (s *FeedbackService) FeedbackFor(ctx context.Context, callerID, groupID uint) ([]models.FeedbackEntry, error) {
	if _, err := s.requireBoundMember(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	completion, err := s.completion(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !completion.Complete {
		return nil, apperr.Permission("feedback is locked until every member has submitted")
	}

	items, err := s.feedback.ListForRecipient(ctx, groupID, callerID)
	if err != nil {
		return nil, apperr.Internal("failed to load feedback", err)
	}

	entries := make([]models.FeedbackEntry, len(items))
	for i, item := range items {
		strengths, improvements := item.Strengths, item.Improvements
		if item.SealedRecordID != nil {
			payload, err := s.sealer.Open(ctx, groupID, *item.SealedRecordID)
			if err != nil {
				return nil, apperr.Internal("failed to unseal feedback", err)
			}
			strengths, improvements = payload.Strengths, payload.Improvements
		}
		entries[i] = models.FeedbackEntry{
			Strengths:    strengths,
			Improvements: improvements,
			Score:        item.Score,
		}
	}

	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	return entries, nil
}

// requireParticipant verifies the caller is the host or a bound member and
// returns the roster
func (s *FeedbackService) requireParticipant(ctx context.Context, callerID, groupID uint) ([]models.GroupMember, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load group", err)
	}
	if group == nil {
		return nil, apperr.NotFound("group %d not found", groupID)
	}

	roster, err := s.groups.GetRoster(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load roster", err)
	}

	if group.HostUserID == callerID {
		return roster, nil
	}
	for _, m := range roster {
		if m.UserID != nil && *m.UserID == callerID {
			return roster, nil
		}
	}
	return nil, apperr.Permission("not a member of this group")
}

// requireBoundMember verifies the caller is a bound roster member. The host
// does not qualify unless separately invited, which the roster rules forbid.
func (s *FeedbackService) requireBoundMember(ctx context.Context, callerID, groupID uint) ([]models.GroupMember, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load group", err)
	}
	if group == nil {
		return nil, apperr.NotFound("group %d not found", groupID)
	}

	roster, err := s.groups.GetRoster(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load roster", err)
	}

	for _, m := range roster {
		if m.UserID != nil && *m.UserID == callerID {
			return roster, nil
		}
	}
	return nil, apperr.Permission("not a member of this group")
}

func (s *FeedbackService) sealPayload(ctx context.Context, tx *sql.Tx, groupID uint, strengths, improvements string) (int64, error) {
	return s.sealer.Seal(ctx, tx, groupID, &sealbox.Payload{
		Strengths:    strengths,
		Improvements: improvements,
	})
}
