package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"offrecord/internal/apperr"
	"offrecord/internal/models"
	"offrecord/pkg/validator"
)

// InvitationStore is the persistence surface the invitation broker needs
type InvitationStore interface {
	GetByEmailAndCode(ctx context.Context, email, code string) (*models.Invitation, error)
	ListUnredeemedByGroup(ctx context.Context, groupID uint) ([]models.Invitation, error)
	Redeem(ctx context.Context, invitationID uuid.UUID, userID uint) (bool, error)
}

// InvitationMailer sends invitation code mails
type InvitationMailer interface {
	SendInvitation(to, displayName, groupName, code string) error
}

// InvitationService redeems invitation codes and dispatches code mails
type InvitationService struct {
	invitations InvitationStore
	groups      GroupStore
	users       UserStore
	mailer      InvitationMailer
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitations InvitationStore, groups GroupStore, users UserStore, mailer InvitationMailer) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		groups:      groups,
		users:       users,
		mailer:      mailer,
	}
}

// Redeem binds an invitation to the caller's account and stamps the matching
// roster entry. The failure message never reveals whether the email or the
// code was wrong. Redeeming one's own already-redeemed invitation again is a
// no-op; an invitation bound to another account is a conflict.
func (s *InvitationService) Redeem(ctx context.Context, callerID uint, email, code string) (*models.Group, error) {
	email = validator.SanitizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))

	inv, err := s.invitations.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		return nil, apperr.Internal("failed to look up invitation", err)
	}
	if inv == nil {
		return nil, apperr.Auth("invalid invitation email or code")
	}

	if inv.Redeemed() {
		if *inv.RedeemedBy == callerID {
			return s.groupOf(ctx, inv.GroupID)
		}
		return nil, apperr.Conflict("invitation has already been redeemed")
	}

	won, err := s.invitations.Redeem(ctx, inv.ID, callerID)
	if err != nil {
		return nil, apperr.Internal("failed to redeem invitation", err)
	}
	if !won {
		// lost a race with a concurrent redemption
		current, err := s.invitations.GetByEmailAndCode(ctx, email, code)
		if err == nil && current != nil && current.Redeemed() && *current.RedeemedBy == callerID {
			return s.groupOf(ctx, inv.GroupID)
		}
		return nil, apperr.Conflict("invitation has already been redeemed")
	}

	if err := s.groups.BindMember(ctx, inv.GroupID, inv.Email, callerID); err != nil {
		return nil, apperr.Internal("failed to bind roster entry", err)
	}

	slog.Info("invitation redeemed", "group_id", inv.GroupID, "user_id", callerID)
	return s.groupOf(ctx, inv.GroupID)
}

// SendInvitations mails each unredeemed invitation its code. Host only. A
// failing recipient is counted and skipped, never aborting the batch.
func (s *InvitationService) SendInvitations(ctx context.Context, callerID, groupID uint) (*models.InvitationSendResult, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load group", err)
	}
	if group == nil {
		return nil, apperr.NotFound("group %d not found", groupID)
	}
	if group.HostUserID != callerID {
		return nil, apperr.Permission("only the host can send invitations")
	}

	pending, err := s.invitations.ListUnredeemedByGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to list invitations", err)
	}

	result := &models.InvitationSendResult{}
	for _, inv := range pending {
		if err := s.mailer.SendInvitation(inv.Email, inv.DisplayName, group.Name, inv.Code); err != nil {
			slog.Error("invitation mail failed", "group_id", groupID, "email", inv.Email, "error", err)
			result.Failed++
			continue
		}
		result.Sent++
	}

	slog.Info("invitations sent", "group_id", groupID, "sent", result.Sent, "failed", result.Failed)
	return result, nil
}

func (s *InvitationService) groupOf(ctx context.Context, groupID uint) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load group", err)
	}
	if group == nil {
		return nil, apperr.NotFound("group %d not found", groupID)
	}
	return group, nil
}
