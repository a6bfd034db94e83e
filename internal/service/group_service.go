package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"offrecord/internal/apperr"
	"offrecord/internal/config"
	"offrecord/internal/invite"
	"offrecord/internal/models"
	"offrecord/pkg/validator"
)

// GroupStore is the persistence surface the group service needs
type GroupStore interface {
	Create(ctx context.Context, group *models.Group, roster []models.GroupMember, invitations []models.Invitation) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetRoster(ctx context.Context, groupID uint) ([]models.GroupMember, error)
	ListByHost(ctx context.Context, hostUserID uint) ([]models.Group, error)
	ListByMember(ctx context.Context, userID uint) ([]models.Group, error)
	RemoveMember(ctx context.Context, groupID, memberID uint) (bool, error)
	BindMember(ctx context.Context, groupID uint, email string, userID uint) error
	Delete(ctx context.Context, groupID uint) error
}

// MemberInput is one roster entry of a group creation request
type MemberInput struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// GroupService handles group lifecycle and roster management
type GroupService struct {
	groups GroupStore
	users  UserStore
	cfg    config.GroupConfig
}

// NewGroupService creates a new group service
func NewGroupService(groups GroupStore, users UserStore, cfg config.GroupConfig) *GroupService {
	return &GroupService{groups: groups, users: users, cfg: cfg}
}

// Create validates the roster, persists the group and mints one invitation
// per member, all in one transaction. The host is an organizer only and never
// appears in the roster.
func (s *GroupService) Create(ctx context.Context, hostUserID uint, name string, members []MemberInput) (*models.GroupWithRoster, error) {
	name = validator.SanitizeString(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}
	if len(members) < s.cfg.MinMembers {
		return nil, apperr.Validation("a group needs at least %d members", s.cfg.MinMembers)
	}
	if len(members) > s.cfg.MaxMembers {
		return nil, apperr.Validation("a group can have at most %d members", s.cfg.MaxMembers)
	}

	host, err := s.users.GetByID(ctx, hostUserID)
	if err != nil {
		return nil, apperr.Internal("failed to load host", err)
	}
	if host == nil {
		return nil, apperr.Auth("unknown account")
	}

	roster := make([]models.GroupMember, 0, len(members))
	invitations := make([]models.Invitation, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		email := validator.SanitizeEmail(m.Email)
		displayName := validator.SanitizeString(m.DisplayName)

		if err := validator.ValidateEmail(email); err != nil {
			return nil, apperr.Validation("invalid member email %q", m.Email)
		}
		if displayName == "" {
			return nil, apperr.Validation("member %s needs a display name", email)
		}
		if seen[email] {
			return nil, apperr.Validation("duplicate member email %s", email)
		}
		if email == strings.ToLower(host.Email) {
			return nil, apperr.Validation("the host cannot be a group member")
		}
		seen[email] = true

		code, err := invite.NewCode()
		if err != nil {
			return nil, apperr.Internal("failed to generate invitation code", err)
		}

		roster = append(roster, models.GroupMember{
			Email:       email,
			DisplayName: displayName,
		})
		invitations = append(invitations, models.Invitation{
			ID:          invite.NewInvitationID(),
			Email:       email,
			DisplayName: displayName,
			Code:        code,
		})
	}

	group := &models.Group{Name: name, HostUserID: hostUserID}
	if err := s.groups.Create(ctx, group, roster, invitations); err != nil {
		return nil, apperr.Internal("failed to create group", err)
	}

	slog.Info("group created", "group_id", group.ID, "host_user_id", hostUserID, "members", len(roster))
	return &models.GroupWithRoster{Group: *group, Roster: roster}, nil
}

// ListForUser returns the groups the caller hosts and the groups they belong
// to, merged and deduped. The two queries run concurrently; one failing side
// degrades to the other, both failing is an error.
func (s *GroupService) ListForUser(ctx context.Context, userID uint) ([]models.Group, error) {
	type result struct {
		groups []models.Group
		err    error
	}

	hostedCh := make(chan result, 1)
	memberCh := make(chan result, 1)

	go func() {
		groups, err := s.groups.ListByHost(ctx, userID)
		hostedCh <- result{groups, err}
	}()
	go func() {
		groups, err := s.groups.ListByMember(ctx, userID)
		memberCh <- result{groups, err}
	}()

	hosted := <-hostedCh
	member := <-memberCh

	if hosted.err != nil && member.err != nil {
		return nil, apperr.Internal("failed to list groups", hosted.err)
	}
	if hosted.err != nil {
		slog.Warn("hosted group listing failed", "user_id", userID, "error", hosted.err)
	}
	if member.err != nil {
		slog.Warn("member group listing failed", "user_id", userID, "error", member.err)
	}

	byID := make(map[uint]models.Group)
	for _, g := range hosted.groups {
		byID[g.ID] = g
	}
	for _, g := range member.groups {
		byID[g.ID] = g
	}

	merged := make([]models.Group, 0, len(byID))
	for _, g := range byID {
		merged = append(merged, g)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID > merged[j].ID })
	return merged, nil
}

// Get returns a group with its roster. Only the host and bound roster
// members may see it.
func (s *GroupService) Get(ctx context.Context, callerID, groupID uint) (*models.GroupWithRoster, error) {
	group, roster, err := s.loadGroupForCaller(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}
	return &models.GroupWithRoster{Group: *group, Roster: roster}, nil
}

// RemoveMember removes a roster entry. Host only; removing an already absent
// member succeeds quietly. The member's past submissions and feedback stay.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, memberID uint) error {
	group, err := s.requireGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HostUserID != callerID {
		return apperr.Permission("only the host can remove members")
	}

	removed, err := s.groups.RemoveMember(ctx, groupID, memberID)
	if err != nil {
		return apperr.Internal("failed to remove member", err)
	}
	if removed {
		slog.Info("member removed", "group_id", groupID, "member_id", memberID)
	}
	return nil
}

// Delete deletes a group and everything hanging off it. Host only.
func (s *GroupService) Delete(ctx context.Context, callerID, groupID uint) error {
	group, err := s.requireGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HostUserID != callerID {
		return apperr.Permission("only the host can delete the group")
	}

	if err := s.groups.Delete(ctx, groupID); err != nil {
		return apperr.Internal("failed to delete group", err)
	}
	slog.Info("group deleted", "group_id", groupID, "host_user_id", callerID)
	return nil
}

func (s *GroupService) requireGroup(ctx context.Context, groupID uint) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load group", err)
	}
	if group == nil {
		return nil, apperr.NotFound("group %d not found", groupID)
	}
	return group, nil
}

// loadGroupForCaller loads a group and its roster and verifies the caller is
// the host or a bound member
func (s *GroupService) loadGroupForCaller(ctx context.Context, callerID, groupID uint) (*models.Group, []models.GroupMember, error) {
	group, err := s.requireGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	roster, err := s.groups.GetRoster(ctx, groupID)
	if err != nil {
		return nil, nil, apperr.Internal("failed to load roster", err)
	}

	if group.HostUserID == callerID {
		return group, roster, nil
	}
	for _, m := range roster {
		if m.UserID != nil && *m.UserID == callerID {
			return group, roster, nil
		}
	}
	return nil, nil, apperr.Permission("not a member of this group")
}
