package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"offrecord/internal/models"
	"offrecord/internal/repository"
)

// fakeUserStore keeps users in a map keyed by id
type fakeUserStore struct {
	users  map[uint]*models.User
	nextID uint
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*models.User{}, nextID: 1}
}

func (f *fakeUserStore) addUser(email, displayName string) *models.User {
	u := &models.User{
		ID:          f.nextID,
		Email:       strings.ToLower(email),
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}
	f.users[u.ID] = u
	f.nextID++
	return u
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	f.nextID++
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

// fakeGroupStore keeps groups, rosters and invitations in memory
type fakeGroupStore struct {
	groups       map[uint]*models.Group
	rosters      map[uint][]models.GroupMember
	invitations  map[uint][]models.Invitation
	nextGroupID  uint
	nextMemberID uint

	createErr     error
	listHostErr   error
	listMemberErr error
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{
		groups:       map[uint]*models.Group{},
		rosters:      map[uint][]models.GroupMember{},
		invitations:  map[uint][]models.Invitation{},
		nextGroupID:  1,
		nextMemberID: 1,
	}
}

func (f *fakeGroupStore) addGroup(hostID uint, name string) *models.Group {
	g := &models.Group{ID: f.nextGroupID, Name: name, HostUserID: hostID, CreatedAt: time.Now()}
	f.groups[g.ID] = g
	f.nextGroupID++
	return g
}

func (f *fakeGroupStore) addMember(groupID uint, email string, userID *uint) models.GroupMember {
	m := models.GroupMember{
		ID:          f.nextMemberID,
		GroupID:     groupID,
		Email:       strings.ToLower(email),
		DisplayName: email,
		UserID:      userID,
	}
	f.rosters[groupID] = append(f.rosters[groupID], m)
	f.nextMemberID++
	return m
}

func (f *fakeGroupStore) Create(_ context.Context, group *models.Group, roster []models.GroupMember, invitations []models.Invitation) error {
	if f.createErr != nil {
		return f.createErr
	}
	group.ID = f.nextGroupID
	group.CreatedAt = time.Now()
	f.nextGroupID++
	f.groups[group.ID] = group
	for i := range roster {
		roster[i].ID = f.nextMemberID
		roster[i].GroupID = group.ID
		f.nextMemberID++
	}
	f.rosters[group.ID] = append([]models.GroupMember{}, roster...)
	for i := range invitations {
		invitations[i].GroupID = group.ID
	}
	f.invitations[group.ID] = append([]models.Invitation{}, invitations...)
	return nil
}

func (f *fakeGroupStore) GetByID(_ context.Context, id uint) (*models.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroupStore) GetRoster(_ context.Context, groupID uint) ([]models.GroupMember, error) {
	return append([]models.GroupMember{}, f.rosters[groupID]...), nil
}

func (f *fakeGroupStore) ListByHost(_ context.Context, hostUserID uint) ([]models.Group, error) {
	if f.listHostErr != nil {
		return nil, f.listHostErr
	}
	out := []models.Group{}
	for _, g := range f.groups {
		if g.HostUserID == hostUserID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroupStore) ListByMember(_ context.Context, userID uint) ([]models.Group, error) {
	if f.listMemberErr != nil {
		return nil, f.listMemberErr
	}
	out := []models.Group{}
	for groupID, roster := range f.rosters {
		for _, m := range roster {
			if m.UserID != nil && *m.UserID == userID {
				out = append(out, *f.groups[groupID])
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGroupStore) RemoveMember(_ context.Context, groupID, memberID uint) (bool, error) {
	roster := f.rosters[groupID]
	for i, m := range roster {
		if m.ID == memberID {
			f.rosters[groupID] = append(roster[:i], roster[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroupStore) BindMember(_ context.Context, groupID uint, email string, userID uint) error {
	roster := f.rosters[groupID]
	for i, m := range roster {
		if strings.EqualFold(m.Email, email) {
			id := userID
			roster[i].UserID = &id
			return nil
		}
	}
	return fmt.Errorf("no roster entry for %s", email)
}

func (f *fakeGroupStore) Delete(_ context.Context, groupID uint) error {
	delete(f.groups, groupID)
	delete(f.rosters, groupID)
	delete(f.invitations, groupID)
	return nil
}

// fakeInvitationStore serves the invitations seeded through fakeGroupStore
type fakeInvitationStore struct {
	groups    *fakeGroupStore
	redeemErr error
}

func (f *fakeInvitationStore) GetByEmailAndCode(_ context.Context, email, code string) (*models.Invitation, error) {
	for _, invs := range f.groups.invitations {
		for i := range invs {
			if strings.EqualFold(invs[i].Email, email) && invs[i].Code == code {
				return &invs[i], nil
			}
		}
	}
	return nil, nil
}

func (f *fakeInvitationStore) ListUnredeemedByGroup(_ context.Context, groupID uint) ([]models.Invitation, error) {
	out := []models.Invitation{}
	for _, inv := range f.groups.invitations[groupID] {
		if !inv.Redeemed() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationStore) Redeem(_ context.Context, invitationID uuid.UUID, userID uint) (bool, error) {
	if f.redeemErr != nil {
		return false, f.redeemErr
	}
	for groupID, invs := range f.groups.invitations {
		for i := range invs {
			if invs[i].ID == invitationID {
				if invs[i].RedeemedBy != nil {
					return false, nil
				}
				id := userID
				now := time.Now()
				f.groups.invitations[groupID][i].RedeemedBy = &id
				f.groups.invitations[groupID][i].RedeemedAt = &now
				return true, nil
			}
		}
	}
	return false, nil
}

// fakeMailer records invitation mails, failing addresses listed in failFor
type fakeMailer struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeMailer) SendInvitation(to, _, _, _ string) error {
	if f.failFor[to] {
		return fmt.Errorf("smtp refused %s", to)
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) SendGroupComplete(to, _, _ string) error {
	if f.failFor[to] {
		return fmt.Errorf("smtp refused %s", to)
	}
	f.sent = append(f.sent, to)
	return nil
}

// fakeFeedbackStore keeps submissions and feedback rows in memory
type fakeFeedbackStore struct {
	groups      *fakeGroupStore
	submissions map[uint]map[uint]bool // groupID -> respondent set
	items       []models.FeedbackItem
	nextSubID   uint
	submitErr   error
}

func newFakeFeedbackStore(groups *fakeGroupStore) *fakeFeedbackStore {
	return &fakeFeedbackStore{
		groups:      groups,
		submissions: map[uint]map[uint]bool{},
		nextSubID:   1,
	}
}

func (f *fakeFeedbackStore) SubmitRound(_ context.Context, sub *models.Submission, items []models.FeedbackItem, _ repository.SealFunc) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	if f.submissions[sub.GroupID] == nil {
		f.submissions[sub.GroupID] = map[uint]bool{}
	}
	f.submissions[sub.GroupID][sub.RespondentUserID] = true
	sub.ID = f.nextSubID
	sub.CreatedAt = time.Now()
	f.nextSubID++
	for i := range items {
		items[i].GroupID = sub.GroupID
		items[i].SubmissionID = sub.ID
		items[i].RespondentUserID = sub.RespondentUserID
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeFeedbackStore) CompletionCounts(_ context.Context, groupID uint) (int, int, error) {
	// counts mirror the SQL: submitted roster members over roster size
	roster := f.groups.rosters[groupID]
	completed := 0
	for _, m := range roster {
		if m.UserID != nil && f.submissions[groupID][*m.UserID] {
			completed++
		}
	}
	return completed, len(roster), nil
}

func (f *fakeFeedbackStore) ListForRecipient(_ context.Context, groupID, recipientUserID uint) ([]models.FeedbackItem, error) {
	out := []models.FeedbackItem{}
	for _, item := range f.items {
		if item.GroupID == groupID && item.RecipientUserID == recipientUserID {
			out = append(out, item)
		}
	}
	return out, nil
}
