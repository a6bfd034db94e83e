package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system
type User struct {
	ID           uint      `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Group represents a feedback group owned by its host
type Group struct {
	ID         uint      `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	HostUserID uint      `json:"host_user_id" db:"host_user_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// GroupMember is one roster entry of a group. UserID stays nil until the
// member redeems their invitation.
type GroupMember struct {
	ID          uint      `json:"id" db:"id"`
	GroupID     uint      `json:"group_id" db:"group_id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	UserID      *uint     `json:"user_id,omitempty" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// GroupWithRoster extends Group with its roster snapshot
type GroupWithRoster struct {
	Group
	Roster []GroupMember `json:"roster"`
}

// Invitation is a one-time credential binding an invited email to an account
type Invitation struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	GroupID     uint       `json:"group_id" db:"group_id"`
	Email       string     `json:"email" db:"email"`
	DisplayName string     `json:"display_name" db:"display_name"`
	Code        string     `json:"-" db:"code"`
	RedeemedBy  *uint      `json:"redeemed_by,omitempty" db:"redeemed_by"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty" db:"redeemed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Redeemed reports whether the invitation is bound to an account
func (i *Invitation) Redeemed() bool {
	return i.RedeemedBy != nil
}

// Submission records that a respondent submitted their round for a group,
// at most once. It carries no content.
type Submission struct {
	ID               uint      `json:"id" db:"id"`
	GroupID          uint      `json:"group_id" db:"group_id"`
	RespondentUserID uint      `json:"respondent_user_id" db:"respondent_user_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// FeedbackItem is one respondent's feedback about one recipient
type FeedbackItem struct {
	ID               uint      `json:"id" db:"id"`
	GroupID          uint      `json:"group_id" db:"group_id"`
	SubmissionID     uint      `json:"-" db:"submission_id"`
	RespondentUserID uint      `json:"-" db:"respondent_user_id"`
	RecipientUserID  uint      `json:"recipient_user_id" db:"recipient_user_id"`
	Strengths        string    `json:"strengths" db:"strengths"`
	Improvements     string    `json:"improvements" db:"improvements"`
	Score            int       `json:"score" db:"score"`
	SealedRecordID   *int64    `json:"-" db:"sealed_record_id"`
	CreatedAt        time.Time `json:"-" db:"created_at"`
}

// FeedbackEntry is the anonymized shape handed to a recipient: no ids, no
// respondent, no timestamps that could correlate rows with submitters.
type FeedbackEntry struct {
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Score        int    `json:"score"`
}

// RoundItem is one recipient's slot inside a submitted feedback round
type RoundItem struct {
	RecipientUserID uint   `json:"recipient_user_id"`
	Strengths       string `json:"strengths"`
	Improvements    string `json:"improvements"`
	Score           int    `json:"score"`
}

// Completion is the submission progress of a group
type Completion struct {
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	Complete  bool `json:"complete"`
}

// InvitationSendResult reports the outcome of an invitation mail batch
type InvitationSendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ReminderTarget is one roster member still owing their feedback round
type ReminderTarget struct {
	GroupID     uint   `json:"group_id" db:"group_id"`
	GroupName   string `json:"group_name" db:"group_name"`
	Email       string `json:"email" db:"email"`
	DisplayName string `json:"display_name" db:"display_name"`
}

// Report is the data handed to the report template for one recipient
type Report struct {
	GroupName     string          `json:"group_name"`
	RecipientName string          `json:"recipient_name"`
	Entries       []FeedbackEntry `json:"entries"`
	AverageScore  int             `json:"average_score"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
