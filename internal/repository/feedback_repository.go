package repository

import (
	"context"
	"database/sql"
	"time"

	"offrecord/internal/database"
	"offrecord/internal/models"
)

// SealFunc encrypts one feedback payload inside the submission transaction
// and returns the sealed record id. A nil SealFunc leaves the text in the
// plaintext columns.
type SealFunc func(ctx context.Context, tx *sql.Tx, groupID uint, strengths, improvements string) (int64, error)

// FeedbackRepository handles database operations for submissions and
// feedback items
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// CreateSubmission inserts the respondent's submission marker inside the
// caller's transaction. A unique violation on submissions_one_per_respondent
// means the respondent already submitted.
func (r *FeedbackRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *models.Submission) error {
	query := `
		INSERT INTO submissions (group_id, respondent_user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	return tx.QueryRowContext(ctx, query,
		sub.GroupID,
		sub.RespondentUserID,
	).Scan(&sub.ID, &sub.CreatedAt)
}

// InsertFeedbackItem inserts one feedback row inside the caller's transaction
func (r *FeedbackRepository) InsertFeedbackItem(ctx context.Context, tx *sql.Tx, item *models.FeedbackItem) error {
	query := `
		INSERT INTO feedback_items (
			group_id, submission_id, respondent_user_id, recipient_user_id,
			strengths, improvements, score, sealed_record_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	return tx.QueryRowContext(ctx, query,
		item.GroupID,
		item.SubmissionID,
		item.RespondentUserID,
		item.RecipientUserID,
		item.Strengths,
		item.Improvements,
		item.Score,
		item.SealedRecordID,
	).Scan(&item.ID, &item.CreatedAt)
}

// SubmitRound stores the submission marker and every feedback row in one
// transaction. When seal is non-nil each payload is sealed first and the
// plaintext columns are left empty. A unique violation from the submission
// marker aborts the whole round.
func (r *FeedbackRepository) SubmitRound(ctx context.Context, sub *models.Submission, items []models.FeedbackItem, seal SealFunc) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.CreateSubmission(ctx, tx, sub); err != nil {
			return err
		}

		for i := range items {
			items[i].GroupID = sub.GroupID
			items[i].SubmissionID = sub.ID
			items[i].RespondentUserID = sub.RespondentUserID

			if seal != nil {
				recordID, err := seal(ctx, tx, sub.GroupID, items[i].Strengths, items[i].Improvements)
				if err != nil {
					return err
				}
				items[i].SealedRecordID = &recordID
				items[i].Strengths = ""
				items[i].Improvements = ""
			}

			if err := r.InsertFeedbackItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// CompletionCounts returns how many current roster members have submitted and
// the roster size. Submissions from since-removed members do not count.
func (r *FeedbackRepository) CompletionCounts(ctx context.Context, groupID uint) (completed, total int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(s.id),
			COUNT(gm.id)
		FROM group_members gm
		LEFT JOIN submissions s
			ON s.group_id = gm.group_id AND s.respondent_user_id = gm.user_id
		WHERE gm.group_id = $1
	`, groupID).Scan(&completed, &total)
	return completed, total, err
}

// ListReminderTargets retrieves roster members of groups at least minAge old
// who have not submitted their round yet
func (r *FeedbackRepository) ListReminderTargets(ctx context.Context, minAge time.Duration) ([]models.ReminderTarget, error) {
	query := `
		SELECT gm.group_id, g.name, gm.email, gm.display_name
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id
		WHERE g.created_at < NOW() - make_interval(secs => $1)
		  AND NOT EXISTS (
			SELECT 1 FROM submissions s
			WHERE s.group_id = gm.group_id AND s.respondent_user_id = gm.user_id
		  )
		ORDER BY gm.group_id, gm.id
	`

	rows, err := r.db.QueryContext(ctx, query, minAge.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := []models.ReminderTarget{}
	for rows.Next() {
		var t models.ReminderTarget
		if err := rows.Scan(&t.GroupID, &t.GroupName, &t.Email, &t.DisplayName); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// ListForRecipient retrieves the feedback rows addressed to one recipient.
// Rows from since-removed respondents stay; feedback is append-only.
func (r *FeedbackRepository) ListForRecipient(ctx context.Context, groupID, recipientUserID uint) ([]models.FeedbackItem, error) {
	query := `
		SELECT id, group_id, submission_id, respondent_user_id, recipient_user_id,
		       strengths, improvements, score, sealed_record_id, created_at
		FROM feedback_items
		WHERE group_id = $1 AND recipient_user_id = $2
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, recipientUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.FeedbackItem{}
	for rows.Next() {
		var item models.FeedbackItem
		err := rows.Scan(
			&item.ID,
			&item.GroupID,
			&item.SubmissionID,
			&item.RespondentUserID,
			&item.RecipientUserID,
			&item.Strengths,
			&item.Improvements,
			&item.Score,
			&item.SealedRecordID,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
