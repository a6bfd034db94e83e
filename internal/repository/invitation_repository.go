package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"offrecord/internal/models"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *sql.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *sql.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create inserts an invitation with a fresh id
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	inv.ID = uuid.New()

	query := `
		INSERT INTO invitations (id, group_id, email, display_name, code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	return r.db.QueryRowContext(ctx, query,
		inv.ID,
		inv.GroupID,
		inv.Email,
		inv.DisplayName,
		inv.Code,
	).Scan(&inv.CreatedAt)
}

// GetByEmailAndCode retrieves the invitation matching the invited email and
// code, returning nil when no such pair exists. Email matching is
// case-insensitive; the code is compared exactly.
func (r *InvitationRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*models.Invitation, error) {
	query := `
		SELECT id, group_id, email, display_name, code, redeemed_by, redeemed_at, created_at
		FROM invitations
		WHERE LOWER(email) = LOWER($1) AND code = $2
		ORDER BY created_at
		LIMIT 1
	`

	inv := &models.Invitation{}
	err := r.db.QueryRowContext(ctx, query, email, code).Scan(
		&inv.ID,
		&inv.GroupID,
		&inv.Email,
		&inv.DisplayName,
		&inv.Code,
		&inv.RedeemedBy,
		&inv.RedeemedAt,
		&inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListUnredeemedByGroup retrieves the invitations not yet bound to an account
func (r *InvitationRepository) ListUnredeemedByGroup(ctx context.Context, groupID uint) ([]models.Invitation, error) {
	query := `
		SELECT id, group_id, email, display_name, code, redeemed_by, redeemed_at, created_at
		FROM invitations
		WHERE group_id = $1 AND redeemed_by IS NULL
		ORDER BY created_at, id
	`
	return r.list(ctx, query, groupID)
}

func (r *InvitationRepository) list(ctx context.Context, query string, groupID uint) ([]models.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		var inv models.Invitation
		err := rows.Scan(
			&inv.ID,
			&inv.GroupID,
			&inv.Email,
			&inv.DisplayName,
			&inv.Code,
			&inv.RedeemedBy,
			&inv.RedeemedAt,
			&inv.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// Redeem marks an invitation as redeemed by the given user. The guard on
// redeemed_by keeps a concurrent second redemption from overwriting the
// first; the return value reports whether this call won.
func (r *InvitationRepository) Redeem(ctx context.Context, invitationID uuid.UUID, userID uint) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET redeemed_by = $2, redeemed_at = NOW()
		WHERE id = $1 AND redeemed_by IS NULL
	`, invitationID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
