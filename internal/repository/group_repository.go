package repository

import (
	"context"
	"database/sql"

	"offrecord/internal/database"
	"offrecord/internal/models"
)

// GroupRepository handles database operations for groups and their rosters
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group together with its roster and the freshly minted
// invitations in one transaction
func (r *GroupRepository) Create(ctx context.Context, group *models.Group, roster []models.GroupMember, invitations []models.Invitation) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO groups (name, host_user_id)
			VALUES ($1, $2)
			RETURNING id, created_at
		`, group.Name, group.HostUserID).Scan(&group.ID, &group.CreatedAt)
		if err != nil {
			return err
		}

		for i := range roster {
			roster[i].GroupID = group.ID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO group_members (group_id, email, display_name)
				VALUES ($1, $2, $3)
				RETURNING id, created_at
			`, group.ID, roster[i].Email, roster[i].DisplayName).Scan(&roster[i].ID, &roster[i].CreatedAt)
			if err != nil {
				return err
			}
		}

		for i := range invitations {
			invitations[i].GroupID = group.ID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO invitations (id, group_id, email, display_name, code)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING created_at
			`, invitations[i].ID, group.ID, invitations[i].Email,
				invitations[i].DisplayName, invitations[i].Code,
			).Scan(&invitations[i].CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a group by id, returning nil when not found
func (r *GroupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	query := `
		SELECT id, name, host_user_id, created_at
		FROM groups
		WHERE id = $1
	`

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.HostUserID,
		&group.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// GetRoster retrieves the current roster of a group ordered by entry id
func (r *GroupRepository) GetRoster(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	query := `
		SELECT id, group_id, email, display_name, user_id, created_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Initialize with empty slice instead of nil to avoid JSON null
	members := []models.GroupMember{}
	for rows.Next() {
		var m models.GroupMember
		err := rows.Scan(
			&m.ID,
			&m.GroupID,
			&m.Email,
			&m.DisplayName,
			&m.UserID,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListByHost retrieves all groups hosted by a user
func (r *GroupRepository) ListByHost(ctx context.Context, hostUserID uint) ([]models.Group, error) {
	query := `
		SELECT id, name, host_user_id, created_at
		FROM groups
		WHERE host_user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.listGroups(ctx, query, hostUserID)
}

// ListByMember retrieves all groups where the user is a bound roster member
func (r *GroupRepository) ListByMember(ctx context.Context, userID uint) ([]models.Group, error) {
	query := `
		SELECT g.id, g.name, g.host_user_id, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC, g.id DESC
	`
	return r.listGroups(ctx, query, userID)
}

func (r *GroupRepository) listGroups(ctx context.Context, query string, arg interface{}) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.HostUserID, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// RemoveMember deletes a roster entry together with the member's pending
// invitation. Removing an absent member is a no-op; past submissions and
// feedback rows stay untouched.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID uint) (bool, error) {
	var removed bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var email string
		err := tx.QueryRowContext(ctx, `
			DELETE FROM group_members
			WHERE group_id = $1 AND id = $2
			RETURNING email
		`, groupID, memberID).Scan(&email)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true

		_, err = tx.ExecContext(ctx, `
			DELETE FROM invitations
			WHERE group_id = $1 AND LOWER(email) = LOWER($2) AND redeemed_by IS NULL
		`, groupID, email)
		return err
	})
	return removed, err
}

// BindMember sets the roster entry's user id after invitation redemption
func (r *GroupRepository) BindMember(ctx context.Context, groupID uint, email string, userID uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE group_members
		SET user_id = $3
		WHERE group_id = $1 AND LOWER(email) = LOWER($2)
	`, groupID, email, userID)
	return err
}

// Delete removes a group. Members, invitations, submissions, feedback and
// sealed records follow through ON DELETE CASCADE.
func (r *GroupRepository) Delete(ctx context.Context, groupID uint) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	return err
}
