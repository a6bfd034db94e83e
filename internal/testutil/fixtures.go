package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"offrecord/internal/models"
)

// Fixtures holds test data: a host, a group and three bound members
type Fixtures struct {
	DB      *sql.DB
	Host    *models.User
	Group   *models.Group
	Members []*models.User
}

// SetupFixtures creates a host, three member accounts and a group whose
// roster entries are already bound to the member accounts
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	fixtures := &Fixtures{DB: db}
	fixtures.Host = CreateUser(t, db, "host@test.com", "Host")
	for i := 0; i < 3; i++ {
		fixtures.Members = append(fixtures.Members,
			CreateUser(t, db, fmt.Sprintf("member%d@test.com", i+1), fmt.Sprintf("Member %d", i+1)))
	}

	fixtures.Group = CreateGroup(t, db, fixtures.Host.ID, "Integration Retro")
	for _, m := range fixtures.Members {
		AddBoundMember(t, db, fixtures.Group.ID, m)
	}

	return fixtures
}

// CreateUser creates a user account
func CreateUser(t *testing.T, db *sql.DB, email, displayName string) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var user models.User
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, display_name, created_at, updated_at
	`, email, string(hashedPassword), displayName).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	return &user
}

// CreateGroup creates a group owned by the given host
func CreateGroup(t *testing.T, db *sql.DB, hostUserID uint, name string) *models.Group {
	t.Helper()

	var group models.Group
	err := db.QueryRow(`
		INSERT INTO groups (name, host_user_id)
		VALUES ($1, $2)
		RETURNING id, name, host_user_id, created_at
	`, name, hostUserID).Scan(&group.ID, &group.Name, &group.HostUserID, &group.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create group %s: %v", name, err)
	}

	return &group
}

// AddBoundMember adds the user to the group's roster with their account bound
func AddBoundMember(t *testing.T, db *sql.DB, groupID uint, user *models.User) uint {
	t.Helper()

	var memberID uint
	err := db.QueryRow(`
		INSERT INTO group_members (group_id, email, display_name, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, groupID, user.Email, user.DisplayName, user.ID).Scan(&memberID)
	if err != nil {
		t.Fatalf("Failed to add member %s to group %d: %v", user.Email, groupID, err)
	}

	return memberID
}
