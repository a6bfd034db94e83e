package repository_test

import (
	"context"
	"sync"
	"testing"

	"offrecord/internal/database"
	"offrecord/internal/models"
	"offrecord/internal/repository"
	"offrecord/internal/testutil"
)

func submitFor(t *testing.T, repo *repository.FeedbackRepository, f *testutil.Fixtures, respondentIdx int) {
	t.Helper()
	respondent := f.Members[respondentIdx]
	items := []models.FeedbackItem{}
	for i, m := range f.Members {
		if i == respondentIdx {
			continue
		}
		items = append(items, models.FeedbackItem{
			RecipientUserID: m.ID,
			Strengths:       "clear thinking",
			Improvements:    "share context earlier",
			Score:           100,
		})
	}
	sub := &models.Submission{GroupID: f.Group.ID, RespondentUserID: respondent.ID}
	if err := repo.SubmitRound(context.Background(), sub, items, nil); err != nil {
		t.Fatalf("SubmitRound for member %d failed: %v", respondentIdx, err)
	}
}

// TestConcurrentDoubleSubmit verifies the uniqueness constraint arbitrates a
// duplicate concurrent submission: exactly one wins
func TestConcurrentDoubleSubmit(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)

	repo := repository.NewFeedbackRepository(containers.DB)
	respondent := fixtures.Members[0]

	makeRound := func() []models.FeedbackItem {
		return []models.FeedbackItem{
			{RecipientUserID: fixtures.Members[1].ID, Strengths: "a", Improvements: "b", Score: 100},
			{RecipientUserID: fixtures.Members[2].ID, Strengths: "a", Improvements: "b", Score: 100},
		}
	}

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := &models.Submission{GroupID: fixtures.Group.ID, RespondentUserID: respondent.ID}
			errs[i] = repo.SubmitRound(context.Background(), sub, makeRound(), nil)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !database.IsUniqueViolation(err, "submissions_one_per_respondent") {
			t.Errorf("loser got unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("%d submissions succeeded, want exactly 1", successes)
	}

	var itemCount int
	if err := containers.DB.QueryRow(
		`SELECT COUNT(*) FROM feedback_items WHERE group_id = $1`, fixtures.Group.ID,
	).Scan(&itemCount); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if itemCount != 2 {
		t.Errorf("stored %d feedback rows, want 2 (losers must roll back)", itemCount)
	}
}

// TestCascadeDelete verifies deleting a group removes every dependent row
func TestCascadeDelete(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)

	feedbackRepo := repository.NewFeedbackRepository(containers.DB)
	groupRepo := repository.NewGroupRepository(containers.DB)
	for i := range fixtures.Members {
		submitFor(t, feedbackRepo, fixtures, i)
	}

	if err := groupRepo.Delete(context.Background(), fixtures.Group.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, table := range []string{"group_members", "invitations", "submissions", "feedback_items", "sealed_records", "group_keys"} {
		var count int
		if err := containers.DB.QueryRow(
			`SELECT COUNT(*) FROM `+table+` WHERE group_id = $1`, fixtures.Group.ID,
		).Scan(&count); err != nil {
			t.Fatalf("count on %s failed: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s still holds %d rows after group delete", table, count)
		}
	}
}

// TestListForRecipientReturnsOnlyOwnRows verifies the disclosure predicate
func TestListForRecipientReturnsOnlyOwnRows(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)

	repo := repository.NewFeedbackRepository(containers.DB)
	for i := range fixtures.Members {
		submitFor(t, repo, fixtures, i)
	}

	recipient := fixtures.Members[1]
	items, err := repo.ListForRecipient(context.Background(), fixtures.Group.ID, recipient.ID)
	if err != nil {
		t.Fatalf("ListForRecipient failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d rows, want 2", len(items))
	}
	for _, item := range items {
		if item.RecipientUserID != recipient.ID {
			t.Errorf("row addressed to %d leaked to %d", item.RecipientUserID, recipient.ID)
		}
		if item.RespondentUserID == recipient.ID {
			t.Errorf("recipient received their own feedback row")
		}
	}

	// the host authored nothing and receives nothing
	hostRows, err := repo.ListForRecipient(context.Background(), fixtures.Group.ID, fixtures.Host.ID)
	if err != nil {
		t.Fatalf("ListForRecipient for host failed: %v", err)
	}
	if len(hostRows) != 0 {
		t.Errorf("host got %d feedback rows, want 0", len(hostRows))
	}
}

// TestCompletionCountsIntersectRoster verifies submissions from removed
// members stop counting
func TestCompletionCountsIntersectRoster(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)

	feedbackRepo := repository.NewFeedbackRepository(containers.DB)
	groupRepo := repository.NewGroupRepository(containers.DB)

	submitFor(t, feedbackRepo, fixtures, 0)
	completed, total, err := feedbackRepo.CompletionCounts(context.Background(), fixtures.Group.ID)
	if err != nil {
		t.Fatalf("CompletionCounts failed: %v", err)
	}
	if completed != 1 || total != 3 {
		t.Errorf("counts = %d/%d, want 1/3", completed, total)
	}

	roster, err := groupRepo.GetRoster(context.Background(), fixtures.Group.ID)
	if err != nil {
		t.Fatalf("GetRoster failed: %v", err)
	}
	var submitterEntry uint
	for _, m := range roster {
		if m.UserID != nil && *m.UserID == fixtures.Members[0].ID {
			submitterEntry = m.ID
		}
	}

	removed, err := groupRepo.RemoveMember(context.Background(), fixtures.Group.ID, submitterEntry)
	if err != nil || !removed {
		t.Fatalf("RemoveMember = %v, %v", removed, err)
	}

	completed, total, err = feedbackRepo.CompletionCounts(context.Background(), fixtures.Group.ID)
	if err != nil {
		t.Fatalf("CompletionCounts failed: %v", err)
	}
	if completed != 0 || total != 2 {
		t.Errorf("counts after removal = %d/%d, want 0/2", completed, total)
	}

	// the removed member's feedback rows survive
	var itemCount int
	if err := containers.DB.QueryRow(
		`SELECT COUNT(*) FROM feedback_items WHERE respondent_user_id = $1`, fixtures.Members[0].ID,
	).Scan(&itemCount); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if itemCount != 2 {
		t.Errorf("removed member's feedback rows = %d, want 2 (append-only)", itemCount)
	}
}

// TestInvitationRedeemRace verifies the redeemed_by guard lets exactly one
// caller win
func TestInvitationRedeemRace(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)

	repo := repository.NewInvitationRepository(containers.DB)
	inv := &models.Invitation{
		GroupID:     fixtures.Group.ID,
		Email:       "late@test.com",
		DisplayName: "Late Joiner",
		Code:        "ABC234",
	}
	if err := repo.Create(context.Background(), inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	userA := testutil.CreateUser(t, containers.DB, "a@test.com", "A")
	userB := testutil.CreateUser(t, containers.DB, "b@test.com", "B")

	var wg sync.WaitGroup
	wins := make([]bool, 2)
	for i, u := range []uint{userA.ID, userB.ID} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			won, err := repo.Redeem(context.Background(), inv.ID, userID)
			if err != nil {
				t.Errorf("Redeem failed: %v", err)
				return
			}
			wins[i] = won
		}(i, u)
	}
	wg.Wait()

	if wins[0] == wins[1] {
		t.Errorf("wins = %v, want exactly one winner", wins)
	}

	got, err := repo.GetByEmailAndCode(context.Background(), "LATE@test.com", "ABC234")
	if err != nil {
		t.Fatalf("GetByEmailAndCode failed: %v", err)
	}
	if got == nil || !got.Redeemed() {
		t.Fatalf("invitation not redeemed: %+v", got)
	}
}
