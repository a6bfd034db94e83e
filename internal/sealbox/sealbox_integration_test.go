package sealbox_test

import (
	"context"
	"fmt"
	"testing"

	"offrecord/internal/models"
	"offrecord/internal/repository"
	"offrecord/internal/sealbox"
	"offrecord/internal/service"
	"offrecord/internal/testutil"
)

func setupSealedService(t *testing.T) (*service.FeedbackService, *sealbox.TransitClient, *testutil.TestContainers, *testutil.Fixtures) {
	t.Helper()

	containers := testutil.SetupPostgres(t)
	t.Cleanup(func() { containers.Cleanup(t) })
	vaultContainer := testutil.SetupVault(t)
	t.Cleanup(func() { vaultContainer.Cleanup(t) })

	transit, err := sealbox.NewTransitClient(&sealbox.TransitConfig{
		Address:      vaultContainer.Addr,
		Token:        vaultContainer.Token,
		TransitMount: "transit",
	})
	if err != nil {
		t.Fatalf("NewTransitClient failed: %v", err)
	}

	fixtures := testutil.SetupFixtures(t, containers.DB)
	feedbackRepo := repository.NewFeedbackRepository(containers.DB)
	groupRepo := repository.NewGroupRepository(containers.DB)
	box := sealbox.NewBox(containers.DB, transit)
	svc := service.NewFeedbackService(feedbackRepo, groupRepo, box, nil)

	return svc, transit, containers, fixtures
}

func strengthsText(respondent, recipient uint) string {
	return fmt.Sprintf("strengths from %d about %d", respondent, recipient)
}

func submitSealedRound(t *testing.T, svc *service.FeedbackService, f *testutil.Fixtures, respondentIdx int) {
	t.Helper()
	respondent := f.Members[respondentIdx]
	items := []models.RoundItem{}
	for i, m := range f.Members {
		if i == respondentIdx {
			continue
		}
		items = append(items, models.RoundItem{
			RecipientUserID: m.ID,
			Strengths:       strengthsText(respondent.ID, m.ID),
			Improvements:    "share context earlier",
			Score:           100,
		})
	}
	if _, err := svc.Submit(context.Background(), respondent.ID, f.Group.ID, items); err != nil {
		t.Fatalf("Submit for member %d failed: %v", respondentIdx, err)
	}
}

// TestSealedSubmitRoundTrip verifies a full sealed round trip: submitted text
// lands encrypted, the plaintext columns stay blank, and disclosure returns
// the original text
func TestSealedSubmitRoundTrip(t *testing.T) {
	svc, _, containers, fixtures := setupSealedService(t)
	ctx := context.Background()

	for i := range fixtures.Members {
		submitSealedRound(t, svc, fixtures, i)
	}

	// no plaintext at rest
	var unsealed int
	err := containers.DB.QueryRow(`
		SELECT COUNT(*) FROM feedback_items
		WHERE group_id = $1 AND (sealed_record_id IS NULL OR strengths <> '' OR improvements <> '')
	`, fixtures.Group.ID).Scan(&unsealed)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if unsealed != 0 {
		t.Errorf("%d feedback rows hold plaintext or lack a sealed record", unsealed)
	}

	var records int
	if err := containers.DB.QueryRow(
		`SELECT COUNT(*) FROM sealed_records WHERE group_id = $1`, fixtures.Group.ID,
	).Scan(&records); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if records != 6 {
		t.Errorf("stored %d sealed records, want 6", records)
	}

	recipient := fixtures.Members[0]
	entries, err := svc.FeedbackFor(ctx, recipient.ID, fixtures.Group.ID)
	if err != nil {
		t.Fatalf("FeedbackFor failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	want := map[string]bool{
		strengthsText(fixtures.Members[1].ID, recipient.ID): true,
		strengthsText(fixtures.Members[2].ID, recipient.ID): true,
	}
	for _, e := range entries {
		if !want[e.Strengths] {
			t.Errorf("unexpected unsealed strengths %q", e.Strengths)
		}
		delete(want, e.Strengths)
		if e.Improvements != "share context earlier" {
			t.Errorf("unsealed improvements = %q", e.Improvements)
		}
	}
	if len(want) != 0 {
		t.Errorf("missing unsealed entries: %v", want)
	}
}

// TestSealedOpenFromColdInstance verifies a second Box with an empty key
// cache unwraps the persisted group key through Vault and reads the records
func TestSealedOpenFromColdInstance(t *testing.T) {
	svc, transit, containers, fixtures := setupSealedService(t)
	ctx := context.Background()

	submitSealedRound(t, svc, fixtures, 0)

	var recordID int64
	if err := containers.DB.QueryRow(
		`SELECT sealed_record_id FROM feedback_items
		 WHERE group_id = $1 AND respondent_user_id = $2 AND recipient_user_id = $3`,
		fixtures.Group.ID, fixtures.Members[0].ID, fixtures.Members[1].ID,
	).Scan(&recordID); err != nil {
		t.Fatalf("failed to load sealed record id: %v", err)
	}

	cold := sealbox.NewBox(containers.DB, transit)
	payload, err := cold.Open(ctx, fixtures.Group.ID, recordID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if payload.Strengths != strengthsText(fixtures.Members[0].ID, fixtures.Members[1].ID) {
		t.Errorf("unsealed strengths = %q", payload.Strengths)
	}

	// one wrapped key per group, reused by both instances
	var keyRows int
	if err := containers.DB.QueryRow(
		`SELECT COUNT(*) FROM group_keys WHERE group_id = $1`, fixtures.Group.ID,
	).Scan(&keyRows); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if keyRows != 1 {
		t.Errorf("group_keys rows = %d, want 1", keyRows)
	}
}
