package sqlite

import (
	"testing"
	"time"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	userID, err := db.InsertUser("Ana", "", false, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	// Migrations rerun on every open; data must survive.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()
	user, err := db.GetUser(userID)
	if err != nil || user == nil || user.Name != "Ana" {
		t.Fatalf("user should survive reopen, got %v (%v)", user, err)
	}
}

func TestOnlyOneActivePeriod(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	mk := func() int64 {
		id, err := db.InsertPeriod(domain.Period{
			Type: domain.PeriodWeek, Status: domain.PeriodSetup,
			StartDate: now, EndDate: now.AddDate(0, 0, 7), CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("insert period: %v", err)
		}
		return id
	}
	first, second := mk(), mk()

	updated, conflict, err := db.UpdatePeriodStatus(first, domain.PeriodSetup, domain.PeriodActive)
	if err != nil || !updated || conflict {
		t.Fatalf("activate first: updated=%v conflict=%v err=%v", updated, conflict, err)
	}

	// The partial unique index refuses a second active row.
	updated, conflict, err = db.UpdatePeriodStatus(second, domain.PeriodSetup, domain.PeriodActive)
	if err != nil {
		t.Fatalf("activate second: %v", err)
	}
	if updated || !conflict {
		t.Fatalf("second activation should conflict, got updated=%v conflict=%v", updated, conflict)
	}
}

func TestStatusPredicatesGuardUpdates(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	ana, _ := db.InsertUser("Ana", "", false, now)
	ben, _ := db.InsertUser("Ben", "", false, now)
	periodID, _ := db.InsertPeriod(domain.Period{
		Type: domain.PeriodWeek, Status: domain.PeriodActive,
		StartDate: now, EndDate: now.AddDate(0, 0, 7), CreatedAt: now,
	})

	prop := &domain.Proposal{
		PeriodID: periodID, WeekIndex: 1,
		ProposedByUserID: ana, ProposedToUserID: ben,
		ChallengeType: domain.ChallengeSimple, CustomTitle: "walk",
		Status: domain.StatusProposed, CreatedAt: now,
	}
	id, err := db.InsertProposal(prop)
	if err != nil {
		t.Fatalf("insert proposal: %v", err)
	}
	prop.ID = id

	// Completing a proposal that was never accepted affects zero rows.
	updated, err := db.MarkCompleted(id, now)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if updated {
		t.Fatal("completing an unaccepted proposal must be a no-op")
	}

	// Same for confirm: no status flip, no ledger entries.
	booked, err := db.ConfirmAndBook(prop, 3, now, "cost", "reward")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if booked {
		t.Fatal("confirming an unaccepted proposal must be a no-op")
	}
	if entries, _ := db.EntriesForProposal(id); len(entries) != 0 {
		t.Fatalf("no entries expected, got %d", len(entries))
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	db := openTestDB(t)
	created := time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC)

	id, err := db.InsertUser("Ana", "", false, created)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	user, err := db.GetUser(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !user.CreatedAt.Equal(created) {
		t.Errorf("timestamp round trip: want %v, got %v", created, user.CreatedAt)
	}
}
