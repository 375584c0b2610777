package proposal

import (
	"testing"
	"time"

	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/catalog"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

type fixture struct {
	db       *sqlite.DB
	svc      *Service
	ana      int64 // proposer
	ben      int64 // recipient
	periodID int64
	cardID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now().UTC()
	ana, err := db.InsertUser("Ana", "", true, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	ben, err := db.InsertUser("Ben", "", false, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	periodID, err := db.InsertPeriod(domain.Period{
		Type:              domain.PeriodMonth,
		Status:            domain.PeriodActive,
		StartDate:         now.AddDate(0, 0, -1),
		EndDate:           now.AddDate(0, 0, 27),
		WeeklyBaseCredits: 5,
		CreatedAt:         now,
	})
	if err != nil {
		t.Fatalf("insert period: %v", err)
	}

	cardID, err := db.InsertCard(domain.Card{
		Title:       "Massage night",
		Description: "A thirty minute massage.",
		Category:    domain.CategoryCalientes,
		CreditValue: 3,
		IsEnabled:   true,
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("insert card: %v", err)
	}

	return &fixture{
		db:       db,
		svc:      NewService(db, catalog.New(db), DefaultConfig()),
		ana:      ana,
		ben:      ben,
		periodID: periodID,
		cardID:   cardID,
	}
}

func (f *fixture) propose(t *testing.T) *domain.Proposal {
	t.Helper()
	prop, err := f.svc.Create(CreateParams{
		PeriodID:         f.periodID,
		WeekIndex:        1,
		ProposedByUserID: f.ana,
		ProposedToUserID: f.ben,
		CardID:           &f.cardID,
	})
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	return prop
}

func intPtr(v int) *int { return &v }

// The happy path: card suggests 3 credits, recipient accepts at 5. The
// negotiated cost is what settles, and only at confirmation.
func TestFullLifecycleBooksNegotiatedCost(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	if prop.Status != domain.StatusProposed {
		t.Fatalf("new proposal should be proposed, got %s", prop.Status)
	}
	if prop.CreditCost != nil {
		t.Fatal("credit cost must be unset before acceptance")
	}

	// Accept at 5, overriding the card's suggested 3.
	prop, err := f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, intPtr(5))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if prop.Status != domain.StatusAccepted || prop.CreditCost == nil || *prop.CreditCost != 5 {
		t.Fatalf("want accepted at cost 5, got %s cost %v", prop.Status, prop.CreditCost)
	}

	// No credits move before confirmation.
	for _, userID := range []int64{f.ana, f.ben} {
		if bal, _ := f.db.Balance(userID); bal != 0 {
			t.Fatalf("user %d balance should be 0 before confirm, got %d", userID, bal)
		}
	}

	prop, err = f.svc.MarkComplete(prop.ID, f.ben)
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if prop.Status != domain.StatusCompletedPending {
		t.Fatalf("want completed_pending_confirmation, got %s", prop.Status)
	}

	prop, err = f.svc.Confirm(prop.ID, f.ana)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if prop.Status != domain.StatusCompletedConfirmed {
		t.Fatalf("want completed_confirmed, got %s", prop.Status)
	}

	benBal, _ := f.db.Balance(f.ben)
	anaBal, _ := f.db.Balance(f.ana)
	if benBal != -5 {
		t.Errorf("recipient should be debited 5, balance %d", benBal)
	}
	if anaBal != 5 {
		t.Errorf("proposer should be credited 5, balance %d", anaBal)
	}

	// Conservation: the pair nets to zero.
	if sum, _ := f.db.SumForProposal(prop.ID); sum != 0 {
		t.Errorf("proposal entries should net to zero, got %d", sum)
	}
	entries, err := f.db.EntriesForProposal(prop.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want exactly 2 entries, got %d", len(entries))
	}
}

func TestRejectedIsTerminalAndFree(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	prop, err := f.svc.Respond(prop.ID, f.ben, domain.StatusRejected, nil)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if prop.Status != domain.StatusRejected {
		t.Fatalf("want rejected, got %s", prop.Status)
	}

	// Rejection books nothing.
	if entries, _ := f.db.EntriesForProposal(prop.ID); len(entries) != 0 {
		t.Errorf("rejection must not create ledger entries, got %d", len(entries))
	}

	// Every subsequent operation conflicts.
	if _, err := f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, intPtr(3)); domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("respond after reject: want conflict, got %v", err)
	}
	if _, err := f.svc.MarkComplete(prop.ID, f.ben); domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("complete after reject: want conflict, got %v", err)
	}
	if _, err := f.svc.Confirm(prop.ID, f.ana); domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("confirm after reject: want conflict, got %v", err)
	}
}

func TestMaybeLaterStaysOpen(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	prop, err := f.svc.Respond(prop.ID, f.ben, domain.StatusMaybeLater, nil)
	if err != nil {
		t.Fatalf("maybe_later: %v", err)
	}
	if prop.Status != domain.StatusMaybeLater {
		t.Fatalf("want maybe_later, got %s", prop.Status)
	}

	// The recipient can still accept afterward.
	prop, err = f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, intPtr(2))
	if err != nil {
		t.Fatalf("accept after maybe_later: %v", err)
	}
	if prop.Status != domain.StatusAccepted {
		t.Fatalf("want accepted, got %s", prop.Status)
	}
}

func TestActorAuthorization(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	// Proposer cannot answer their own proposal.
	if _, err := f.svc.Respond(prop.ID, f.ana, domain.StatusAccepted, intPtr(3)); domain.CodeOf(err) != domain.CodeUnauthorizedActor {
		t.Errorf("proposer responding: want unauthorized, got %v", err)
	}

	if _, err := f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, intPtr(3)); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Proposer cannot claim completion.
	if _, err := f.svc.MarkComplete(prop.ID, f.ana); domain.CodeOf(err) != domain.CodeUnauthorizedActor {
		t.Errorf("proposer completing: want unauthorized, got %v", err)
	}
	if _, err := f.svc.MarkComplete(prop.ID, f.ben); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Recipient cannot confirm their own completion claim.
	if _, err := f.svc.Confirm(prop.ID, f.ben); domain.CodeOf(err) != domain.CodeUnauthorizedActor {
		t.Errorf("recipient confirming: want unauthorized, got %v", err)
	}
}

func TestConfirmRequiresCompletionClaim(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	// Straight to confirm: refused, accepted is not pending confirmation.
	if _, err := f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, intPtr(3)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Confirm(prop.ID, f.ana); domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("confirm without completion claim: want conflict, got %v", err)
	}
	if entries, _ := f.db.EntriesForProposal(prop.ID); len(entries) != 0 {
		t.Errorf("failed confirm must not book entries, got %d", len(entries))
	}
}

func TestAcceptCostBounds(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		cost    *int
		wantErr bool
	}{
		{nil, true},
		{intPtr(0), true},
		{intPtr(-2), true},
		{intPtr(8), true},
		{intPtr(1), false},
		{intPtr(7), false},
	}
	for _, tc := range cases {
		prop := f.propose(t)
		_, err := f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, tc.cost)
		if tc.wantErr && domain.CodeOf(err) != domain.CodeValidation {
			t.Errorf("cost %v: want validation error, got %v", tc.cost, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("cost %v: unexpected error %v", tc.cost, err)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	// Self-proposal.
	_, err := f.svc.Create(CreateParams{
		PeriodID: f.periodID, WeekIndex: 1,
		ProposedByUserID: f.ana, ProposedToUserID: f.ana,
		CardID: &f.cardID,
	})
	if domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("self-proposal: want validation error, got %v", err)
	}

	// Both card and custom title.
	_, err = f.svc.Create(CreateParams{
		PeriodID: f.periodID, WeekIndex: 1,
		ProposedByUserID: f.ana, ProposedToUserID: f.ben,
		CardID: &f.cardID, CustomTitle: "also this",
	})
	if domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("card+custom: want validation error, got %v", err)
	}

	// Neither.
	_, err = f.svc.Create(CreateParams{
		PeriodID: f.periodID, WeekIndex: 1,
		ProposedByUserID: f.ana, ProposedToUserID: f.ben,
	})
	if domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("no challenge: want validation error, got %v", err)
	}

	// Phantom card is a hard failure.
	phantom := int64(99999)
	_, err = f.svc.Create(CreateParams{
		PeriodID: f.periodID, WeekIndex: 1,
		ProposedByUserID: f.ana, ProposedToUserID: f.ben,
		CardID: &phantom,
	})
	if domain.CodeOf(err) != domain.CodeNotFound {
		t.Errorf("phantom card: want not found, got %v", err)
	}

	// Unknown recipient.
	_, err = f.svc.Create(CreateParams{
		PeriodID: f.periodID, WeekIndex: 1,
		ProposedByUserID: f.ana, ProposedToUserID: 404,
		CardID: &f.cardID,
	})
	if domain.CodeOf(err) != domain.CodeNotFound {
		t.Errorf("unknown recipient: want not found, got %v", err)
	}
}

func TestCustomProposalEditAndDelete(t *testing.T) {
	f := newFixture(t)

	prop, err := f.svc.Create(CreateParams{
		PeriodID: f.periodID, WeekIndex: 1,
		ProposedByUserID: f.ana, ProposedToUserID: f.ben,
		ChallengeType: domain.ChallengeCustom,
		CustomTitle:   "Cook together",
		Details:       domain.ChallengeDetails{Boundaries: "no shellfish"},
	})
	if err != nil {
		t.Fatalf("create custom: %v", err)
	}

	// Recipient cannot edit.
	newTitle := "Bake together"
	if _, err := f.svc.Update(prop.ID, f.ben, UpdateParams{CustomTitle: &newTitle}); domain.CodeOf(err) != domain.CodeUnauthorizedActor {
		t.Errorf("recipient edit: want unauthorized, got %v", err)
	}

	// Proposer edits while pending.
	got, err := f.svc.Update(prop.ID, f.ana, UpdateParams{CustomTitle: &newTitle})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.CustomTitle != "Bake together" {
		t.Errorf("title not updated, got %q", got.CustomTitle)
	}

	// After acceptance the proposal is frozen.
	if _, err := f.svc.Respond(prop.ID, f.ben, domain.StatusAccepted, intPtr(2)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Update(prop.ID, f.ana, UpdateParams{CustomTitle: &newTitle}); domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("edit after accept: want conflict, got %v", err)
	}
	if err := f.svc.Delete(prop.ID, f.ana); domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("delete after accept: want conflict, got %v", err)
	}
}

func TestCardProposalNotEditable(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	title := "new title"
	if _, err := f.svc.Update(prop.ID, f.ana, UpdateParams{CustomTitle: &title}); domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("editing card proposal: want validation error, got %v", err)
	}
}

func TestDeletePendingProposal(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	if err := f.svc.Delete(prop.ID, f.ben); domain.CodeOf(err) != domain.CodeUnauthorizedActor {
		t.Errorf("recipient delete: want unauthorized, got %v", err)
	}
	if err := f.svc.Delete(prop.ID, f.ana); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Get(prop.ID); domain.CodeOf(err) != domain.CodeNotFound {
		t.Errorf("deleted proposal should be gone, got %v", err)
	}
}

func TestSweepExpiresOverduePending(t *testing.T) {
	f := newFixture(t)

	pending := f.propose(t)
	accepted := f.propose(t)
	if _, err := f.svc.Respond(accepted.ID, f.ben, domain.StatusAccepted, intPtr(3)); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Week 1 closed 7 days after period start; sweep well past the grace
	// window.
	farFuture := time.Now().UTC().AddDate(0, 0, 30)
	n, err := f.svc.SweepExpired(farFuture)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 swept proposal, got %d", n)
	}

	got, _ := f.svc.Get(pending.ID)
	if got.Status != domain.StatusExpired {
		t.Errorf("pending proposal should be expired, got %s", got.Status)
	}
	got, _ = f.svc.Get(accepted.ID)
	if got.Status != domain.StatusAccepted {
		t.Errorf("accepted proposal must survive the sweep, got %s", got.Status)
	}

	// Sweeping again finds nothing.
	n, err = f.svc.SweepExpired(farFuture)
	if err != nil || n != 0 {
		t.Errorf("second sweep: want 0, got %d (%v)", n, err)
	}
}

func TestSweepRespectsGraceWindow(t *testing.T) {
	f := newFixture(t)
	prop := f.propose(t)

	// One day past week end but within the 2-day grace: untouched.
	justAfter := time.Now().UTC().AddDate(0, 0, 7)
	n, err := f.svc.SweepExpired(justAfter)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("sweep within grace window should skip, swept %d", n)
	}
	got, _ := f.svc.Get(prop.ID)
	if got.Status != domain.StatusProposed {
		t.Errorf("proposal should still be proposed, got %s", got.Status)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)

	first := f.propose(t)
	if _, err := f.svc.Respond(first.ID, f.ben, domain.StatusRejected, nil); err != nil {
		t.Fatalf("reject: %v", err)
	}
	f.propose(t)

	inbox, total, err := f.svc.List(sqlite.ProposalFilter{UserID: f.ben, AsRecipient: true, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(inbox) != 2 {
		t.Fatalf("recipient inbox: want 2, got %d/%d", len(inbox), total)
	}

	rejected, total, err := f.svc.List(sqlite.ProposalFilter{UserID: f.ben, AsRecipient: true, Status: "rejected", Limit: 10})
	if err != nil {
		t.Fatalf("list rejected: %v", err)
	}
	if total != 1 || rejected[0].ID != first.ID {
		t.Fatalf("status filter: want the rejected proposal, got %d matches", total)
	}

	if _, _, err := f.svc.List(sqlite.ProposalFilter{Status: "bogus", Limit: 10}); domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("bogus status: want validation error, got %v", err)
	}
}
