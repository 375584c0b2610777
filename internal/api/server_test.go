package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eojedapilchik/couples-app/internal/app/auth"
	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/app/period"
	"github.com/eojedapilchik/couples-app/internal/app/proposal"
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/catalog"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

type testServer struct {
	handler  http.Handler
	db       *sqlite.DB
	ana, ben int64 // ana is admin
	cardID   int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now().UTC()
	pinHash, err := auth.HashPIN("1234")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	ana, err := db.InsertUser("Ana", pinHash, true, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	ben, err := db.InsertUser("Ben", pinHash, false, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	cardID, err := db.InsertCard(domain.Card{
		Title:       "Sunrise walk",
		Description: "Watch the sunrise together.",
		Category:    domain.CategoryRomance,
		CreditValue: 4,
		IsEnabled:   true,
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("insert card: %v", err)
	}

	cat := catalog.New(db)
	ledger := credit.NewService(db)
	periods := period.NewService(db, ledger)
	proposals := proposal.NewService(db, cat, proposal.DefaultConfig())
	authSvc := auth.NewService(db, "test-secret", time.Hour)

	srv := NewServer(db, authSvc, proposals, ledger, periods, cat, "Venus")
	return &testServer{handler: srv.Handler(), db: db, ana: ana, ben: ben, cardID: cardID}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// activePeriod creates and activates a period through the API.
func (ts *testServer) activePeriod(t *testing.T) int64 {
	t.Helper()
	rec := ts.do(t, "POST", "/periods/", map[string]any{
		"type":                "month",
		"start_date":          time.Now().UTC().AddDate(0, 0, -1),
		"weekly_base_credits": 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create period: %d %s", rec.Code, rec.Body.String())
	}
	var p struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &p)

	rec = ts.do(t, "PATCH", fmt.Sprintf("/periods/%d/activate", p.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate period: %d %s", rec.Code, rec.Body.String())
	}
	return p.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/auth/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users: %d", rec.Code)
	}
	var users []domain.User
	decode(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("want 2 users, got %d", len(users))
	}

	rec = ts.do(t, "POST", "/auth/login", map[string]any{"user_id": ts.ana, "pin": "1234"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rec, &login)
	if login.Token == "" {
		t.Error("expected a session token")
	}

	rec = ts.do(t, "POST", "/auth/login", map[string]any{"user_id": ts.ana, "pin": "9999"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad pin: want 401, got %d", rec.Code)
	}
}

func TestBearerTokenResolvesActor(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/auth/login", map[string]any{"user_id": ts.ben, "pin": "1234"})
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rec, &login)

	req := httptest.NewRequest("GET", "/credits/balance", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	out := httptest.NewRecorder()
	ts.handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("balance via token: %d %s", out.Code, out.Body.String())
	}
	var bal struct {
		UserID int64 `json:"user_id"`
	}
	decode(t, out, &bal)
	if bal.UserID != ts.ben {
		t.Errorf("token should resolve to user %d, got %d", ts.ben, bal.UserID)
	}
}

func TestProposalLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	periodID := ts.activePeriod(t)

	// Ana proposes the card to Ben.
	rec := ts.do(t, "POST", fmt.Sprintf("/proposals/?user_id=%d", ts.ana), map[string]any{
		"proposed_to_user_id": ts.ben,
		"period_id":           periodID,
		"week_index":          1,
		"card_id":             ts.cardID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create proposal: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID           int64  `json:"id"`
		Status       string `json:"status"`
		DisplayTitle string `json:"display_title"`
	}
	decode(t, rec, &created)
	if created.Status != "proposed" {
		t.Fatalf("want proposed, got %s", created.Status)
	}
	if created.DisplayTitle != "Sunrise walk" {
		t.Errorf("display title should come from the card, got %q", created.DisplayTitle)
	}

	// Ben accepts at 5.
	rec = ts.do(t, "PATCH", fmt.Sprintf("/proposals/%d/respond?user_id=%d", created.ID, ts.ben), map[string]any{
		"response":    "accepted",
		"credit_cost": 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("respond: %d %s", rec.Code, rec.Body.String())
	}

	// Ana cannot respond for Ben.
	rec = ts.do(t, "PATCH", fmt.Sprintf("/proposals/%d/respond?user_id=%d", created.ID, ts.ana), map[string]any{
		"response": "rejected",
	})
	if rec.Code != http.StatusForbidden && rec.Code != http.StatusConflict {
		t.Errorf("proposer responding: want 403 or 409, got %d", rec.Code)
	}

	// Ben claims completion, Ana confirms.
	rec = ts.do(t, "PATCH", fmt.Sprintf("/proposals/%d/complete?user_id=%d", created.ID, ts.ben), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, "PATCH", fmt.Sprintf("/proposals/%d/confirm?user_id=%d", created.ID, ts.ana), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}

	// Balances settled at the negotiated cost.
	rec = ts.do(t, "GET", fmt.Sprintf("/credits/balance?user_id=%d", ts.ben), nil)
	var benBal struct {
		Balance  int    `json:"balance"`
		Currency string `json:"currency"`
	}
	decode(t, rec, &benBal)
	if benBal.Balance != -5 {
		t.Errorf("recipient balance: want -5, got %d", benBal.Balance)
	}
	if benBal.Currency != "Venus" {
		t.Errorf("currency name: want Venus, got %q", benBal.Currency)
	}

	rec = ts.do(t, "GET", fmt.Sprintf("/credits/balance?user_id=%d", ts.ana), nil)
	var anaBal struct {
		Balance int `json:"balance"`
	}
	decode(t, rec, &anaBal)
	if anaBal.Balance != 5 {
		t.Errorf("proposer balance: want 5, got %d", anaBal.Balance)
	}

	// Confirming twice conflicts.
	rec = ts.do(t, "PATCH", fmt.Sprintf("/proposals/%d/confirm?user_id=%d", created.ID, ts.ana), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("double confirm: want 409, got %d", rec.Code)
	}
}

func TestAcceptWithoutCostIs400(t *testing.T) {
	ts := newTestServer(t)
	periodID := ts.activePeriod(t)

	rec := ts.do(t, "POST", fmt.Sprintf("/proposals/?user_id=%d", ts.ana), map[string]any{
		"proposed_to_user_id": ts.ben,
		"period_id":           periodID,
		"card_id":             ts.cardID,
	})
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &created)

	rec = ts.do(t, "PATCH", fmt.Sprintf("/proposals/%d/respond?user_id=%d", created.ID, ts.ben), map[string]any{
		"response": "accepted",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("accept without cost: want 400, got %d", rec.Code)
	}
}

func TestCardsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/cards/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list cards: %d", rec.Code)
	}
	var list struct {
		Cards []domain.Card `json:"cards"`
		Total int           `json:"total"`
	}
	decode(t, rec, &list)
	if list.Total != 1 || len(list.Cards) != 1 {
		t.Fatalf("want 1 card, got %d/%d", len(list.Cards), list.Total)
	}

	rec = ts.do(t, "GET", "/cards/?category=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad category: want 400, got %d", rec.Code)
	}

	rec = ts.do(t, "GET", "/cards/99999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing card: want 404, got %d", rec.Code)
	}
}

func TestPeriodEndpoints(t *testing.T) {
	ts := newTestServer(t)

	// No active period yet.
	rec := ts.do(t, "GET", "/periods/active", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("active: %d", rec.Code)
	}
	if body := bytes.TrimSpace(rec.Body.Bytes()); string(body) != "null" {
		t.Errorf("want null for no active period, got %s", body)
	}

	periodID := ts.activePeriod(t)

	rec = ts.do(t, "GET", "/periods/active", nil)
	var active struct {
		ID          int64 `json:"id"`
		CurrentWeek int   `json:"current_week"`
		TotalWeeks  int   `json:"total_weeks"`
	}
	decode(t, rec, &active)
	if active.ID != periodID || active.CurrentWeek != 1 || active.TotalWeeks != 4 {
		t.Errorf("active period: got id=%d week=%d/%d", active.ID, active.CurrentWeek, active.TotalWeeks)
	}

	// A second period cannot be created while one is active.
	rec = ts.do(t, "POST", "/periods/", map[string]any{"type": "week"})
	if rec.Code != http.StatusConflict {
		t.Errorf("second period: want 409, got %d", rec.Code)
	}

	// Weekly grant endpoint is idempotent.
	rec = ts.do(t, "POST", fmt.Sprintf("/periods/%d/grant-weekly-credits", periodID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("grant weekly: %d %s", rec.Code, rec.Body.String())
	}
	var grant struct {
		Granted int `json:"granted"`
	}
	decode(t, rec, &grant)
	if grant.Granted != 2 {
		t.Errorf("first grant: want 2, got %d", grant.Granted)
	}

	rec = ts.do(t, "POST", fmt.Sprintf("/periods/%d/grant-weekly-credits", periodID), nil)
	decode(t, rec, &grant)
	if grant.Granted != 0 {
		t.Errorf("repeat grant: want 0, got %d", grant.Granted)
	}
}

func TestAdminEndpoints(t *testing.T) {
	ts := newTestServer(t)
	periodID := ts.activePeriod(t)

	rec := ts.do(t, "POST", fmt.Sprintf("/proposals/?user_id=%d", ts.ana), map[string]any{
		"proposed_to_user_id": ts.ben,
		"period_id":           periodID,
		"card_id":             ts.cardID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create proposal: %d", rec.Code)
	}

	// Ben is not an admin.
	rec = ts.do(t, "POST", fmt.Sprintf("/admin/reset?user_id=%d", ts.ben), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin reset: want 403, got %d", rec.Code)
	}

	rec = ts.do(t, "POST", fmt.Sprintf("/admin/reset?user_id=%d", ts.ana), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin reset: %d %s", rec.Code, rec.Body.String())
	}
	var reset struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, rec, &reset)
	if reset.Deleted != 1 {
		t.Errorf("want 1 deleted proposal, got %d", reset.Deleted)
	}

	rec = ts.do(t, "POST", fmt.Sprintf("/admin/adjust?user_id=%d", ts.ana), map[string]any{
		"target_user_id": ts.ben,
		"amount":         3,
		"note":           "make-up credits",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin adjust: %d %s", rec.Code, rec.Body.String())
	}
	var adjust struct {
		Balance int `json:"balance"`
	}
	decode(t, rec, &adjust)
	if adjust.Balance != 3 {
		t.Errorf("balance after adjust: want 3, got %d", adjust.Balance)
	}
}

func TestLedgerEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", fmt.Sprintf("/admin/adjust?user_id=%d", ts.ana), map[string]any{
		"target_user_id": ts.ben,
		"amount":         4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: %d", rec.Code)
	}

	rec = ts.do(t, "GET", fmt.Sprintf("/credits/ledger?user_id=%d", ts.ben), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger: %d %s", rec.Code, rec.Body.String())
	}
	var ledger struct {
		Entries        []domain.LedgerEntry `json:"entries"`
		Total          int                  `json:"total"`
		CurrentBalance int                  `json:"current_balance"`
	}
	decode(t, rec, &ledger)
	if ledger.Total != 1 || len(ledger.Entries) != 1 || ledger.CurrentBalance != 4 {
		t.Errorf("ledger: got %d entries, total %d, balance %d", len(ledger.Entries), ledger.Total, ledger.CurrentBalance)
	}
}

func TestMissingActorIs400(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/credits/balance", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no user_id: want 400, got %d", rec.Code)
	}
}
