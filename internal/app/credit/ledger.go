// Package credit implements the credit ledger: append-only entries, derived
// balances, and the idempotent weekly base grant.
package credit

import (
	"time"

	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/observability"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// Service is the ledger service. It never updates or deletes entries, and it
// never asserts a balance is positive: this is a social credit system, not a
// spending cap.
type Service struct {
	db *sqlite.DB
}

// NewService creates a ledger service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// GrantParams describes a ledger append.
type GrantParams struct {
	UserID     int64
	Type       domain.LedgerType
	Amount     int
	PeriodID   *int64
	ProposalID *int64
	Note       string
}

// Grant appends an entry and returns it along with the new balance.
func (s *Service) Grant(p GrantParams) (*domain.LedgerEntry, int, error) {
	if p.Amount == 0 {
		return nil, 0, domain.NewError(domain.CodeValidation, "ledger amount cannot be zero")
	}
	if !p.Type.Valid() {
		return nil, 0, domain.NewErrorf(domain.CodeValidation, "unknown ledger type %q", p.Type)
	}
	user, err := s.db.GetUser(p.UserID)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, domain.NewErrorf(domain.CodeNotFound, "user %d not found", p.UserID)
	}

	entry := domain.LedgerEntry{
		UserID:     p.UserID,
		PeriodID:   p.PeriodID,
		ProposalID: p.ProposalID,
		Type:       p.Type,
		Amount:     p.Amount,
		Note:       p.Note,
		CreatedAt:  time.Now().UTC(),
	}
	id, err := s.db.InsertLedgerEntry(entry)
	if err != nil {
		return nil, 0, err
	}
	entry.ID = id
	observability.ObserveEntry(string(p.Type), p.Amount)

	balance, err := s.db.Balance(p.UserID)
	if err != nil {
		return nil, 0, err
	}
	return &entry, balance, nil
}

// GrantWeekly books the weekly base grant for (user, period, week). Retried
// calls are absorbed by the natural key; the bool reports whether this call
// actually booked the entry.
func (s *Service) GrantWeekly(userID, periodID int64, weekIndex, amount int) (bool, error) {
	if amount <= 0 {
		return false, domain.NewError(domain.CodeValidation, "weekly grant amount must be positive")
	}
	if weekIndex < 1 {
		return false, domain.NewError(domain.CodeValidation, "week index must be >= 1")
	}
	granted, err := s.db.InsertWeeklyGrant(domain.LedgerEntry{
		UserID:    userID,
		PeriodID:  &periodID,
		WeekIndex: &weekIndex,
		Type:      domain.LedgerWeeklyBaseGrant,
		Amount:    amount,
		Note:      "weekly base credits",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if granted {
		observability.ObserveEntry(string(domain.LedgerWeeklyBaseGrant), amount)
	}
	return granted, nil
}

// InitialGrant books the one-time starting credits for a new user.
func (s *Service) InitialGrant(userID int64, amount int) (*domain.LedgerEntry, error) {
	entry, _, err := s.Grant(GrantParams{
		UserID: userID,
		Type:   domain.LedgerInitialGrant,
		Amount: amount,
		Note:   "initial credits",
	})
	return entry, err
}

// Balance returns the user's current balance (sum of all entries).
func (s *Service) Balance(userID int64) (int, error) {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, domain.NewErrorf(domain.CodeNotFound, "user %d not found", userID)
	}
	return s.db.Balance(userID)
}

// History returns entries newest-first, the total entry count, and the
// current balance.
func (s *Service) History(userID int64, limit, offset int) ([]domain.LedgerEntry, int, int, error) {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return nil, 0, 0, err
	}
	if user == nil {
		return nil, 0, 0, domain.NewErrorf(domain.CodeNotFound, "user %d not found", userID)
	}
	entries, total, err := s.db.LedgerHistory(userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	balance, err := s.db.Balance(userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return entries, total, balance, nil
}
