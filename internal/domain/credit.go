package domain

import "time"

// ─── Credit Ledger Types ────────────────────────────────────────────────────
// The ledger is append-only and is the single source of truth for balances.
// A user's balance is the sum of their entries' amounts; no other field
// anywhere stores a balance.

// LedgerType is the business reason for a ledger entry.
type LedgerType string

const (
	LedgerWeeklyBaseGrant  LedgerType = "weekly_base_grant"
	LedgerProposalCost     LedgerType = "proposal_cost"
	LedgerCompletionReward LedgerType = "completion_reward"
	LedgerAdminAdjustment  LedgerType = "admin_adjustment"
	LedgerInitialGrant     LedgerType = "initial_grant"
)

// Valid reports whether t is a known ledger type.
func (t LedgerType) Valid() bool {
	switch t {
	case LedgerWeeklyBaseGrant, LedgerProposalCost, LedgerCompletionReward,
		LedgerAdminAdjustment, LedgerInitialGrant:
		return true
	}
	return false
}

// LedgerEntry is a single immutable row in the credit ledger. Amount is
// signed and never zero. WeekIndex is set only on weekly base grants; it is
// part of the natural key that makes them idempotent.
type LedgerEntry struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	PeriodID   *int64     `json:"period_id"`
	ProposalID *int64     `json:"proposal_id"`
	WeekIndex  *int       `json:"week_index,omitempty"`
	Type       LedgerType `json:"type"`
	Amount     int        `json:"amount"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
