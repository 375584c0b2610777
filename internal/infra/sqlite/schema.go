package sqlite

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			pin_hash   TEXT NOT NULL,
			is_admin   INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS cards (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL,
			category         TEXT NOT NULL,
			spice_level      INTEGER NOT NULL DEFAULT 1,
			difficulty_level INTEGER NOT NULL DEFAULT 1,
			credit_value     INTEGER NOT NULL DEFAULT 3,
			tags             TEXT NOT NULL DEFAULT '[]',
			is_enabled       INTEGER NOT NULL DEFAULT 1,
			created_at       TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_category ON cards(category, is_enabled)`,

		`CREATE TABLE IF NOT EXISTS periods (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			period_type            TEXT NOT NULL,
			status                 TEXT NOT NULL DEFAULT 'setup',
			start_date             TEXT NOT NULL,
			end_date               TEXT NOT NULL,
			weekly_base_credits    INTEGER NOT NULL DEFAULT 3,
			cards_to_play_per_week INTEGER NOT NULL DEFAULT 3,
			created_at             TEXT NOT NULL
		)`,
		// Exactly one active period system-wide. Enforced here rather than
		// in memory so it survives restarts and multiple processes.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_one_active
			ON periods(status) WHERE status = 'active'`,

		`CREATE TABLE IF NOT EXISTS proposals (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			period_id              INTEGER NOT NULL REFERENCES periods(id),
			week_index             INTEGER NOT NULL DEFAULT 1,
			proposed_by_user_id    INTEGER NOT NULL REFERENCES users(id),
			proposed_to_user_id    INTEGER NOT NULL REFERENCES users(id),
			card_id                INTEGER REFERENCES cards(id),
			challenge_type         TEXT NOT NULL DEFAULT 'simple',
			custom_title           TEXT,
			custom_description     TEXT,
			why_proposing          TEXT,
			boundary               TEXT,
			location               TEXT,
			duration               TEXT,
			boundaries             TEXT,
			reward_type            TEXT,
			reward_details         TEXT,
			credit_cost            INTEGER,
			status                 TEXT NOT NULL DEFAULT 'proposed',
			created_at             TEXT NOT NULL,
			responded_at           TEXT,
			completed_requested_at TEXT,
			completed_confirmed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_to ON proposals(proposed_to_user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_by ON proposals(proposed_by_user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_period ON proposals(period_id)`,

		// Append-only; rows are never updated or deleted. An admin reset may
		// delete proposals, so the reference detaches instead of blocking it.
		`CREATE TABLE IF NOT EXISTS credit_ledger (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL REFERENCES users(id),
			period_id   INTEGER REFERENCES periods(id),
			proposal_id INTEGER REFERENCES proposals(id) ON DELETE SET NULL,
			week_index  INTEGER,
			type        TEXT NOT NULL,
			amount      INTEGER NOT NULL CHECK (amount != 0),
			note        TEXT,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON credit_ledger(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_proposal ON credit_ledger(proposal_id)`,
		// The natural key that makes the weekly grant idempotent: retried
		// calls for the same (user, period, week) insert nothing.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_weekly_once
			ON credit_ledger(user_id, period_id, week_index)
			WHERE type = 'weekly_base_grant'`,
	}
}
