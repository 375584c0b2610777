package sqlite

import (
	"database/sql"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// ─── Credit Ledger Operations ───────────────────────────────────────────────
// Insert-only. There is deliberately no UPDATE or DELETE here.

// InsertLedgerEntry appends a ledger entry and returns its id.
func (db *DB) InsertLedgerEntry(e domain.LedgerEntry) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO credit_ledger (user_id, period_id, proposal_id, week_index, type, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.PeriodID, e.ProposalID, e.WeekIndex, string(e.Type), e.Amount,
		nullStr(e.Note), fmtTime(e.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertEntryTx(tx *sql.Tx, e domain.LedgerEntry) error {
	_, err := tx.Exec(`
		INSERT INTO credit_ledger (user_id, period_id, proposal_id, week_index, type, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.PeriodID, e.ProposalID, e.WeekIndex, string(e.Type), e.Amount,
		nullStr(e.Note), fmtTime(e.CreatedAt))
	return err
}

// InsertWeeklyGrant appends a weekly base grant. The partial unique index on
// (user_id, period_id, week_index) makes this a no-op on retry; the return
// value reports whether a row was actually inserted.
func (db *DB) InsertWeeklyGrant(e domain.LedgerEntry) (bool, error) {
	res, err := db.db.Exec(`
		INSERT OR IGNORE INTO credit_ledger (user_id, period_id, proposal_id, week_index, type, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.PeriodID, e.ProposalID, e.WeekIndex, string(e.Type), e.Amount,
		nullStr(e.Note), fmtTime(e.CreatedAt))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Balance sums all ledger amounts for a user.
func (db *DB) Balance(userID int64) (int, error) {
	var balance int
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE user_id = ?
	`, userID).Scan(&balance)
	return balance, err
}

// LedgerHistory returns a user's entries newest-first plus the total count.
func (db *DB) LedgerHistory(userID int64, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM credit_ledger WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.db.Query(`
		SELECT id, user_id, period_id, proposal_id, week_index, type, amount, note, created_at
		FROM credit_ledger WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var periodID, proposalID sql.NullInt64
		var weekIndex sql.NullInt64
		var etype, createdStr string
		var note sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &periodID, &proposalID, &weekIndex, &etype, &e.Amount, &note, &createdStr); err != nil {
			return nil, 0, err
		}
		if periodID.Valid {
			v := periodID.Int64
			e.PeriodID = &v
		}
		if proposalID.Valid {
			v := proposalID.Int64
			e.ProposalID = &v
		}
		if weekIndex.Valid {
			v := int(weekIndex.Int64)
			e.WeekIndex = &v
		}
		e.Type = domain.LedgerType(etype)
		e.Note = note.String
		e.CreatedAt = parseTime(createdStr)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// SumForProposal sums the amounts booked against a proposal across both
// users. Zero for every confirmed proposal is the conservation law.
func (db *DB) SumForProposal(proposalID int64) (int, error) {
	var sum int
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE proposal_id = ?
	`, proposalID).Scan(&sum)
	return sum, err
}

// EntriesForProposal returns all entries referencing a proposal.
func (db *DB) EntriesForProposal(proposalID int64) ([]domain.LedgerEntry, error) {
	rows, err := db.db.Query(`
		SELECT id, user_id, type, amount, created_at FROM credit_ledger
		WHERE proposal_id = ? ORDER BY id
	`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var etype, createdStr string
		if err := rows.Scan(&e.ID, &e.UserID, &etype, &e.Amount, &createdStr); err != nil {
			return nil, err
		}
		e.Type = domain.LedgerType(etype)
		e.CreatedAt = parseTime(createdStr)
		id := proposalID
		e.ProposalID = &id
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
