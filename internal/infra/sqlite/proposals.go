package sqlite

import (
	"database/sql"
	"time"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// ─── Proposal Operations ────────────────────────────────────────────────────
// Every status-changing statement carries a predicate on the expected
// pre-state. Zero rows affected means another actor got there first; the
// service layer turns that into a conflict.

// InsertProposal adds a proposal and returns its id.
func (db *DB) InsertProposal(p *domain.Proposal) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO proposals (
			period_id, week_index, proposed_by_user_id, proposed_to_user_id,
			card_id, challenge_type, custom_title, custom_description,
			why_proposing, boundary, location, duration, boundaries,
			reward_type, reward_details, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.PeriodID, p.WeekIndex, p.ProposedByUserID, p.ProposedToUserID,
		p.CardID, string(p.ChallengeType), nullStr(p.CustomTitle), nullStr(p.CustomDesc),
		nullStr(p.Details.WhyProposing), nullStr(p.Details.Boundary),
		nullStr(p.Details.Location), nullStr(p.Details.Duration), nullStr(p.Details.Boundaries),
		nullStr(string(p.Details.RewardType)), nullStr(p.Details.RewardDetails),
		string(p.Status), fmtTime(p.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetProposal retrieves a proposal by id. Returns (nil, nil) when absent.
func (db *DB) GetProposal(id int64) (*domain.Proposal, error) {
	row := db.db.QueryRow(proposalSelect+` WHERE id = ?`, id)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ProposalFilter narrows a proposal listing.
type ProposalFilter struct {
	UserID      int64 // 0 = any
	AsRecipient bool  // meaningful only with UserID
	PeriodID    int64 // 0 = any
	Status      string
	Limit       int
	Offset      int
}

// ListProposals returns proposals newest-first with the total match count.
func (db *DB) ListProposals(f ProposalFilter) ([]domain.Proposal, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.UserID != 0 {
		if f.AsRecipient {
			where += ` AND proposed_to_user_id = ?`
		} else {
			where += ` AND proposed_by_user_id = ?`
		}
		args = append(args, f.UserID)
	}
	if f.PeriodID != 0 {
		where += ` AND period_id = ?`
		args = append(args, f.PeriodID)
	}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}

	var total int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM proposals`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := db.db.Query(proposalSelect+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// RespondProposal moves a pending proposal to accepted/maybe_later/rejected.
// cost is non-nil only when accepting. Returns false when the proposal was
// no longer pending.
func (db *DB) RespondProposal(id int64, to domain.ProposalStatus, cost *int, at time.Time) (bool, error) {
	res, err := db.db.Exec(`
		UPDATE proposals
		SET status = ?, credit_cost = COALESCE(?, credit_cost), responded_at = ?
		WHERE id = ? AND status IN ('proposed', 'maybe_later')
	`, string(to), cost, fmtTime(at), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkCompleted moves an accepted proposal to completed_pending_confirmation.
func (db *DB) MarkCompleted(id int64, at time.Time) (bool, error) {
	res, err := db.db.Exec(`
		UPDATE proposals
		SET status = 'completed_pending_confirmation', completed_requested_at = ?
		WHERE id = ? AND status = 'accepted'
	`, fmtTime(at), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ConfirmAndBook flips the proposal to completed_confirmed and books the
// balanced ledger pair (-cost recipient, +cost proposer) in one transaction.
// Either all three writes land or none do; no observer can see the status
// without the entries or vice versa.
func (db *DB) ConfirmAndBook(p *domain.Proposal, cost int, at time.Time, costNote, rewardNote string) (bool, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE proposals
		SET status = 'completed_confirmed', completed_confirmed_at = ?
		WHERE id = ? AND status = 'completed_pending_confirmation'
	`, fmtTime(at), p.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := insertEntryTx(tx, domain.LedgerEntry{
		UserID:     p.ProposedToUserID,
		PeriodID:   &p.PeriodID,
		ProposalID: &p.ID,
		Type:       domain.LedgerProposalCost,
		Amount:     -cost,
		Note:       costNote,
		CreatedAt:  at,
	}); err != nil {
		return false, err
	}
	if err := insertEntryTx(tx, domain.LedgerEntry{
		UserID:     p.ProposedByUserID,
		PeriodID:   &p.PeriodID,
		ProposalID: &p.ID,
		Type:       domain.LedgerCompletionReward,
		Amount:     cost,
		Note:       rewardNote,
		CreatedAt:  at,
	}); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// UpdateProposalCustom edits the free-text fields of a pending custom
// proposal. Card proposals and responded proposals are excluded by the
// predicate.
func (db *DB) UpdateProposalCustom(p *domain.Proposal) (bool, error) {
	res, err := db.db.Exec(`
		UPDATE proposals
		SET challenge_type = ?, custom_title = ?, custom_description = ?,
			why_proposing = ?, boundary = ?, location = ?, duration = ?,
			boundaries = ?, reward_type = ?, reward_details = ?
		WHERE id = ? AND card_id IS NULL AND status IN ('proposed', 'maybe_later')
	`, string(p.ChallengeType), nullStr(p.CustomTitle), nullStr(p.CustomDesc),
		nullStr(p.Details.WhyProposing), nullStr(p.Details.Boundary),
		nullStr(p.Details.Location), nullStr(p.Details.Duration), nullStr(p.Details.Boundaries),
		nullStr(string(p.Details.RewardType)), nullStr(p.Details.RewardDetails), p.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteProposal removes a pending proposal.
func (db *DB) DeleteProposal(id int64) (bool, error) {
	res, err := db.db.Exec(`
		DELETE FROM proposals WHERE id = ? AND status IN ('proposed', 'maybe_later')
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAllProposals removes every proposal. Admin reset only; the ledger is
// untouched (append-only).
func (db *DB) DeleteAllProposals() (int64, error) {
	res, err := db.db.Exec(`DELETE FROM proposals`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpireOverdue moves pending proposals whose week closed more than
// graceDays ago to expired. Returns the number of proposals swept.
func (db *DB) ExpireOverdue(now time.Time, graceDays float64) (int64, error) {
	res, err := db.db.Exec(`
		UPDATE proposals SET status = 'expired'
		WHERE status IN ('proposed', 'maybe_later')
		AND julianday(?) > julianday((SELECT start_date FROM periods WHERE periods.id = proposals.period_id))
			+ proposals.week_index * 7 + ?
	`, fmtTime(now), graceDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const proposalSelect = `
	SELECT id, period_id, week_index, proposed_by_user_id, proposed_to_user_id,
		card_id, challenge_type, custom_title, custom_description,
		why_proposing, boundary, location, duration, boundaries,
		reward_type, reward_details, credit_cost, status,
		created_at, responded_at, completed_requested_at, completed_confirmed_at
	FROM proposals`

func scanProposal(row rowScanner) (*domain.Proposal, error) {
	var p domain.Proposal
	var cardID sql.NullInt64
	var ctype, status, createdStr string
	var customTitle, customDesc, why, boundary, location, duration, boundaries, rewardType, rewardDetails sql.NullString
	var cost sql.NullInt64
	var respondedStr, completedReqStr, completedConfStr sql.NullString

	err := row.Scan(&p.ID, &p.PeriodID, &p.WeekIndex, &p.ProposedByUserID, &p.ProposedToUserID,
		&cardID, &ctype, &customTitle, &customDesc,
		&why, &boundary, &location, &duration, &boundaries,
		&rewardType, &rewardDetails, &cost, &status,
		&createdStr, &respondedStr, &completedReqStr, &completedConfStr)
	if err != nil {
		return nil, err
	}

	if cardID.Valid {
		id := cardID.Int64
		p.CardID = &id
	}
	p.ChallengeType = domain.ChallengeType(ctype)
	p.CustomTitle = customTitle.String
	p.CustomDesc = customDesc.String
	p.Details = domain.ChallengeDetails{
		WhyProposing:  why.String,
		Boundary:      boundary.String,
		Location:      location.String,
		Duration:      duration.String,
		Boundaries:    boundaries.String,
		RewardType:    domain.RewardType(rewardType.String),
		RewardDetails: rewardDetails.String,
	}
	if cost.Valid {
		c := int(cost.Int64)
		p.CreditCost = &c
	}
	p.Status = domain.ProposalStatus(status)
	p.CreatedAt = parseTime(createdStr)
	p.RespondedAt = parseTimePtr(respondedStr)
	p.CompletedReqAt = parseTimePtr(completedReqStr)
	p.CompletedConfAt = parseTimePtr(completedConfStr)
	return &p, nil
}

// nullStr maps "" to NULL so optional text stays NULL in storage.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
