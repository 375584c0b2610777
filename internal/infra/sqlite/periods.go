package sqlite

import (
	"database/sql"
	"strings"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// ─── Period Operations ──────────────────────────────────────────────────────

// InsertPeriod adds a period and returns its id.
func (db *DB) InsertPeriod(p domain.Period) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO periods (period_type, status, start_date, end_date, weekly_base_credits, cards_to_play_per_week, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(p.Type), string(p.Status), fmtTime(p.StartDate), fmtTime(p.EndDate),
		p.WeeklyBaseCredits, p.CardsToPlayPerWeek, fmtTime(p.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPeriod retrieves a period by id. Returns (nil, nil) when absent.
func (db *DB) GetPeriod(id int64) (*domain.Period, error) {
	row := db.db.QueryRow(periodSelect+` WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ActivePeriod returns the single active period, or (nil, nil) when none.
func (db *DB) ActivePeriod() (*domain.Period, error) {
	row := db.db.QueryRow(periodSelect + ` WHERE status = 'active'`)
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPeriods returns periods newest-first, optionally filtered by status.
func (db *DB) ListPeriods(status string, limit, offset int) ([]domain.Period, int, error) {
	where := ``
	args := []any{}
	if status != "" {
		where = ` WHERE status = ?`
		args = append(args, status)
	}

	var total int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM periods`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := db.db.Query(periodSelect+where+` ORDER BY start_date DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var periods []domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, 0, err
		}
		periods = append(periods, *p)
	}
	return periods, total, rows.Err()
}

// UpdatePeriodStatus flips a period from one status to another. Returns
// false when the period was not in the expected pre-state. Activating while
// another period is active violates the partial unique index; that surfaces
// as conflict=true.
func (db *DB) UpdatePeriodStatus(id int64, from, to domain.PeriodStatus) (updated, conflict bool, err error) {
	res, err := db.db.Exec(`
		UPDATE periods SET status = ? WHERE id = ? AND status = ?
	`, string(to), id, string(from))
	if err != nil {
		if isUniqueViolation(err) {
			return false, true, nil
		}
		return false, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, false, err
	}
	return n > 0, false, nil
}

const periodSelect = `
	SELECT id, period_type, status, start_date, end_date, weekly_base_credits, cards_to_play_per_week, created_at
	FROM periods`

func scanPeriod(row rowScanner) (*domain.Period, error) {
	var p domain.Period
	var ptype, status, startStr, endStr, createdStr string
	err := row.Scan(&p.ID, &ptype, &status, &startStr, &endStr,
		&p.WeeklyBaseCredits, &p.CardsToPlayPerWeek, &createdStr)
	if err != nil {
		return nil, err
	}
	p.Type = domain.PeriodType(ptype)
	p.Status = domain.PeriodStatus(status)
	p.StartDate = parseTime(startStr)
	p.EndDate = parseTime(endStr)
	p.CreatedAt = parseTime(createdStr)
	return &p, nil
}

// isUniqueViolation reports whether err is a sqlite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
