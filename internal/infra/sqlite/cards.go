package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// ─── Card Operations ────────────────────────────────────────────────────────
// Tags are stored as a JSON array in a TEXT column.

// InsertCard adds a catalog card and returns its id.
func (db *DB) InsertCard(c domain.Card) (int64, error) {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return 0, err
	}
	enabledInt := 0
	if c.IsEnabled {
		enabledInt = 1
	}
	res, err := db.db.Exec(`
		INSERT INTO cards (title, description, category, spice_level, difficulty_level, credit_value, tags, is_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Title, c.Description, string(c.Category), c.SpiceLevel, c.DifficultyLevel,
		c.CreditValue, string(tagsJSON), enabledInt, fmtTime(c.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCard retrieves a card by id. Returns (nil, nil) when absent.
func (db *DB) GetCard(id int64) (*domain.Card, error) {
	row := db.db.QueryRow(`
		SELECT id, title, description, category, spice_level, difficulty_level, credit_value, tags, is_enabled, created_at
		FROM cards WHERE id = ?
	`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCards returns cards filtered by category and enabled flag.
// An empty category matches everything.
func (db *DB) ListCards(category string, enabledOnly bool, limit, offset int) ([]domain.Card, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	if category != "" {
		where += ` AND category = ?`
		args = append(args, category)
	}
	if enabledOnly {
		where += ` AND is_enabled = 1`
	}

	var total int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM cards `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := db.db.Query(`
		SELECT id, title, description, category, spice_level, difficulty_level, credit_value, tags, is_enabled, created_at
		FROM cards `+where+` ORDER BY id LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, *c)
	}
	return cards, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var c domain.Card
	var category, tagsJSON, createdStr string
	var enabledInt int
	err := row.Scan(&c.ID, &c.Title, &c.Description, &category, &c.SpiceLevel,
		&c.DifficultyLevel, &c.CreditValue, &tagsJSON, &enabledInt, &createdStr)
	if err != nil {
		return nil, err
	}
	c.Category = domain.CardCategory(category)
	c.IsEnabled = enabledInt == 1
	c.CreatedAt = parseTime(createdStr)
	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		c.Tags = nil
	}
	return &c, nil
}
