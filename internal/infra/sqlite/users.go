package sqlite

import (
	"database/sql"
	"time"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// ─── User Operations ────────────────────────────────────────────────────────

// InsertUser adds a user and returns its id.
func (db *DB) InsertUser(name, pinHash string, isAdmin bool, createdAt time.Time) (int64, error) {
	adminInt := 0
	if isAdmin {
		adminInt = 1
	}
	res, err := db.db.Exec(`
		INSERT INTO users (name, pin_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?)
	`, name, pinHash, adminInt, fmtTime(createdAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUser retrieves a user by id. Returns (nil, nil) when absent.
func (db *DB) GetUser(id int64) (*domain.User, error) {
	var u domain.User
	var adminInt int
	var createdStr string
	err := db.db.QueryRow(`
		SELECT id, name, is_admin, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &adminInt, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.IsAdmin = adminInt == 1
	u.CreatedAt = parseTime(createdStr)
	return &u, nil
}

// GetUserPinHash returns the stored PIN hash for a user.
func (db *DB) GetUserPinHash(id int64) (hash string, ok bool, err error) {
	err = db.db.QueryRow(`SELECT pin_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// ListUsers returns all users ordered by id.
func (db *DB) ListUsers() ([]domain.User, error) {
	rows, err := db.db.Query(`SELECT id, name, is_admin, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var adminInt int
		var createdStr string
		if err := rows.Scan(&u.ID, &u.Name, &adminInt, &createdStr); err != nil {
			return nil, err
		}
		u.IsAdmin = adminInt == 1
		u.CreatedAt = parseTime(createdStr)
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserIDs returns all user ids. Used by the weekly grant tick.
func (db *DB) UserIDs() ([]int64, error) {
	rows, err := db.db.Query(`SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
