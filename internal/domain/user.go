package domain

import "time"

// User is one of the two paired partners. Balances are never stored on the
// user; they are always derived from the ledger.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
