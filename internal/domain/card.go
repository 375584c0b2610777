package domain

import "time"

// ─── Card Catalog Types ─────────────────────────────────────────────────────
// The catalog is an external collaborator from the proposal manager's point
// of view: a read-only lookup that supplies display fields and a suggested
// credit cost. Tag/intensity metadata is for UI grouping only and never
// feeds the ledger.

// CardCategory groups cards for the UI.
type CardCategory string

const (
	CategoryCalientes CardCategory = "calientes"
	CategoryRomance   CardCategory = "romance"
	CategoryRisas     CardCategory = "risas"
	CategoryOtras     CardCategory = "otras"
)

// Valid reports whether c is a known category.
func (c CardCategory) Valid() bool {
	switch c {
	case CategoryCalientes, CategoryRomance, CategoryRisas, CategoryOtras:
		return true
	}
	return false
}

// Card is a catalog entry a proposal may reference. CreditValue is only a
// suggestion shown to the recipient; the accepted cost is what counts.
type Card struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Category        CardCategory `json:"category"`
	SpiceLevel      int          `json:"spice_level"`
	DifficultyLevel int          `json:"difficulty_level"`
	CreditValue     int          `json:"credit_value"`
	Tags            []string     `json:"tags"`
	IsEnabled       bool         `json:"is_enabled"`
	CreatedAt       time.Time    `json:"created_at"`
}
