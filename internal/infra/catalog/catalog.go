// Package catalog is the card catalog surface the proposal manager consumes.
// It is read-only from the manager's point of view: a lookup that resolves a
// card reference to display fields and a suggested credit cost.
package catalog

import (
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// Catalog resolves card references against the store.
type Catalog struct {
	db *sqlite.DB
}

// New creates a catalog backed by the given store.
func New(db *sqlite.DB) *Catalog {
	return &Catalog{db: db}
}

// Lookup resolves a card by id. A missing or disabled card is a hard
// not-found (proposals must never reference phantom cards); a store failure
// is reported as dependency-unavailable so creation fails loudly instead of
// proceeding.
func (c *Catalog) Lookup(id int64) (*domain.Card, error) {
	card, err := c.db.GetCard(id)
	if err != nil {
		return nil, domain.WrapError(domain.CodeDependencyUnavailable, "card catalog lookup failed", err)
	}
	if card == nil || !card.IsEnabled {
		return nil, domain.NewErrorf(domain.CodeNotFound, "card %d not found or disabled", id)
	}
	return card, nil
}

// Hint resolves display fields for an existing proposal. Unlike Lookup it
// degrades gracefully: when the catalog cannot answer, the proposal is still
// served with only the card id.
func (c *Catalog) Hint(id int64) *domain.Card {
	card, err := c.db.GetCard(id)
	if err != nil {
		return nil
	}
	return card
}

// List returns cards filtered by category, optionally only enabled ones.
func (c *Catalog) List(category string, enabledOnly bool, limit, offset int) ([]domain.Card, int, error) {
	return c.db.ListCards(category, enabledOnly, limit, offset)
}
