package api

import (
	"net/http"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// handleListCards returns catalog cards, filtered by category and enabled
// flag. GET /cards?category=&enabled_only=&limit=&offset=
func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !domain.CardCategory(category).Valid() {
		writeError(w, domain.NewErrorf(domain.CodeValidation, "unknown category %q", category))
		return
	}
	enabledOnly := r.URL.Query().Get("enabled_only") != "false"
	limit := queryInt(r, "limit", 50, 1, 200)
	offset := queryInt(r, "offset", 0, 0, 1<<30)

	cards, total, err := s.catalog.List(category, enabledOnly, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cards": cards,
		"total": total,
	})
}

// handleGetCard returns a single catalog card.
// GET /cards/{id}
func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	card, err := s.catalog.Lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
