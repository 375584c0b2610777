package api

import (
	"net/http"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// handleBalance returns the user's current credit balance.
// GET /credits/balance?user_id=
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := s.ledger.Balance(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"balance":  balance,
		"currency": s.currencyName,
	})
}

// handleLedger returns the user's ledger history newest-first.
// GET /credits/ledger?user_id=&limit=&offset=
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := queryInt(r, "limit", 50, 1, 200)
	offset := queryInt(r, "offset", 0, 0, 1<<30)

	entries, total, balance, err := s.ledger.History(userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":         entries,
		"total":           total,
		"current_balance": balance,
	})
}
