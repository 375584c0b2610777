package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/domain"
)

func (s *Server) requireAdmin(r *http.Request) (int64, error) {
	actorID, err := s.actingUser(r)
	if err != nil {
		return 0, err
	}
	user, err := s.db.GetUser(actorID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, domain.NewErrorf(domain.CodeNotFound, "user %d not found", actorID)
	}
	if !user.IsAdmin {
		return 0, domain.NewError(domain.CodeUnauthorizedActor, "admin privileges required")
	}
	return actorID, nil
}

// handleAdminReset deletes all proposals. Ledger entries stay: the ledger is
// append-only even for admins.
// POST /admin/reset?user_id={admin}
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}
	deleted, err := s.db.DeleteAllProposals()
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[api] admin %d reset proposals (%d deleted)", actorID, deleted)
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": deleted,
		"message": "proposals reset",
	})
}

// handleAdminAdjust appends a manual ledger correction for a user.
// POST /admin/adjust?user_id={admin} {target_user_id, amount, note}
func (s *Server) handleAdminAdjust(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		TargetUserID int64  `json:"target_user_id"`
		Amount       int    `json:"amount"`
		Note         string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid JSON body"))
		return
	}
	note := req.Note
	if note == "" {
		note = "manual adjustment"
	}

	entry, balance, err := s.ledger.Grant(credit.GrantParams{
		UserID: req.TargetUserID,
		Type:   domain.LedgerAdminAdjustment,
		Amount: req.Amount,
		Note:   note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[api] admin %d adjusted user %d by %+d", actorID, req.TargetUserID, req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":   entry,
		"balance": balance,
	})
}
