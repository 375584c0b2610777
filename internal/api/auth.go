package api

import (
	"encoding/json"
	"net/http"

	"github.com/eojedapilchik/couples-app/internal/domain"
)

// handleListUsers returns all users, for the login selection screen.
// GET /auth/users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.Users()
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// handleLogin verifies a PIN and returns the user plus a session token.
// POST /auth/login {user_id, pin}
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64  `json:"user_id"`
		PIN    string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid JSON body"))
		return
	}

	user, token, err := s.auth.Login(req.UserID, req.PIN)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeUnauthorizedActor {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": "UNAUTHORIZED_ACTOR", "message": "incorrect PIN"},
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"message": "login ok",
		"token":   token,
	})
}
