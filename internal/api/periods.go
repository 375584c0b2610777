package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/eojedapilchik/couples-app/internal/app/period"
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

type periodResponse struct {
	domain.Period
	CurrentWeek int `json:"current_week"`
	TotalWeeks  int `json:"total_weeks"`
}

func enrichPeriod(p *domain.Period) periodResponse {
	return periodResponse{
		Period:      *p,
		CurrentWeek: p.CurrentWeek(time.Now().UTC()),
		TotalWeeks:  p.TotalWeeks(),
	}
}

// handleCreatePeriod creates a new game period in setup.
// POST /periods {type, start_date, weekly_base_credits, cards_to_play_per_week}
func (s *Server) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type               string    `json:"type"`
		StartDate          time.Time `json:"start_date"`
		WeeklyBaseCredits  int       `json:"weekly_base_credits"`
		CardsToPlayPerWeek int       `json:"cards_to_play_per_week"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid JSON body"))
		return
	}
	if req.StartDate.IsZero() {
		req.StartDate = time.Now().UTC()
	}

	p, err := s.periods.Create(period.CreateParams{
		Type:               domain.PeriodType(req.Type),
		StartDate:          req.StartDate,
		WeeklyBaseCredits:  req.WeeklyBaseCredits,
		CardsToPlayPerWeek: req.CardsToPlayPerWeek,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrichPeriod(p))
}

// handleListPeriods returns periods newest-first.
// GET /periods?status=&limit=&offset=
func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, total, err := s.periods.List(
		r.URL.Query().Get("status"),
		queryInt(r, "limit", 20, 1, 100),
		queryInt(r, "offset", 0, 0, 1<<30),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(periods))
	for i := range periods {
		out = append(out, enrichPeriod(&periods[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"periods": out,
		"total":   total,
	})
}

// handleActivePeriod returns the active period, or null when none exists.
// GET /periods/active
func (s *Server) handleActivePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.periods.Active()
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, enrichPeriod(p))
}

// handleGetPeriod returns a single period.
// GET /periods/{id}
func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.periods.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichPeriod(p))
}

// handleActivatePeriod starts the clock on a setup period.
// PATCH /periods/{id}/activate
func (s *Server) handleActivatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.periods.Activate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichPeriod(p))
}

// handleCompletePeriod marks an active period as done.
// PATCH /periods/{id}/complete
func (s *Server) handleCompletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.periods.Complete(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichPeriod(p))
}

// handlePeriodProposals returns all proposals scoped to a period.
// GET /periods/{id}/proposals?status=&limit=&offset=
func (s *Server) handlePeriodProposals(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.periods.Get(id); err != nil {
		writeError(w, err)
		return
	}
	props, total, err := s.proposals.List(sqlite.ProposalFilter{
		PeriodID: id,
		Status:   r.URL.Query().Get("status"),
		Limit:    queryInt(r, "limit", 50, 1, 200),
		Offset:   queryInt(r, "offset", 0, 0, 1<<30),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"proposals": s.enrichProposals(props),
		"total":     total,
	})
}

// handleGrantWeekly books this week's base credits for both partners.
// Safe to call repeatedly: the natural key absorbs retries.
// POST /periods/{id}/grant-weekly-credits
func (s *Server) handleGrantWeekly(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	userIDs, err := s.db.UserIDs()
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := s.periods.GrantWeekly(id, userIDs, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"granted": count,
		"message": "weekly credits granted",
	})
}
