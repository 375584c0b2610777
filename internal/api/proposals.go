package api

import (
	"encoding/json"
	"net/http"

	"github.com/eojedapilchik/couples-app/internal/app/proposal"
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// ─── Wire Types ─────────────────────────────────────────────────────────────

type createProposalRequest struct {
	ProposedToUserID int64  `json:"proposed_to_user_id"`
	PeriodID         int64  `json:"period_id"`
	WeekIndex        int    `json:"week_index"`
	CardID           *int64 `json:"card_id"`
	ChallengeType    string `json:"challenge_type"`
	CustomTitle      string `json:"custom_title"`
	CustomDesc       string `json:"custom_description"`
	WhyProposing     string `json:"why_proposing"`
	Boundary         string `json:"boundary"`
	Location         string `json:"location"`
	Duration         string `json:"duration"`
	Boundaries       string `json:"boundaries"`
	RewardType       string `json:"reward_type"`
	RewardDetails    string `json:"reward_details"`
}

type proposalResponse struct {
	domain.Proposal
	Card         *domain.Card `json:"card,omitempty"`
	ProposedBy   *domain.User `json:"proposed_by,omitempty"`
	ProposedTo   *domain.User `json:"proposed_to,omitempty"`
	DisplayTitle string       `json:"display_title"`
	DisplayDesc  string       `json:"display_description"`
}

// enrichProposal attaches card and user info plus the computed display
// fields. The catalog is consulted as a hint only: if it cannot answer, the
// proposal is still served with just the card id.
func (s *Server) enrichProposal(p *domain.Proposal) proposalResponse {
	card := s.proposals.CardHint(p)
	by, _ := s.db.GetUser(p.ProposedByUserID)
	to, _ := s.db.GetUser(p.ProposedToUserID)
	return proposalResponse{
		Proposal:     *p,
		Card:         card,
		ProposedBy:   by,
		ProposedTo:   to,
		DisplayTitle: p.DisplayTitle(card),
		DisplayDesc:  p.DisplayDescription(card),
	}
}

func (s *Server) enrichProposals(ps []domain.Proposal) []proposalResponse {
	out := make([]proposalResponse, 0, len(ps))
	for i := range ps {
		out = append(out, s.enrichProposal(&ps[i]))
	}
	return out
}

// ─── Handlers ───────────────────────────────────────────────────────────────

// handleCreateProposal creates a proposal from a card or custom challenge.
// Proposing is free. POST /proposals?user_id={proposer}
func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid JSON body"))
		return
	}
	if req.WeekIndex == 0 {
		req.WeekIndex = 1
	}

	prop, err := s.proposals.Create(proposal.CreateParams{
		PeriodID:         req.PeriodID,
		WeekIndex:        req.WeekIndex,
		ProposedByUserID: actorID,
		ProposedToUserID: req.ProposedToUserID,
		CardID:           req.CardID,
		ChallengeType:    domain.ChallengeType(req.ChallengeType),
		CustomTitle:      req.CustomTitle,
		CustomDesc:       req.CustomDesc,
		Details: domain.ChallengeDetails{
			WhyProposing:  req.WhyProposing,
			Boundary:      req.Boundary,
			Location:      req.Location,
			Duration:      req.Duration,
			Boundaries:    req.Boundaries,
			RewardType:    domain.RewardType(req.RewardType),
			RewardDetails: req.RewardDetails,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.enrichProposal(prop))
}

// handleListProposals returns proposals for a user.
// GET /proposals?user_id=&as_recipient=&status=&limit=&offset=
func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	asRecipient := r.URL.Query().Get("as_recipient") != "false"

	props, total, err := s.proposals.List(sqlite.ProposalFilter{
		UserID:      userID,
		AsRecipient: asRecipient,
		Status:      r.URL.Query().Get("status"),
		Limit:       queryInt(r, "limit", 50, 1, 100),
		Offset:      queryInt(r, "offset", 0, 0, 1<<30),
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

// handleGetProposal returns a single proposal.
// GET /proposals/{id}
func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	prop, err := s.proposals.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.enrichProposal(prop))
}

// handleRespondProposal records the recipient's decision. Accepting requires
// a credit cost. PATCH /proposals/{id}/respond?user_id={recipient}
func (s *Server) handleRespondProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actorID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Response   string `json:"response"`
		CreditCost *int   `json:"credit_cost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid JSON body"))
		return
	}

	prop, err := s.proposals.Respond(id, actorID, domain.ProposalStatus(req.Response), req.CreditCost)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.enrichProposal(prop))
}

// handleCompleteProposal lets the recipient claim completion.
// PATCH /proposals/{id}/complete?user_id={recipient}
func (s *Server) handleCompleteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actorID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	prop, err := s.proposals.MarkComplete(id, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.enrichProposal(prop))
}

// handleConfirmProposal lets the proposer confirm completion, booking the
// credit movement. PATCH /proposals/{id}/confirm?user_id={proposer}
func (s *Server) handleConfirmProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actorID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	prop, err := s.proposals.Confirm(id, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.enrichProposal(prop))
}

// handleUpdateProposal edits a pending custom proposal.
// PATCH /proposals/{id}?user_id={proposer}
func (s *Server) handleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actorID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		ChallengeType *string `json:"challenge_type"`
		CustomTitle   *string `json:"custom_title"`
		CustomDesc    *string `json:"custom_description"`
		WhyProposing  *string `json:"why_proposing"`
		Boundary      *string `json:"boundary"`
		Location      *string `json:"location"`
		Duration      *string `json:"duration"`
		Boundaries    *string `json:"boundaries"`
		RewardType    *string `json:"reward_type"`
		RewardDetails *string `json:"reward_details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid JSON body"))
		return
	}

	params := proposal.UpdateParams{
		CustomTitle: req.CustomTitle,
		CustomDesc:  req.CustomDesc,
	}
	if req.ChallengeType != nil {
		ct := domain.ChallengeType(*req.ChallengeType)
		params.ChallengeType = &ct
	}
	if req.WhyProposing != nil || req.Boundary != nil || req.Location != nil ||
		req.Duration != nil || req.Boundaries != nil || req.RewardType != nil || req.RewardDetails != nil {
		// Partial detail edits merge over the stored payload.
		prop, err := s.proposals.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		details := prop.Details
		if req.WhyProposing != nil {
			details.WhyProposing = *req.WhyProposing
		}
		if req.Boundary != nil {
			details.Boundary = *req.Boundary
		}
		if req.Location != nil {
			details.Location = *req.Location
		}
		if req.Duration != nil {
			details.Duration = *req.Duration
		}
		if req.Boundaries != nil {
			details.Boundaries = *req.Boundaries
		}
		if req.RewardType != nil {
			details.RewardType = domain.RewardType(*req.RewardType)
		}
		if req.RewardDetails != nil {
			details.RewardDetails = *req.RewardDetails
		}
		params.Details = &details
	}

	prop, err := s.proposals.Update(id, actorID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.enrichProposal(prop))
}

// handleDeleteProposal removes a pending proposal.
// DELETE /proposals/{id}?user_id={proposer}
func (s *Server) handleDeleteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actorID, err := s.actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.proposals.Delete(id, actorID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "proposal deleted"})
}
