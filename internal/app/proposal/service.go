// Package proposal implements the bilateral-consent state machine: one
// partner proposes a challenge, the other decides and prices it, and credits
// move only after both sides agree it happened.
//
// Transition table (actor in parentheses):
//
//	proposed/maybe_later → accepted | maybe_later | rejected  (recipient)
//	accepted             → completed_pending_confirmation     (recipient)
//	completed_pending    → completed_confirmed                (proposer, books the ledger pair)
//	proposed/maybe_later → deleted | edited                   (proposer, custom edits only)
//	pending              → expired                            (sweep)
package proposal

import (
	"log"
	"time"

	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/catalog"
	"github.com/eojedapilchik/couples-app/internal/infra/observability"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// Config carries the negotiable-cost bounds and expiry policy.
type Config struct {
	MinCreditCost   int     // inclusive, default 1
	MaxCreditCost   int     // inclusive, default 7
	ExpiryGraceDays float64 // days past week end before a pending proposal expires
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{MinCreditCost: 1, MaxCreditCost: 7, ExpiryGraceDays: 2}
}

// Service is the proposal manager.
type Service struct {
	db      *sqlite.DB
	catalog *catalog.Catalog
	cfg     Config
}

// NewService creates a proposal service.
func NewService(db *sqlite.DB, cat *catalog.Catalog, cfg Config) *Service {
	return &Service{db: db, catalog: cat, cfg: cfg}
}

// ─── Create ─────────────────────────────────────────────────────────────────

// CreateParams describes a new proposal. Exactly one of CardID and
// CustomTitle must be set.
type CreateParams struct {
	PeriodID         int64
	WeekIndex        int
	ProposedByUserID int64
	ProposedToUserID int64
	CardID           *int64
	ChallengeType    domain.ChallengeType
	CustomTitle      string
	CustomDesc       string
	Details          domain.ChallengeDetails
}

// Create validates and stores a new proposal. Proposing is free; no ledger
// entry is booked here.
func (s *Service) Create(p CreateParams) (*domain.Proposal, error) {
	if p.ProposedByUserID == p.ProposedToUserID {
		return nil, domain.NewError(domain.CodeValidation, "cannot propose a challenge to yourself")
	}
	if p.WeekIndex < 1 {
		return nil, domain.NewError(domain.CodeValidation, "week index must be >= 1")
	}
	if p.CardID != nil && p.CustomTitle != "" {
		return nil, domain.NewError(domain.CodeValidation, "provide card_id or custom_title, not both")
	}
	if p.CardID == nil && p.CustomTitle == "" {
		return nil, domain.NewError(domain.CodeValidation, "provide card_id or custom_title")
	}
	if p.ChallengeType == "" {
		p.ChallengeType = domain.ChallengeSimple
	}
	if !p.ChallengeType.Valid() {
		return nil, domain.NewErrorf(domain.CodeValidation, "unknown challenge type %q", p.ChallengeType)
	}
	if err := p.Details.Validate(p.ChallengeType); err != nil {
		return nil, err
	}

	for _, userID := range []int64{p.ProposedByUserID, p.ProposedToUserID} {
		user, err := s.db.GetUser(userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, domain.NewErrorf(domain.CodeNotFound, "user %d not found", userID)
		}
	}
	period, err := s.db.GetPeriod(p.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.NewErrorf(domain.CodeNotFound, "period %d not found", p.PeriodID)
	}

	// A card reference must resolve to an enabled card at creation time.
	// Phantom cards are a hard failure, not a degraded proposal.
	if p.CardID != nil {
		if _, err := s.catalog.Lookup(*p.CardID); err != nil {
			return nil, err
		}
	}

	prop := &domain.Proposal{
		PeriodID:         p.PeriodID,
		WeekIndex:        p.WeekIndex,
		ProposedByUserID: p.ProposedByUserID,
		ProposedToUserID: p.ProposedToUserID,
		CardID:           p.CardID,
		ChallengeType:    p.ChallengeType,
		CustomTitle:      p.CustomTitle,
		CustomDesc:       p.CustomDesc,
		Details:          p.Details,
		Status:           domain.StatusProposed,
		CreatedAt:        time.Now().UTC(),
	}
	id, err := s.db.InsertProposal(prop)
	if err != nil {
		return nil, err
	}
	prop.ID = id
	observability.ProposalsCreated.WithLabelValues(string(p.ChallengeType)).Inc()
	return prop, nil
}

// ─── Respond ────────────────────────────────────────────────────────────────

// Respond records the recipient's decision on a pending proposal. Accepting
// fixes the credit cost (bounds-checked); no ledger entry is booked until
// the proposer confirms completion.
func (s *Service) Respond(proposalID, actorID int64, response domain.ProposalStatus, cost *int) (prop *domain.Proposal, err error) {
	defer func() { observability.ObserveTransition("respond", err) }()

	prop, err = s.get(proposalID)
	if err != nil {
		return nil, err
	}
	if actorID != prop.ProposedToUserID {
		return nil, domain.NewError(domain.CodeUnauthorizedActor, "only the recipient can respond")
	}
	switch response {
	case domain.StatusAccepted, domain.StatusMaybeLater, domain.StatusRejected:
	default:
		return nil, domain.NewErrorf(domain.CodeValidation, "response must be accepted, maybe_later or rejected, got %q", response)
	}
	if !prop.Status.PendingDecision() {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d already responded (status %s)", proposalID, prop.Status)
	}

	if response == domain.StatusAccepted {
		if cost == nil {
			return nil, domain.NewError(domain.CodeValidation, "credit_cost is required when accepting")
		}
		if *cost < s.cfg.MinCreditCost || *cost > s.cfg.MaxCreditCost {
			return nil, domain.NewErrorf(domain.CodeValidation, "credit_cost must be between %d and %d", s.cfg.MinCreditCost, s.cfg.MaxCreditCost)
		}
	} else {
		cost = nil
	}

	now := time.Now().UTC()
	updated, err := s.db.RespondProposal(proposalID, response, cost, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost the race against a concurrent respond or delete.
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d is no longer pending", proposalID)
	}

	prop.Status = response
	prop.RespondedAt = &now
	if response == domain.StatusAccepted {
		prop.CreditCost = cost
	}
	return prop, nil
}

// ─── Complete / Confirm ─────────────────────────────────────────────────────

// MarkComplete is the recipient's claim that the challenge happened. The
// proposal waits for the proposer's confirmation before any credits move.
func (s *Service) MarkComplete(proposalID, actorID int64) (prop *domain.Proposal, err error) {
	defer func() { observability.ObserveTransition("complete", err) }()

	prop, err = s.get(proposalID)
	if err != nil {
		return nil, err
	}
	if actorID != prop.ProposedToUserID {
		return nil, domain.NewError(domain.CodeUnauthorizedActor, "only the recipient can mark as completed")
	}
	if prop.Status != domain.StatusAccepted {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d is not accepted (status %s)", proposalID, prop.Status)
	}

	now := time.Now().UTC()
	updated, err := s.db.MarkCompleted(proposalID, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d is no longer accepted", proposalID)
	}

	prop.Status = domain.StatusCompletedPending
	prop.CompletedReqAt = &now
	return prop, nil
}

// Confirm is the proposer's agreement that the challenge happened. It books
// the balanced ledger pair — cost debited from the recipient, reward
// credited to the proposer — atomically with the status flip.
func (s *Service) Confirm(proposalID, actorID int64) (prop *domain.Proposal, err error) {
	defer func() { observability.ObserveTransition("confirm", err) }()

	prop, err = s.get(proposalID)
	if err != nil {
		return nil, err
	}
	if actorID != prop.ProposedByUserID {
		return nil, domain.NewError(domain.CodeUnauthorizedActor, "only the proposer can confirm")
	}
	if prop.Status != domain.StatusCompletedPending {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d is not pending confirmation (status %s)", proposalID, prop.Status)
	}
	if prop.CreditCost == nil {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d has no credit cost set", proposalID)
	}

	now := time.Now().UTC()
	cost := *prop.CreditCost
	updated, err := s.db.ConfirmAndBook(prop, cost, now, "challenge cost", "completion reward")
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d is no longer pending confirmation", proposalID)
	}

	observability.ObserveEntry(string(domain.LedgerProposalCost), -cost)
	observability.ObserveEntry(string(domain.LedgerCompletionReward), cost)

	prop.Status = domain.StatusCompletedConfirmed
	prop.CompletedConfAt = &now
	return prop, nil
}

// ─── Update / Delete ────────────────────────────────────────────────────────

// UpdateParams carries the editable fields of a custom proposal. Nil fields
// are left unchanged.
type UpdateParams struct {
	ChallengeType *domain.ChallengeType
	CustomTitle   *string
	CustomDesc    *string
	Details       *domain.ChallengeDetails
}

// Update edits a custom (non-card) proposal. Permitted to the proposer only
// and only while the recipient has not responded.
func (s *Service) Update(proposalID, actorID int64, u UpdateParams) (*domain.Proposal, error) {
	prop, err := s.get(proposalID)
	if err != nil {
		return nil, err
	}
	if actorID != prop.ProposedByUserID {
		return nil, domain.NewError(domain.CodeUnauthorizedActor, "only the proposer can edit")
	}
	if prop.FromCard() {
		return nil, domain.NewError(domain.CodeValidation, "only custom challenges can be edited")
	}
	if !prop.Status.PendingDecision() {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d already responded (status %s)", proposalID, prop.Status)
	}

	if u.ChallengeType != nil {
		prop.ChallengeType = *u.ChallengeType
	}
	if u.CustomTitle != nil {
		prop.CustomTitle = *u.CustomTitle
	}
	if u.CustomDesc != nil {
		prop.CustomDesc = *u.CustomDesc
	}
	if u.Details != nil {
		prop.Details = *u.Details
	}

	if prop.CustomTitle == "" {
		return nil, domain.NewError(domain.CodeValidation, "custom title is required")
	}
	if !prop.ChallengeType.Valid() {
		return nil, domain.NewErrorf(domain.CodeValidation, "unknown challenge type %q", prop.ChallengeType)
	}
	if err := prop.Details.Validate(prop.ChallengeType); err != nil {
		return nil, err
	}

	updated, err := s.db.UpdateProposalCustom(prop)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.NewErrorf(domain.CodeConflict, "proposal %d is no longer editable", proposalID)
	}
	return prop, nil
}

// Delete removes a pending proposal. Proposer only, pre-response only.
func (s *Service) Delete(proposalID, actorID int64) error {
	prop, err := s.get(proposalID)
	if err != nil {
		return err
	}
	if actorID != prop.ProposedByUserID {
		return domain.NewError(domain.CodeUnauthorizedActor, "only the proposer can delete")
	}
	if !prop.Status.PendingDecision() {
		return domain.NewErrorf(domain.CodeConflict, "proposal %d already responded (status %s)", proposalID, prop.Status)
	}

	deleted, err := s.db.DeleteProposal(proposalID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NewErrorf(domain.CodeConflict, "proposal %d is no longer pending", proposalID)
	}
	return nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Get returns a proposal by id.
func (s *Service) Get(proposalID int64) (*domain.Proposal, error) {
	return s.get(proposalID)
}

// List returns proposals matching the filter, newest-first, plus the total.
func (s *Service) List(f sqlite.ProposalFilter) ([]domain.Proposal, int, error) {
	if f.Status != "" && !domain.ProposalStatus(f.Status).Valid() {
		return nil, 0, domain.NewErrorf(domain.CodeValidation, "unknown status %q", f.Status)
	}
	return s.db.ListProposals(f)
}

// CardHint resolves display fields for a card-backed proposal. Returns nil
// when the catalog cannot answer; the proposal is still served with its id.
func (s *Service) CardHint(p *domain.Proposal) *domain.Card {
	if p.CardID == nil {
		return nil
	}
	return s.catalog.Hint(*p.CardID)
}

// SweepExpired moves pending proposals whose week closed past the grace
// window to expired. Safe to run at any cadence.
func (s *Service) SweepExpired(now time.Time) (int64, error) {
	n, err := s.db.ExpireOverdue(now, s.cfg.ExpiryGraceDays)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.SweptExpired.Add(float64(n))
		log.Printf("[sweep] expired %d overdue proposals", n)
	}
	return n, nil
}

func (s *Service) get(id int64) (*domain.Proposal, error) {
	prop, err := s.db.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, domain.NewErrorf(domain.CodeNotFound, "proposal %d not found", id)
	}
	return prop, nil
}
