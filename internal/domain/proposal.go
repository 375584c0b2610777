// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the application — it depends on nothing.
package domain

import "time"

// ─── Proposal Status ────────────────────────────────────────────────────────

// ProposalStatus is the state of a proposal in its lifecycle.
type ProposalStatus string

const (
	StatusProposed           ProposalStatus = "proposed"
	StatusAccepted           ProposalStatus = "accepted"
	StatusMaybeLater         ProposalStatus = "maybe_later"
	StatusRejected           ProposalStatus = "rejected"
	StatusCompletedPending   ProposalStatus = "completed_pending_confirmation"
	StatusCompletedConfirmed ProposalStatus = "completed_confirmed"
	StatusExpired            ProposalStatus = "expired"
)

// PendingDecision reports whether the recipient still owes a response.
// maybe_later is a deferred variant of proposed: every transition available
// from proposed is also available from maybe_later.
func (s ProposalStatus) PendingDecision() bool {
	return s == StatusProposed || s == StatusMaybeLater
}

// Terminal reports whether no further transitions are possible.
func (s ProposalStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompletedConfirmed || s == StatusExpired
}

// Valid reports whether s is a known status value.
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusProposed, StatusAccepted, StatusMaybeLater, StatusRejected,
		StatusCompletedPending, StatusCompletedConfirmed, StatusExpired:
		return true
	}
	return false
}

// validTransitions is the full transition table. The actor authorized for
// each transition is enforced by the proposal service, not here.
var validTransitions = map[ProposalStatus][]ProposalStatus{
	StatusProposed:         {StatusAccepted, StatusMaybeLater, StatusRejected, StatusExpired},
	StatusMaybeLater:       {StatusAccepted, StatusMaybeLater, StatusRejected, StatusExpired},
	StatusAccepted:         {StatusCompletedPending, StatusExpired},
	StatusCompletedPending: {StatusCompletedConfirmed, StatusExpired},
}

// CanTransition reports whether from → to is a legal status transition.
func CanTransition(from, to ProposalStatus) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ─── Challenge Types ────────────────────────────────────────────────────────

// ChallengeType classifies what kind of challenge a proposal carries.
type ChallengeType string

const (
	ChallengeSimple ChallengeType = "simple"
	ChallengeGuided ChallengeType = "guided"
	ChallengeCustom ChallengeType = "custom"
)

// Valid reports whether t is a known challenge type.
func (t ChallengeType) Valid() bool {
	return t == ChallengeSimple || t == ChallengeGuided || t == ChallengeCustom
}

// RewardType is the extra reward a custom challenge may promise.
type RewardType string

const (
	RewardNone       RewardType = "none"
	RewardCredits    RewardType = "credits"
	RewardCoupon     RewardType = "coupon"
	RewardChooseNext RewardType = "choose_next"
)

// Valid reports whether r is a known reward type.
func (r RewardType) Valid() bool {
	switch r {
	case RewardNone, RewardCredits, RewardCoupon, RewardChooseNext:
		return true
	}
	return false
}

// ChallengeDetails is the guided/custom payload of a proposal. The state
// machine never inspects it beyond type-consistency validation; it is
// carried through unmodified.
type ChallengeDetails struct {
	// Guided fields
	WhyProposing string `json:"why_proposing,omitempty"`
	Boundary     string `json:"boundary,omitempty"`

	// Custom fields
	Location      string     `json:"location,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	Boundaries    string     `json:"boundaries,omitempty"`
	RewardType    RewardType `json:"reward_type,omitempty"`
	RewardDetails string     `json:"reward_details,omitempty"`
}

// Empty reports whether no payload fields are set.
func (d ChallengeDetails) Empty() bool {
	return d == ChallengeDetails{}
}

// Validate checks that the payload is consistent with the challenge type:
// simple proposals carry no payload, guided proposals require a boundary,
// custom proposals require boundaries.
func (d ChallengeDetails) Validate(t ChallengeType) error {
	switch t {
	case ChallengeSimple:
		if !d.Empty() {
			return NewError(CodeValidation, "simple challenges carry no guided/custom fields")
		}
	case ChallengeGuided:
		if d.Boundary == "" {
			return NewError(CodeValidation, "guided challenges require a boundary")
		}
		if d.Location != "" || d.Duration != "" || d.Boundaries != "" || d.RewardType != "" || d.RewardDetails != "" {
			return NewError(CodeValidation, "guided challenges cannot carry custom fields")
		}
	case ChallengeCustom:
		if d.Boundaries == "" {
			return NewError(CodeValidation, "custom challenges require boundaries")
		}
		if d.RewardType != "" && !d.RewardType.Valid() {
			return NewError(CodeValidation, "unknown reward type")
		}
	default:
		return NewError(CodeValidation, "unknown challenge type")
	}
	return nil
}

// ─── Proposal ───────────────────────────────────────────────────────────────

// Proposal is a single challenge negotiation between the two partners.
// Exactly one of CardID and CustomTitle is set. CreditCost is nil until the
// recipient accepts and immutable afterward.
type Proposal struct {
	ID               int64            `json:"id"`
	PeriodID         int64            `json:"period_id"`
	WeekIndex        int              `json:"week_index"`
	ProposedByUserID int64            `json:"proposed_by_user_id"`
	ProposedToUserID int64            `json:"proposed_to_user_id"`
	CardID           *int64           `json:"card_id"`
	ChallengeType    ChallengeType    `json:"challenge_type"`
	CustomTitle      string           `json:"custom_title,omitempty"`
	CustomDesc       string           `json:"custom_description,omitempty"`
	Details          ChallengeDetails `json:"details"`
	CreditCost       *int             `json:"credit_cost"`
	Status           ProposalStatus   `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	RespondedAt      *time.Time       `json:"responded_at"`
	CompletedReqAt   *time.Time       `json:"completed_requested_at"`
	CompletedConfAt  *time.Time       `json:"completed_confirmed_at"`
}

// FromCard reports whether the proposal references a catalog card.
func (p *Proposal) FromCard() bool { return p.CardID != nil }

// DisplayTitle returns the card title when resolved, else the custom title.
func (p *Proposal) DisplayTitle(card *Card) string {
	if card != nil {
		return card.Title
	}
	return p.CustomTitle
}

// DisplayDescription returns the card description when resolved, else the
// custom description.
func (p *Proposal) DisplayDescription(card *Card) string {
	if card != nil {
		return card.Description
	}
	return p.CustomDesc
}
