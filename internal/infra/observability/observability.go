// Package observability holds the Prometheus metrics for the game core:
// proposal throughput, transition outcomes, and ledger bookings.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProposalsCreated counts proposals created, by challenge type.
	ProposalsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couples_proposals_created_total",
		Help: "Proposals created, by challenge type.",
	}, []string{"challenge_type"})

	// Transitions counts proposal state transitions, by event and outcome.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couples_proposal_transitions_total",
		Help: "Proposal state transitions, by event and outcome.",
	}, []string{"event", "outcome"})

	// LedgerEntries counts ledger entries booked, by type.
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couples_ledger_entries_total",
		Help: "Credit ledger entries booked, by type.",
	}, []string{"type"})

	// CreditsBooked sums absolute credit amounts moved through the ledger.
	CreditsBooked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couples_credits_booked_total",
		Help: "Absolute credit amounts booked, by ledger type.",
	}, []string{"type"})

	// SweptExpired counts proposals moved to expired by the sweeper.
	SweptExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "couples_sweep_expired_total",
		Help: "Pending proposals expired by the periodic sweep.",
	})
)

// ObserveEntry records a booked ledger entry.
func ObserveEntry(ledgerType string, amount int) {
	LedgerEntries.WithLabelValues(ledgerType).Inc()
	if amount < 0 {
		amount = -amount
	}
	CreditsBooked.WithLabelValues(ledgerType).Add(float64(amount))
}

// ObserveTransition records a transition attempt outcome.
func ObserveTransition(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Transitions.WithLabelValues(event, outcome).Inc()
}
