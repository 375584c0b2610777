// Package period manages the game period lifecycle (setup → active → done)
// and the recurring weekly credit grants scoped to it.
package period

import (
	"log"
	"time"

	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// Service manages periods.
type Service struct {
	db     *sqlite.DB
	ledger *credit.Service
}

// NewService creates a period service.
func NewService(db *sqlite.DB, ledger *credit.Service) *Service {
	return &Service{db: db, ledger: ledger}
}

// CreateParams describes a new period.
type CreateParams struct {
	Type               domain.PeriodType
	StartDate          time.Time
	WeeklyBaseCredits  int
	CardsToPlayPerWeek int
}

// Create creates a period in setup. Refused while another period is active:
// the couple plays one game at a time.
func (s *Service) Create(p CreateParams) (*domain.Period, error) {
	if !p.Type.Valid() {
		return nil, domain.NewErrorf(domain.CodeValidation, "unknown period type %q", p.Type)
	}
	if p.WeeklyBaseCredits < 0 || p.CardsToPlayPerWeek < 0 {
		return nil, domain.NewError(domain.CodeValidation, "weekly credits and cards per week must be non-negative")
	}
	active, err := s.db.ActivePeriod()
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, domain.NewError(domain.CodeConflict, "an active period already exists")
	}

	period := domain.Period{
		Type:               p.Type,
		Status:             domain.PeriodSetup,
		StartDate:          p.StartDate.UTC(),
		EndDate:            p.StartDate.UTC().AddDate(0, 0, 7*p.Type.Weeks()),
		WeeklyBaseCredits:  p.WeeklyBaseCredits,
		CardsToPlayPerWeek: p.CardsToPlayPerWeek,
		CreatedAt:          time.Now().UTC(),
	}
	id, err := s.db.InsertPeriod(period)
	if err != nil {
		return nil, err
	}
	period.ID = id
	return &period, nil
}

// Activate starts the clock on a setup period. Fails with a conflict if the
// period is not in setup, or if another period is already active — it never
// silently deactivates the old one.
func (s *Service) Activate(id int64) (*domain.Period, error) {
	period, err := s.get(id)
	if err != nil {
		return nil, err
	}
	updated, conflict, err := s.db.UpdatePeriodStatus(id, domain.PeriodSetup, domain.PeriodActive)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.NewError(domain.CodeConflict, "another period is already active")
	}
	if !updated {
		return nil, domain.NewErrorf(domain.CodeConflict, "period %d is not in setup", id)
	}
	period.Status = domain.PeriodActive
	return period, nil
}

// Complete marks an active period as done (terminal).
func (s *Service) Complete(id int64) (*domain.Period, error) {
	period, err := s.get(id)
	if err != nil {
		return nil, err
	}
	updated, _, err := s.db.UpdatePeriodStatus(id, domain.PeriodActive, domain.PeriodDone)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.NewErrorf(domain.CodeConflict, "period %d is not active", id)
	}
	period.Status = domain.PeriodDone
	return period, nil
}

// Get returns a period by id.
func (s *Service) Get(id int64) (*domain.Period, error) {
	return s.get(id)
}

// Active returns the active period, or nil when none.
func (s *Service) Active() (*domain.Period, error) {
	return s.db.ActivePeriod()
}

// List returns periods newest-first.
func (s *Service) List(status string, limit, offset int) ([]domain.Period, int, error) {
	if status != "" && !domain.PeriodStatus(status).Valid() {
		return nil, 0, domain.NewErrorf(domain.CodeValidation, "unknown period status %q", status)
	}
	return s.db.ListPeriods(status, limit, offset)
}

// GrantWeekly books this week's base grant for the given users in the given
// period. Idempotent per (user, period, week); re-requesting a period view
// never duplicates grants. Returns the number of entries actually booked.
func (s *Service) GrantWeekly(periodID int64, userIDs []int64, now time.Time) (int, error) {
	period, err := s.get(periodID)
	if err != nil {
		return 0, err
	}
	if period.Status != domain.PeriodActive {
		return 0, domain.NewErrorf(domain.CodeConflict, "period %d is not active", periodID)
	}
	week := period.CurrentWeek(now)
	if week < 1 {
		return 0, domain.NewError(domain.CodeValidation, "period has not started yet")
	}

	count := 0
	for _, userID := range userIDs {
		granted, err := s.ledger.GrantWeekly(userID, periodID, week, period.WeeklyBaseCredits)
		if err != nil {
			return count, err
		}
		if granted {
			count++
		}
	}
	return count, nil
}

// TickWeeklyGrants is the scheduler entrypoint: grants the current week's
// base credits to every user of the active period. A no-op when no period is
// active or the week has not started.
func (s *Service) TickWeeklyGrants(now time.Time) (int, error) {
	period, err := s.db.ActivePeriod()
	if err != nil {
		return 0, err
	}
	if period == nil || period.CurrentWeek(now) < 1 {
		return 0, nil
	}
	userIDs, err := s.db.UserIDs()
	if err != nil {
		return 0, err
	}
	count, err := s.GrantWeekly(period.ID, userIDs, now)
	if err != nil {
		return count, err
	}
	if count > 0 {
		log.Printf("[period] weekly grant tick booked %d entries for period %d week %d",
			count, period.ID, period.CurrentWeek(now))
	}
	return count, nil
}

func (s *Service) get(id int64) (*domain.Period, error) {
	period, err := s.db.GetPeriod(id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.NewErrorf(domain.CodeNotFound, "period %d not found", id)
	}
	return period, nil
}
