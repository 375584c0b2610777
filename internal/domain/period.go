package domain

import "time"

// ─── Period Types ───────────────────────────────────────────────────────────

// PeriodType is the length class of a game period.
type PeriodType string

const (
	PeriodWeek     PeriodType = "week"
	PeriodMonth    PeriodType = "month"
	PeriodTwoMonth PeriodType = "two_month"
)

// Valid reports whether t is a known period type.
func (t PeriodType) Valid() bool {
	return t == PeriodWeek || t == PeriodMonth || t == PeriodTwoMonth
}

// Weeks returns the duration of the period type in weeks.
func (t PeriodType) Weeks() int {
	switch t {
	case PeriodWeek:
		return 1
	case PeriodMonth:
		return 4
	case PeriodTwoMonth:
		return 8
	}
	return 0
}

// PeriodStatus is the lifecycle state of a period.
type PeriodStatus string

const (
	PeriodSetup  PeriodStatus = "setup"
	PeriodActive PeriodStatus = "active"
	PeriodDone   PeriodStatus = "done"
)

// Valid reports whether s is a known period status.
func (s PeriodStatus) Valid() bool {
	return s == PeriodSetup || s == PeriodActive || s == PeriodDone
}

// Period is the recurring time window that scopes weekly grants and
// proposal week indices. At most one period is active system-wide.
type Period struct {
	ID                 int64        `json:"id"`
	Type               PeriodType   `json:"period_type"`
	Status             PeriodStatus `json:"status"`
	StartDate          time.Time    `json:"start_date"`
	EndDate            time.Time    `json:"end_date"`
	WeeklyBaseCredits  int          `json:"weekly_base_credits"`
	CardsToPlayPerWeek int          `json:"cards_to_play_per_week"`
	CreatedAt          time.Time    `json:"created_at"`
}

// TotalWeeks returns the number of weeks in the period.
func (p *Period) TotalWeeks() int { return p.Type.Weeks() }

// CurrentWeek derives the 1-based week index from wall-clock time, clamped
// to [0, TotalWeeks]. It is 0 before the period starts or while in setup,
// and stays at TotalWeeks after the period ends. Derived, never stored.
func (p *Period) CurrentWeek(now time.Time) int {
	if p.Status != PeriodActive {
		return 0
	}
	if now.Before(p.StartDate) {
		return 0
	}
	if now.After(p.EndDate) {
		return p.TotalWeeks()
	}
	days := int(now.Sub(p.StartDate).Hours() / 24)
	week := days/7 + 1
	if total := p.TotalWeeks(); week > total {
		week = total
	}
	return week
}

// WeekEnd returns the instant the given 1-based week closes.
func (p *Period) WeekEnd(weekIndex int) time.Time {
	return p.StartDate.AddDate(0, 0, 7*weekIndex)
}
