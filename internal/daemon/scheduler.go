package daemon

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eojedapilchik/couples-app/internal/app/period"
	"github.com/eojedapilchik/couples-app/internal/app/proposal"
)

// Scheduler runs the recurring jobs: the weekly base grant tick and the
// overdue-proposal expiry sweep. Both jobs are idempotent, so the cadence is
// a liveness knob, not a correctness one.
type Scheduler struct {
	cron      *cron.Cron
	periods   *period.Service
	proposals *proposal.Service
}

// NewScheduler creates a scheduler for the given services.
func NewScheduler(periods *period.Service, proposals *proposal.Service) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		periods:   periods,
		proposals: proposals,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(cfg SchedulerConfig) error {
	if _, err := s.cron.AddFunc(cfg.WeeklyTickSpec, s.weeklyTick); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cfg.SweepSpec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[daemon] scheduler started (weekly tick %q, sweep %q)", cfg.WeeklyTickSpec, cfg.SweepSpec)
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) weeklyTick() {
	if _, err := s.periods.TickWeeklyGrants(time.Now().UTC()); err != nil {
		log.Printf("[daemon] weekly grant tick failed: %v", err)
	}
}

func (s *Scheduler) sweep() {
	if _, err := s.proposals.SweepExpired(time.Now().UTC()); err != nil {
		log.Printf("[daemon] expiry sweep failed: %v", err)
	}
}
