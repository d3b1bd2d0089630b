package catalog

import (
	"context"
	"log"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type scheduleStore interface {
	ListDue(ctx context.Context, now time.Time) ([]domain.ScheduleConfig, error)
	MarkRun(ctx context.Context, id int64, lastRun, nextRun time.Time) error
}

type schedulerJobStore interface {
	HasActiveOverlap(ctx context.Context, scope domain.Scope) (bool, error)
	Enqueue(ctx context.Context, scope domain.Scope, mode domain.Mode, fromDate *time.Time) (string, error)
}

// Scheduler creates jobs from due schedules. It only ever creates jobs; the
// runner owns them from there.
type Scheduler struct {
	schedules scheduleStore
	jobs      schedulerJobStore
	gate      *SchedulerGate
	now       func() time.Time
}

func NewScheduler(schedules scheduleStore, jobs schedulerJobStore, gate *SchedulerGate) *Scheduler {
	return &Scheduler{schedules: schedules, jobs: jobs, gate: gate, now: time.Now}
}

// Tick checks all due schedules once. Creation is skipped while the bulk
// pause gate is closed and when a non-terminal job already covers the
// scope; last_run/next_run advance either way so a skipped slot is not
// retried every tick.
func (s *Scheduler) Tick(ctx context.Context) error {
	if s.gate != nil && s.gate.Paused() {
		return nil
	}

	now := s.now().UTC()
	due, err := s.schedules.ListDue(ctx, now)
	if err != nil {
		return err
	}

	for _, schedule := range due {
		overlap, err := s.jobs.HasActiveOverlap(ctx, schedule.Scope)
		if err != nil {
			return err
		}

		if overlap {
			log.Printf("schedule %d: %s import already active, skipping", schedule.ID, schedule.Scope)
		} else {
			mode := domain.ModeIncremental
			if schedule.FullImport {
				mode = domain.ModeFull
			}
			jobID, err := s.jobs.Enqueue(ctx, schedule.Scope, mode, nil)
			if err != nil {
				log.Printf("schedule %d: enqueue %s import failed: %v", schedule.ID, schedule.Scope, err)
			} else {
				log.Printf("schedule %d: created %s %s import %s", schedule.ID, mode, schedule.Scope, jobID)
			}
		}

		if err := s.schedules.MarkRun(ctx, schedule.ID, now, schedule.NextAfter(now)); err != nil {
			return err
		}
	}
	return nil
}
