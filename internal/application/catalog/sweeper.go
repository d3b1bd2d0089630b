package catalog

import (
	"context"
	"log"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type sweeperJobStore interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.ImportJob, error)
	Transition(ctx context.Context, jobID string, from []domain.Status, to domain.Status) error
	Finalize(ctx context.Context, job *domain.ImportJob, status domain.Status) error
}

type SweepAction struct {
	JobID  string `json:"job_id"`
	Action string `json:"action"`
	Status string `json:"status"`
}

// Sweeper audits running jobs whose last checkpoint is older than the stale
// threshold. It only acts on durably committed state: a stuck job with
// committed progress is re-armed to pending so a runner resumes it from the
// last committed cursor; forcing instead finalizes it from those counters.
type Sweeper struct {
	jobs           sweeperJobStore
	staleThreshold time.Duration
	now            func() time.Time
}

func NewSweeper(jobs sweeperJobStore, staleThreshold time.Duration) *Sweeper {
	if staleThreshold <= 0 {
		staleThreshold = 30 * time.Minute
	}
	return &Sweeper{jobs: jobs, staleThreshold: staleThreshold, now: time.Now}
}

// Sweep runs one recovery pass. With force set, stuck jobs are finalized
// from their committed counters (partial when anything was processed)
// instead of being re-armed.
func (s *Sweeper) Sweep(ctx context.Context, force bool) ([]SweepAction, error) {
	cutoff := s.now().UTC().Add(-s.staleThreshold)
	stale, err := s.jobs.ListStale(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	actions := make([]SweepAction, 0, len(stale))
	for i := range stale {
		job := &stale[i]

		switch {
		case !force && job.ProcessedItems > 0:
			err = s.jobs.Transition(ctx, job.ID,
				[]domain.Status{domain.StatusRunning}, domain.StatusPending)
			if err != nil {
				log.Printf("recovery: re-arm stuck job %s failed: %v", job.ID, err)
				continue
			}
			actions = append(actions, SweepAction{
				JobID:  job.ID,
				Action: "rearmed",
				Status: string(domain.StatusPending),
			})

		case job.ProcessedItems > 0:
			job.CurrentItem = "recovered from stuck state"
			if err := s.jobs.Finalize(ctx, job, domain.StatusPartial); err != nil {
				log.Printf("recovery: finalize stuck job %s failed: %v", job.ID, err)
				continue
			}
			actions = append(actions, SweepAction{
				JobID:  job.ID,
				Action: "finalized",
				Status: string(domain.StatusPartial),
			})

		default:
			job.CurrentItem = "no progress before stall"
			job.Errors = append(job.Errors, domain.JobError{
				Message: "job stalled with no committed progress",
			})
			job.ErrorCount++
			if err := s.jobs.Finalize(ctx, job, domain.StatusFailed); err != nil {
				log.Printf("recovery: fail stuck job %s failed: %v", job.ID, err)
				continue
			}
			actions = append(actions, SweepAction{
				JobID:  job.ID,
				Action: "finalized",
				Status: string(domain.StatusFailed),
			})
		}
	}
	return actions, nil
}
