package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type runnerJobStore interface {
	ClaimNext(ctx context.Context) (*domain.ImportJob, error)
	GetStatus(ctx context.Context, jobID string) (domain.Status, error)
	CommitPage(ctx context.Context, job *domain.ImportJob, cursor domain.SyncCursor) error
	Finalize(ctx context.Context, job *domain.ImportJob, status domain.Status) error
}

type cursorStore interface {
	Get(ctx context.Context, entityType domain.EntityType) (domain.SyncCursor, error)
}

type changesFeed interface {
	Changes(ctx context.Context, entityType domain.EntityType, sinceDate time.Time, lastID int64, pageSize int) (domain.Page, error)
}

type pageReconciler interface {
	ReconcilePage(ctx context.Context, jobID string, entityType domain.EntityType, records []domain.SupplierRecord) (domain.ReconcileResult, error)
	DeactivateMissing(ctx context.Context, entityType domain.EntityType, before time.Time) (int64, error)
}

type RunnerConfig struct {
	Workers           int
	PageSize          int
	PollInterval      time.Duration
	MaxRetries        int
	RetryBackoffBase  time.Duration
	PartialErrorRatio float64
	MaxStoredErrors   int
}

// Runner claims pending jobs and drives the page loop: fetch a page,
// reconcile it, commit the checkpoint, then re-check operator control state.
// A crash between page commits loses at most one page of work.
type Runner struct {
	jobs       runnerJobStore
	cursors    cursorStore
	feed       changesFeed
	reconciler pageReconciler
	cfg        RunnerConfig
	now        func() time.Time

	once sync.Once
}

func NewRunner(jobs runnerJobStore, cursors cursorStore, feed changesFeed, reconciler pageReconciler, cfg RunnerConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoffBase <= 0 {
		cfg.RetryBackoffBase = 2 * time.Second
	}
	if cfg.PartialErrorRatio <= 0 {
		cfg.PartialErrorRatio = 0.05
	}
	if cfg.MaxStoredErrors <= 0 {
		cfg.MaxStoredErrors = 100
	}

	return &Runner{
		jobs:       jobs,
		cursors:    cursors,
		feed:       feed,
		reconciler: reconciler,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (r *Runner) Start(ctx context.Context) {
	r.once.Do(func() {
		for i := 0; i < r.cfg.Workers; i++ {
			go r.workerLoop(ctx)
		}
	})
}

func (r *Runner) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := r.jobs.ClaimNext(ctx)
		if err != nil {
			log.Printf("claim next import job failed: %v", err)
			if !sleepWithContext(ctx, r.cfg.PollInterval) {
				return
			}
			continue
		}

		if job == nil {
			if !sleepWithContext(ctx, r.cfg.PollInterval) {
				return
			}
			continue
		}

		if err := r.ProcessJob(ctx, job); err != nil {
			log.Printf("process import job %s failed: %v", job.ID, err)
		}
	}
}

// ProcessJob runs a claimed job to a stopping point: completion, failure, or
// an operator pause/cancel honored at a page boundary. A resumed job picks
// up from the cursor snapshot committed in its details.
func (r *Runner) ProcessJob(ctx context.Context, job *domain.ImportJob) error {
	// The deactivation cutoff is the job's first claim time, not this
	// invocation's: a resumed full import already stamped last_seen_at on
	// rows committed before the interruption, and those must survive.
	runStart := r.now().UTC()
	if job.StartedAt != nil {
		runStart = job.StartedAt.UTC()
	}

	for _, entityType := range job.Scope.Types() {
		sub := job.Details.For(entityType)
		if sub.Completed {
			continue
		}

		cursor, stopped, err := r.syncEntity(ctx, job, entityType)
		if err != nil {
			r.appendError(job, 0, err)
			job.CurrentItem = fmt.Sprintf("%s import aborted", entityType)
			if finErr := r.jobs.Finalize(ctx, job, domain.StatusFailed); finErr != nil {
				return fmt.Errorf("%v; finalize failed: %w", err, finErr)
			}
			return err
		}
		if stopped {
			return nil
		}

		sub.Completed = true
		if job.Mode == domain.ModeFull {
			deactivated, err := r.reconciler.DeactivateMissing(ctx, entityType, runStart)
			if err != nil {
				r.appendError(job, 0, fmt.Errorf("deactivate missing %s: %w", entityType, err))
				if finErr := r.jobs.Finalize(ctx, job, domain.StatusFailed); finErr != nil {
					return fmt.Errorf("%v; finalize failed: %w", err, finErr)
				}
				return err
			}
			job.DeactivatedItems += deactivated
			sub.DeactivatedItems += deactivated
		}

		// Checkpoint the completed sub-scope so a later pause/resume does
		// not replay this entity type.
		if err := r.jobs.CommitPage(ctx, job, cursor); err != nil {
			return err
		}
	}

	status := domain.StatusCompleted
	if job.ProcessedItems > 0 &&
		float64(job.ErrorCount)/float64(job.ProcessedItems) >= r.cfg.PartialErrorRatio {
		status = domain.StatusPartial
	}
	job.CurrentItem = "import finished"
	return r.jobs.Finalize(ctx, job, status)
}

func (r *Runner) syncEntity(ctx context.Context, job *domain.ImportJob, entityType domain.EntityType) (domain.SyncCursor, bool, error) {
	cursor, err := r.cursors.Get(ctx, entityType)
	if err != nil {
		return domain.SyncCursor{}, false, err
	}

	sub := job.Details.For(entityType)

	// Incremental runs start from the persisted watermark; full runs and
	// explicit from-date runs ignore it. A resumed job continues from its
	// own committed snapshot either way.
	var since time.Time
	var lastID int64
	switch {
	case job.FromDate != nil:
		since = job.FromDate.UTC()
	case job.Mode == domain.ModeIncremental:
		since = cursor.LastSyncDate
		lastID = cursor.LastExternalID
	}
	if sub.LastExternalID > 0 {
		lastID = sub.LastExternalID
	}

	for {
		page, err := r.fetchPage(ctx, entityType, since, lastID, r.cfg.PageSize)
		if err != nil {
			return cursor, false, err
		}
		if len(page.Records) == 0 {
			return cursor, false, nil
		}

		if sub.ProcessedItems == 0 && page.Total > 0 {
			job.TotalItems += page.Total
		}

		valid := make([]domain.SupplierRecord, 0, len(page.Records))
		maxID := lastID
		maxDate := time.Time{}
		for _, record := range page.Records {
			if record.ExternalID > maxID {
				maxID = record.ExternalID
			}
			if record.UpdatedAt.After(maxDate) {
				maxDate = record.UpdatedAt
			}
			if err := record.Validate(entityType); err != nil {
				r.appendError(job, record.ExternalID, err)
				continue
			}
			valid = append(valid, record)
		}
		if maxDate.IsZero() {
			maxDate = r.now().UTC()
		}

		var result domain.ReconcileResult
		if len(valid) > 0 {
			result, err = r.reconciler.ReconcilePage(ctx, job.ID, entityType, valid)
			if err != nil {
				return cursor, false, fmt.Errorf("reconcile %s page: %w", entityType, err)
			}
			job.CurrentItem = valid[len(valid)-1].Label()
		}

		processed := int64(len(page.Records))
		job.ProcessedItems += processed
		job.NewItems += result.New
		job.UpdatedItems += result.Updated
		sub.ProcessedItems += processed
		sub.NewItems += result.New
		sub.UpdatedItems += result.Updated
		sub.LastExternalID = maxID
		sub.LastSyncDate = &maxDate

		cursor = cursor.Advance(maxID, maxDate, processed)
		if err := r.jobs.CommitPage(ctx, job, cursor); err != nil {
			return cursor, false, err
		}

		status, err := r.jobs.GetStatus(ctx, job.ID)
		if err != nil {
			return cursor, false, err
		}
		switch status {
		case domain.StatusPaused:
			log.Printf("import job %s paused at external id %d", job.ID, maxID)
			return cursor, true, nil
		case domain.StatusCancelled:
			log.Printf("import job %s cancelled at external id %d", job.ID, maxID)
			return cursor, true, nil
		}

		if !page.HasMore || len(page.Records) < r.cfg.PageSize {
			return cursor, false, nil
		}
		if maxID <= lastID {
			// Supplier claims more pages but the id did not advance; bail
			// out instead of looping on the same page.
			log.Printf("import job %s: %s page did not advance past id %d", job.ID, entityType, lastID)
			return cursor, false, nil
		}
		lastID = maxID
	}
}

// fetchPage retries transient supplier failures with exponential backoff.
// Credential errors are never retried.
func (r *Runner) fetchPage(ctx context.Context, entityType domain.EntityType, since time.Time, lastID int64, pageSize int) (domain.Page, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.cfg.RetryBackoffBase << (attempt - 1)
			if !sleepWithContext(ctx, backoff) {
				return domain.Page{}, ctx.Err()
			}
		}

		page, err := r.feed.Changes(ctx, entityType, since, lastID, pageSize)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, domain.ErrSupplierUnauthorized) {
			return domain.Page{}, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Page{}, err
		}
		lastErr = err
		log.Printf("fetch %s page after id %d failed (attempt %d/%d): %v",
			entityType, lastID, attempt+1, r.cfg.MaxRetries+1, err)
	}
	return domain.Page{}, fmt.Errorf("fetch %s page: retries exhausted: %w", entityType, lastErr)
}

func (r *Runner) appendError(job *domain.ImportJob, externalID int64, err error) {
	job.ErrorCount++
	if len(job.Errors) < r.cfg.MaxStoredErrors {
		job.Errors = append(job.Errors, domain.JobError{
			ExternalID: externalID,
			Message:    truncateReason(err.Error()),
		})
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
