package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	"github.com/desguapro/catalog-sync/internal/infrastructure/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var nonTerminalStatuses = []string{
	string(domain.StatusPending),
	string(domain.StatusRunning),
	string(domain.StatusPaused),
}

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// enqueueLockID serializes the overlap check across concurrent enqueues.
// One key for all scopes: the all scope overlaps both entity scopes, so
// per-scope keys would not see each other.
const enqueueLockID = 824662

// Enqueue creates a pending job, rejecting it when a non-terminal job with
// an overlapping scope already exists. Under READ COMMITTED two concurrent
// transactions can both count zero, so the check runs under a
// transaction-scoped advisory lock.
func (r *ImportJobRepository) Enqueue(ctx context.Context, scope domain.Scope, mode domain.Mode, fromDate *time.Time) (string, error) {
	jobID := uuid.NewString()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", enqueueLockID).Error; err != nil {
			return fmt.Errorf("lock enqueue: %w", err)
		}

		overlap, err := hasActiveOverlap(tx, scope)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrImportOverlap
		}

		job := models.ImportJob{
			ID:          jobID,
			EntityScope: string(scope),
			Mode:        string(mode),
			Status:      string(domain.StatusPending),
			FromDate:    fromDate,
			Errors:      "[]",
			Details:     "{}",
		}
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("create import job: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// ClaimNext atomically moves the oldest pending job to running. SKIP LOCKED
// keeps concurrent runners from claiming the same row.
func (r *ImportJobRepository) ClaimNext(ctx context.Context) (*domain.ImportJob, error) {
	var claimed *domain.ImportJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ImportJob
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", string(domain.StatusPending)).
			Order("created_at ASC").
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("select pending job: %w", err)
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       string(domain.StatusRunning),
			"heartbeat_at": now,
		}
		if row.StartedAt == nil {
			updates["started_at"] = now
		}
		if err := tx.Model(&models.ImportJob{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("claim job %s: %w", row.ID, err)
		}

		row.Status = string(domain.StatusRunning)
		row.HeartbeatAt = &now
		if row.StartedAt == nil {
			row.StartedAt = &now
		}

		job, err := toDomainJob(row)
		if err != nil {
			return err
		}
		claimed = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *ImportJobRepository) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var row models.ImportJob
	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}
	return toDomainJob(row)
}

// GetStatus is the cheap control read the page loop does between pages.
func (r *ImportJobRepository) GetStatus(ctx context.Context, jobID string) (domain.Status, error) {
	var statuses []string
	err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Pluck("status", &statuses).Error
	if err != nil {
		return "", fmt.Errorf("get job status: %w", err)
	}
	if len(statuses) == 0 {
		return "", domain.ErrJobNotFound
	}
	return domain.Status(statuses[0]), nil
}

func (r *ImportJobRepository) List(ctx context.Context) ([]domain.ImportJob, error) {
	var rows []models.ImportJob
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}
	return toDomainJobs(rows)
}

func (r *ImportJobRepository) HasActiveOverlap(ctx context.Context, scope domain.Scope) (bool, error) {
	return hasActiveOverlap(r.db.WithContext(ctx), scope)
}

func hasActiveOverlap(tx *gorm.DB, scope domain.Scope) (bool, error) {
	query := tx.Model(&models.ImportJob{}).Where("status IN ?", nonTerminalStatuses)
	if scope != domain.ScopeAll {
		query = query.Where("entity_scope IN ?", []string{string(scope), string(domain.ScopeAll)})
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("count active jobs: %w", err)
	}
	return count > 0, nil
}

// CommitPage persists one page checkpoint: the job's counters, details and
// heartbeat together with the advanced sync cursor, in a single transaction.
// Status is deliberately left untouched so an operator command issued
// mid-page is not overwritten.
func (r *ImportJobRepository) CommitPage(ctx context.Context, job *domain.ImportJob, cursor domain.SyncCursor) error {
	errorsJSON, detailsJSON, err := encodeJobJSON(job)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.ImportJob{}).Where("id = ?", job.ID).Updates(map[string]any{
			"total_items":       job.TotalItems,
			"processed_items":   job.ProcessedItems,
			"new_items":         job.NewItems,
			"updated_items":     job.UpdatedItems,
			"deactivated_items": job.DeactivatedItems,
			"current_item":      job.CurrentItem,
			"errors":            errorsJSON,
			"error_count":       job.ErrorCount,
			"details":           detailsJSON,
			"heartbeat_at":      now,
		})
		if res.Error != nil {
			return fmt.Errorf("commit job progress: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrJobNotFound
		}

		return saveCursor(tx, cursor)
	})
}

// Finalize moves a job to a terminal state, stamping ended_at. The guard on
// the previous statuses makes the transition a compare-and-set.
func (r *ImportJobRepository) Finalize(ctx context.Context, job *domain.ImportJob, status domain.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize to non-terminal status %q", status)
	}

	errorsJSON, detailsJSON, err := encodeJobJSON(job)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", job.ID, nonTerminalStatuses).
		Updates(map[string]any{
			"status":            string(status),
			"total_items":       job.TotalItems,
			"processed_items":   job.ProcessedItems,
			"new_items":         job.NewItems,
			"updated_items":     job.UpdatedItems,
			"deactivated_items": job.DeactivatedItems,
			"current_item":      job.CurrentItem,
			"errors":            errorsJSON,
			"error_count":       job.ErrorCount,
			"details":           detailsJSON,
			"ended_at":          now,
		})
	if res.Error != nil {
		return fmt.Errorf("finalize job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrJobConflict
	}
	job.Status = status
	job.EndedAt = &now
	return nil
}

// Transition performs an operator command as a compare-and-set on status.
func (r *ImportJobRepository) Transition(ctx context.Context, jobID string, from []domain.Status, to domain.Status) error {
	fromStatuses := make([]string, 0, len(from))
	for _, s := range from {
		fromStatuses = append(fromStatuses, string(s))
	}

	updates := map[string]any{"status": string(to)}
	if to.Terminal() {
		updates["ended_at"] = time.Now().UTC()
	}

	res := r.db.WithContext(ctx).Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", jobID, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("transition job to %s: %w", to, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
			return fmt.Errorf("check job existence: %w", err)
		}
		if count == 0 {
			return domain.ErrJobNotFound
		}
		return domain.ErrJobConflict
	}
	return nil
}

// TransitionAll applies a bulk operator command and returns the ids it hit.
func (r *ImportJobRepository) TransitionAll(ctx context.Context, from []domain.Status, to domain.Status) ([]string, error) {
	fromStatuses := make([]string, 0, len(from))
	for _, s := range from {
		fromStatuses = append(fromStatuses, string(s))
	}

	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ImportJob{}).
			Where("status IN ?", fromStatuses).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("list jobs for bulk transition: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		updates := map[string]any{"status": string(to)}
		if to.Terminal() {
			updates["ended_at"] = time.Now().UTC()
		}
		if err := tx.Model(&models.ImportJob{}).Where("id IN ?", ids).Updates(updates).Error; err != nil {
			return fmt.Errorf("bulk transition to %s: %w", to, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListStale returns running jobs whose last checkpoint (heartbeat, falling
// back to started_at) is older than the cutoff.
func (r *ImportJobRepository) ListStale(ctx context.Context, cutoff time.Time) ([]domain.ImportJob, error) {
	var rows []models.ImportJob
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.StatusRunning)).
		Where("COALESCE(heartbeat_at, started_at, created_at) < ?", cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list stale jobs: %w", err)
	}
	return toDomainJobs(rows)
}

// Delete removes a terminal job's history row. Catalog data committed by the
// job is unaffected.
func (r *ImportJobRepository) Delete(ctx context.Context, jobID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ImportJob
		if err := tx.Select("id", "status").First(&row, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrJobNotFound
			}
			return fmt.Errorf("get job for delete: %w", err)
		}
		if !domain.Status(row.Status).Terminal() {
			return domain.ErrJobConflict
		}
		if err := tx.Delete(&models.ImportJob{}, "id = ?", jobID).Error; err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		return nil
	})
}

func encodeJobJSON(job *domain.ImportJob) (string, string, error) {
	if job.Errors == nil {
		job.Errors = []domain.JobError{}
	}
	errorsJSON, err := json.Marshal(job.Errors)
	if err != nil {
		return "", "", fmt.Errorf("marshal job errors: %w", err)
	}
	detailsJSON, err := json.Marshal(job.Details)
	if err != nil {
		return "", "", fmt.Errorf("marshal job details: %w", err)
	}
	return string(errorsJSON), string(detailsJSON), nil
}

func toDomainJob(row models.ImportJob) (*domain.ImportJob, error) {
	job := &domain.ImportJob{
		ID:               row.ID,
		Scope:            domain.Scope(row.EntityScope),
		Mode:             domain.Mode(row.Mode),
		Status:           domain.Status(row.Status),
		FromDate:         row.FromDate,
		TotalItems:       row.TotalItems,
		ProcessedItems:   row.ProcessedItems,
		NewItems:         row.NewItems,
		UpdatedItems:     row.UpdatedItems,
		DeactivatedItems: row.DeactivatedItems,
		CurrentItem:      row.CurrentItem,
		ErrorCount:       row.ErrorCount,
		StartedAt:        row.StartedAt,
		EndedAt:          row.EndedAt,
		HeartbeatAt:      row.HeartbeatAt,
		CreatedAt:        row.CreatedAt,
	}
	if row.Errors != "" {
		if err := json.Unmarshal([]byte(row.Errors), &job.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal job errors: %w", err)
		}
	}
	if row.Details != "" {
		if err := json.Unmarshal([]byte(row.Details), &job.Details); err != nil {
			return nil, fmt.Errorf("unmarshal job details: %w", err)
		}
	}
	return job, nil
}

func toDomainJobs(rows []models.ImportJob) ([]domain.ImportJob, error) {
	jobs := make([]domain.ImportJob, 0, len(rows))
	for _, row := range rows {
		job, err := toDomainJob(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}
