package catalog

import (
	"context"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type importJobStore interface {
	Enqueue(ctx context.Context, scope domain.Scope, mode domain.Mode, fromDate *time.Time) (string, error)
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
	List(ctx context.Context) ([]domain.ImportJob, error)
	Transition(ctx context.Context, jobID string, from []domain.Status, to domain.Status) error
	TransitionAll(ctx context.Context, from []domain.Status, to domain.Status) ([]string, error)
	Delete(ctx context.Context, jobID string) error
}

type cursorReader interface {
	List(ctx context.Context) ([]domain.SyncCursor, error)
}

type catalogCounter interface {
	CountRows(ctx context.Context, entityType domain.EntityType) (total int64, active int64, err error)
}

// ImportService is the operator-facing control plane over import jobs.
type ImportService struct {
	jobs    importJobStore
	cursors cursorReader
	counts  catalogCounter
	gate    *SchedulerGate
}

func NewImportService(jobs importJobStore, cursors cursorReader, counts catalogCounter, gate *SchedulerGate) *ImportService {
	return &ImportService{jobs: jobs, cursors: cursors, counts: counts, gate: gate}
}

type StartImportInput struct {
	Type       string
	FullImport bool
	FromDate   *time.Time
}

type StartImportOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *ImportService) Start(ctx context.Context, in StartImportInput) (StartImportOutput, error) {
	scope, err := domain.ParseScope(in.Type)
	if err != nil {
		return StartImportOutput{}, ErrInvalidImportType
	}
	if in.FromDate != nil && in.FromDate.After(time.Now()) {
		return StartImportOutput{}, ErrInvalidFromDate
	}

	mode := domain.ModeIncremental
	if in.FullImport {
		mode = domain.ModeFull
	}

	jobID, err := s.jobs.Enqueue(ctx, scope, mode, in.FromDate)
	if err != nil {
		return StartImportOutput{}, err
	}
	return StartImportOutput{JobID: jobID, Status: string(domain.StatusPending)}, nil
}

// Pause parks a running job at its next page boundary. The runner keeps the
// in-flight page and commits it before honoring the new status.
func (s *ImportService) Pause(ctx context.Context, jobID string) error {
	return s.jobs.Transition(ctx, jobID, domain.TransitionSources(domain.StatusPaused), domain.StatusPaused)
}

// Resume re-arms a paused job to pending so a runner claims it again and
// continues from the committed cursor snapshot.
func (s *ImportService) Resume(ctx context.Context, jobID string) error {
	return s.jobs.Transition(ctx, jobID, domain.TransitionSources(domain.StatusPending), domain.StatusPending)
}

func (s *ImportService) Cancel(ctx context.Context, jobID string) error {
	return s.jobs.Transition(ctx, jobID, domain.TransitionSources(domain.StatusCancelled), domain.StatusCancelled)
}

// PauseAll pauses every running job and gates the scheduler so no new jobs
// are created during the paused window.
func (s *ImportService) PauseAll(ctx context.Context) ([]string, error) {
	s.gate.Pause()
	return s.jobs.TransitionAll(ctx, domain.TransitionSources(domain.StatusPaused), domain.StatusPaused)
}

func (s *ImportService) ResumeAll(ctx context.Context) ([]string, error) {
	ids, err := s.jobs.TransitionAll(ctx, domain.TransitionSources(domain.StatusPending), domain.StatusPending)
	if err != nil {
		return nil, err
	}
	s.gate.Resume()
	return ids, nil
}

func (s *ImportService) CancelAll(ctx context.Context) ([]string, error) {
	return s.jobs.TransitionAll(ctx, domain.TransitionSources(domain.StatusCancelled), domain.StatusCancelled)
}

func (s *ImportService) Delete(ctx context.Context, jobID string) error {
	return s.jobs.Delete(ctx, jobID)
}

func (s *ImportService) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	return s.jobs.Get(ctx, jobID)
}

func (s *ImportService) History(ctx context.Context) ([]domain.ImportJob, error) {
	return s.jobs.List(ctx)
}

type EntityStatus struct {
	EntityType       string     `json:"entity_type"`
	LastSyncDate     *time.Time `json:"last_sync_date,omitempty"`
	LastExternalID   int64      `json:"last_external_id"`
	RecordsProcessed int64      `json:"records_processed"`
	Active           bool       `json:"active"`
	TotalRows        int64      `json:"total_rows"`
	ActiveRows       int64      `json:"active_rows"`
}

// SyncStatus returns the cursor snapshot per entity type plus live catalog
// row counts for the dashboard.
func (s *ImportService) SyncStatus(ctx context.Context) ([]EntityStatus, error) {
	cursors, err := s.cursors.List(ctx)
	if err != nil {
		return nil, err
	}

	byType := make(map[domain.EntityType]domain.SyncCursor, len(cursors))
	for _, cursor := range cursors {
		byType[cursor.EntityType] = cursor
	}

	statuses := make([]EntityStatus, 0, 2)
	for _, entityType := range []domain.EntityType{domain.EntityVehicles, domain.EntityParts} {
		total, active, err := s.counts.CountRows(ctx, entityType)
		if err != nil {
			return nil, err
		}

		status := EntityStatus{
			EntityType: string(entityType),
			TotalRows:  total,
			ActiveRows: active,
		}
		if cursor, ok := byType[entityType]; ok {
			if !cursor.LastSyncDate.IsZero() {
				d := cursor.LastSyncDate
				status.LastSyncDate = &d
			}
			status.LastExternalID = cursor.LastExternalID
			status.RecordsProcessed = cursor.RecordsProcessed
			status.Active = cursor.Active
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
