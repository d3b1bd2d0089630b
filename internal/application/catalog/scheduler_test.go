package catalog_test

import (
	"context"
	"testing"
	"time"

	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type fakeScheduleStore struct {
	due      []domain.ScheduleConfig
	marked   []int64
	nextRuns []time.Time
}

func (f *fakeScheduleStore) ListDue(ctx context.Context, now time.Time) ([]domain.ScheduleConfig, error) {
	return f.due, nil
}

func (f *fakeScheduleStore) MarkRun(ctx context.Context, id int64, lastRun, nextRun time.Time) error {
	f.marked = append(f.marked, id)
	f.nextRuns = append(f.nextRuns, nextRun)
	return nil
}

type fakeSchedulerJobs struct {
	overlap  map[domain.Scope]bool
	enqueued []domain.Scope
	modes    []domain.Mode
}

func (f *fakeSchedulerJobs) HasActiveOverlap(ctx context.Context, scope domain.Scope) (bool, error) {
	return f.overlap[scope], nil
}

func (f *fakeSchedulerJobs) Enqueue(ctx context.Context, scope domain.Scope, mode domain.Mode, fromDate *time.Time) (string, error) {
	f.enqueued = append(f.enqueued, scope)
	f.modes = append(f.modes, mode)
	return "job-1", nil
}

func TestSchedulerTickEnqueuesDueSchedules(t *testing.T) {
	t.Parallel()

	schedules := &fakeScheduleStore{due: []domain.ScheduleConfig{
		{ID: 1, Scope: domain.ScopeVehicles, Frequency: 6 * time.Hour},
		{ID: 2, Scope: domain.ScopeParts, Frequency: 12 * time.Hour, FullImport: true},
	}}
	jobs := &fakeSchedulerJobs{}

	scheduler := app.NewScheduler(schedules, jobs, &app.SchedulerGate{})
	if err := scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if len(jobs.enqueued) != 2 {
		t.Fatalf("expected 2 jobs, got %v", jobs.enqueued)
	}
	if jobs.modes[0] != domain.ModeIncremental || jobs.modes[1] != domain.ModeFull {
		t.Fatalf("unexpected modes: %v", jobs.modes)
	}
	if len(schedules.marked) != 2 {
		t.Fatalf("expected both schedules marked, got %v", schedules.marked)
	}
	for i, next := range schedules.nextRuns {
		if !next.After(time.Now().Add(-time.Minute)) {
			t.Fatalf("expected next run %d in the future, got %v", i, next)
		}
	}
}

func TestSchedulerTickSkipsOverlappingScope(t *testing.T) {
	t.Parallel()

	schedules := &fakeScheduleStore{due: []domain.ScheduleConfig{
		{ID: 1, Scope: domain.ScopeVehicles, Frequency: 6 * time.Hour},
	}}
	jobs := &fakeSchedulerJobs{overlap: map[domain.Scope]bool{domain.ScopeVehicles: true}}

	scheduler := app.NewScheduler(schedules, jobs, &app.SchedulerGate{})
	if err := scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if len(jobs.enqueued) != 0 {
		t.Fatalf("expected no job while an overlapping import is active, got %v", jobs.enqueued)
	}

	// The slot still advances so the skip is not retried every tick.
	if len(schedules.marked) != 1 || schedules.marked[0] != 1 {
		t.Fatalf("expected schedule 1 marked, got %v", schedules.marked)
	}
}

func TestSchedulerTickRespectsGate(t *testing.T) {
	t.Parallel()

	schedules := &fakeScheduleStore{due: []domain.ScheduleConfig{
		{ID: 1, Scope: domain.ScopeAll, Frequency: time.Hour},
	}}
	jobs := &fakeSchedulerJobs{}
	gate := &app.SchedulerGate{}
	gate.Pause()

	scheduler := app.NewScheduler(schedules, jobs, gate)
	if err := scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if len(jobs.enqueued) != 0 || len(schedules.marked) != 0 {
		t.Fatal("expected a closed gate to suppress the whole tick")
	}

	gate.Resume()
	if err := scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(jobs.enqueued) != 1 {
		t.Fatalf("expected job created after gate reopened, got %v", jobs.enqueued)
	}
}
