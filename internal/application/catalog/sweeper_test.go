package catalog_test

import (
	"context"
	"testing"
	"time"

	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type fakeSweeperJobs struct {
	stale       []domain.ImportJob
	gotCutoff   time.Time
	transitions []transitionCall
	finalized   map[string]domain.Status
}

func (f *fakeSweeperJobs) ListStale(ctx context.Context, cutoff time.Time) ([]domain.ImportJob, error) {
	f.gotCutoff = cutoff
	return f.stale, nil
}

func (f *fakeSweeperJobs) Transition(ctx context.Context, jobID string, from []domain.Status, to domain.Status) error {
	f.transitions = append(f.transitions, transitionCall{jobID: jobID, from: from, to: to})
	return nil
}

func (f *fakeSweeperJobs) Finalize(ctx context.Context, job *domain.ImportJob, status domain.Status) error {
	if f.finalized == nil {
		f.finalized = make(map[string]domain.Status)
	}
	f.finalized[job.ID] = status
	return nil
}

func TestSweeperRearmsStuckJobWithProgress(t *testing.T) {
	t.Parallel()

	jobs := &fakeSweeperJobs{stale: []domain.ImportJob{
		{ID: "stuck-1", Status: domain.StatusRunning, ProcessedItems: 120},
	}}

	sweeper := app.NewSweeper(jobs, 30*time.Minute)
	actions, err := sweeper.Sweep(context.Background(), false)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(actions) != 1 || actions[0].Action != "rearmed" || actions[0].Status != "pending" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
	if len(jobs.transitions) != 1 || jobs.transitions[0].to != domain.StatusPending {
		t.Fatalf("expected re-arm to pending, got %+v", jobs.transitions)
	}
	if len(jobs.finalized) != 0 {
		t.Fatalf("expected no finalize, got %v", jobs.finalized)
	}

	wantCutoff := time.Now().UTC().Add(-30 * time.Minute)
	if jobs.gotCutoff.Before(wantCutoff.Add(-time.Minute)) || jobs.gotCutoff.After(wantCutoff.Add(time.Minute)) {
		t.Fatalf("unexpected cutoff: %v", jobs.gotCutoff)
	}
}

func TestSweeperForceFinalizesWithProgress(t *testing.T) {
	t.Parallel()

	jobs := &fakeSweeperJobs{stale: []domain.ImportJob{
		{ID: "stuck-1", Status: domain.StatusRunning, ProcessedItems: 120},
	}}

	sweeper := app.NewSweeper(jobs, 30*time.Minute)
	actions, err := sweeper.Sweep(context.Background(), true)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(actions) != 1 || actions[0].Action != "finalized" || actions[0].Status != "partial" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
	if jobs.finalized["stuck-1"] != domain.StatusPartial {
		t.Fatalf("expected partial finalize, got %v", jobs.finalized)
	}
}

func TestSweeperFailsJobWithoutProgress(t *testing.T) {
	t.Parallel()

	jobs := &fakeSweeperJobs{stale: []domain.ImportJob{
		{ID: "stuck-1", Status: domain.StatusRunning},
	}}

	sweeper := app.NewSweeper(jobs, 30*time.Minute)
	actions, err := sweeper.Sweep(context.Background(), false)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(actions) != 1 || actions[0].Status != "failed" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
	if jobs.finalized["stuck-1"] != domain.StatusFailed {
		t.Fatalf("expected failed finalize, got %v", jobs.finalized)
	}
}

func TestSweeperNoStaleJobs(t *testing.T) {
	t.Parallel()

	sweeper := app.NewSweeper(&fakeSweeperJobs{}, time.Hour)
	actions, err := sweeper.Sweep(context.Background(), false)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %+v", actions)
	}
}
