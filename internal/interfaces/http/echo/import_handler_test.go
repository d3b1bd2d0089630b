package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	httpecho "github.com/desguapro/catalog-sync/internal/interfaces/http/echo"
	"github.com/labstack/echo/v4"
)

type fakeImportControl struct {
	startOut  app.StartImportOutput
	startErr  error
	cmdErr    error
	job       *domain.ImportJob
	jobErr    error
	bulkIDs   []string
	commands  []string
	statuses  []app.EntityStatus
	statusErr error
}

func (f *fakeImportControl) Start(ctx context.Context, in app.StartImportInput) (app.StartImportOutput, error) {
	if f.startErr != nil {
		return app.StartImportOutput{}, f.startErr
	}
	return f.startOut, nil
}

func (f *fakeImportControl) Pause(ctx context.Context, jobID string) error {
	f.commands = append(f.commands, "pause "+jobID)
	return f.cmdErr
}

func (f *fakeImportControl) Resume(ctx context.Context, jobID string) error {
	f.commands = append(f.commands, "resume "+jobID)
	return f.cmdErr
}

func (f *fakeImportControl) Cancel(ctx context.Context, jobID string) error {
	f.commands = append(f.commands, "cancel "+jobID)
	return f.cmdErr
}

func (f *fakeImportControl) PauseAll(ctx context.Context) ([]string, error) {
	return f.bulkIDs, f.cmdErr
}

func (f *fakeImportControl) ResumeAll(ctx context.Context) ([]string, error) {
	return f.bulkIDs, f.cmdErr
}

func (f *fakeImportControl) CancelAll(ctx context.Context) ([]string, error) {
	return f.bulkIDs, f.cmdErr
}

func (f *fakeImportControl) Delete(ctx context.Context, jobID string) error {
	f.commands = append(f.commands, "delete "+jobID)
	return f.cmdErr
}

func (f *fakeImportControl) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	return f.job, nil
}

func (f *fakeImportControl) History(ctx context.Context) ([]domain.ImportJob, error) {
	if f.job == nil {
		return nil, nil
	}
	return []domain.ImportJob{*f.job}, nil
}

func (f *fakeImportControl) SyncStatus(ctx context.Context) ([]app.EntityStatus, error) {
	return f.statuses, f.statusErr
}

type fakeSweeper struct {
	actions []app.SweepAction
	force   bool
}

func (f *fakeSweeper) Sweep(ctx context.Context, force bool) ([]app.SweepAction, error) {
	f.force = force
	return f.actions, nil
}

func newTestServer(imports *fakeImportControl, sweeper *fakeSweeper) *echo.Echo {
	e := echo.New()
	importHandler := httpecho.NewImportHandler(imports, sweeper)
	scheduleHandler := httpecho.NewScheduleHandler(&fakeScheduleControl{})
	httpecho.RegisterRoutes(e, importHandler, scheduleHandler)
	return e
}

func doJSON(e *echo.Echo, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	return got
}

func TestStartImportAccepted(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{startOut: app.StartImportOutput{
		JobID:  "job-1",
		Status: "pending",
	}}, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/vehicles", []byte(`{"full_import":true}`))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok || data["job_id"] != "job-1" {
		t.Fatalf("unexpected data payload: %s", rec.Body.String())
	}
}

func TestStartImportBadFromDate(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{}, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/vehicles", []byte(`{"from_date":"01-06-2025"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStartImportInvalidType(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{startErr: app.ErrInvalidImportType}, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/motorbikes", []byte(`{}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStartImportOverlapConflict(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{startErr: domain.ErrImportOverlap}, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/vehicles", []byte(`{}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGetImportNotFound(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{jobErr: domain.ErrJobNotFound}, &fakeSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetImportProgress(t *testing.T) {
	t.Parallel()

	imports := &fakeImportControl{job: &domain.ImportJob{
		ID:             "job-1",
		Scope:          domain.ScopeVehicles,
		Mode:           domain.ModeIncremental,
		Status:         domain.StatusRunning,
		TotalItems:     200,
		ProcessedItems: 50,
		NewItems:       40,
		UpdatedItems:   10,
	}}
	e := newTestServer(imports, &fakeSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/job-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	if data["progress"] != float64(25) {
		t.Fatalf("expected progress 25, got %v", data["progress"])
	}
	if data["errors"] == nil {
		t.Fatal("expected errors to serialize as an empty list, not null")
	}
}

func TestPauseImportConflict(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{cmdErr: domain.ErrJobConflict}, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/job-1/pause", nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestResumeImport(t *testing.T) {
	t.Parallel()

	imports := &fakeImportControl{}
	e := newTestServer(imports, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/job-1/resume", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(imports.commands) != 1 || imports.commands[0] != "resume job-1" {
		t.Fatalf("unexpected commands: %v", imports.commands)
	}
}

func TestPauseAll(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{bulkIDs: []string{"a", "b"}}, &fakeSweeper{})

	rec := doJSON(e, http.MethodPost, "/api/v1/import/pause-all", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	ids, ok := data["job_ids"].([]any)
	if !ok || len(ids) != 2 {
		t.Fatalf("unexpected job ids: %v", data["job_ids"])
	}
}

func TestRecoveryForwardsForceFlag(t *testing.T) {
	t.Parallel()

	sweeper := &fakeSweeper{actions: []app.SweepAction{
		{JobID: "stuck-1", Action: "finalized", Status: "partial"},
	}}
	e := newTestServer(&fakeImportControl{}, sweeper)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/recovery?force=true", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !sweeper.force {
		t.Fatal("expected force flag forwarded to the sweeper")
	}
	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok || data["count"] != float64(1) {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestSyncStatusInternalError(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeImportControl{statusErr: errors.New("boom")}, &fakeSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/sync-status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
