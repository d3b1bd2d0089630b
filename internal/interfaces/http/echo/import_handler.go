package echo

import (
	"context"
	"errors"
	"net/http"
	"time"

	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	"github.com/labstack/echo/v4"
)

type importControl interface {
	Start(ctx context.Context, in app.StartImportInput) (app.StartImportOutput, error)
	Pause(ctx context.Context, jobID string) error
	Resume(ctx context.Context, jobID string) error
	Cancel(ctx context.Context, jobID string) error
	PauseAll(ctx context.Context) ([]string, error)
	ResumeAll(ctx context.Context) ([]string, error)
	CancelAll(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
	History(ctx context.Context) ([]domain.ImportJob, error)
	SyncStatus(ctx context.Context) ([]app.EntityStatus, error)
}

type recoverySweeper interface {
	Sweep(ctx context.Context, force bool) ([]app.SweepAction, error)
}

type ImportHandler struct {
	imports importControl
	sweeper recoverySweeper
}

func NewImportHandler(imports importControl, sweeper recoverySweeper) *ImportHandler {
	return &ImportHandler{imports: imports, sweeper: sweeper}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type startImportRequest struct {
	FullImport bool   `json:"full_import"`
	FromDate   string `json:"from_date"`
}

func (h *ImportHandler) StartImport(c echo.Context) error {
	var req startImportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "bad_request", "invalid request body")
	}

	in := app.StartImportInput{
		Type:       c.Param("type"),
		FullImport: req.FullImport,
	}
	if req.FromDate != "" {
		fromDate, err := time.Parse("2006-01-02", req.FromDate)
		if err != nil {
			return badRequest(c, "invalid_from_date", "from_date must be YYYY-MM-DD")
		}
		in.FromDate = &fromDate
	}

	out, err := h.imports.Start(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) GetImport(c echo.Context) error {
	job, err := h.imports.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toJobSummary(*job)})
}

func (h *ImportHandler) History(c echo.Context) error {
	jobs, err := h.imports.History(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	summaries := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, toJobSummary(job))
	}
	return c.JSON(http.StatusOK, apiResponse{Data: summaries})
}

func (h *ImportHandler) PauseImport(c echo.Context) error {
	return h.command(c, h.imports.Pause, "paused")
}

func (h *ImportHandler) ResumeImport(c echo.Context) error {
	return h.command(c, h.imports.Resume, "resumed")
}

func (h *ImportHandler) CancelImport(c echo.Context) error {
	return h.command(c, h.imports.Cancel, "cancelled")
}

func (h *ImportHandler) command(c echo.Context, action func(context.Context, string) error, result string) error {
	if err := action(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{
		"job_id": c.Param("id"),
		"result": result,
	}})
}

func (h *ImportHandler) PauseAll(c echo.Context) error {
	return h.bulkCommand(c, h.imports.PauseAll, "paused")
}

func (h *ImportHandler) ResumeAll(c echo.Context) error {
	return h.bulkCommand(c, h.imports.ResumeAll, "resumed")
}

func (h *ImportHandler) CancelAll(c echo.Context) error {
	return h.bulkCommand(c, h.imports.CancelAll, "cancelled")
}

func (h *ImportHandler) bulkCommand(c echo.Context, action func(context.Context) ([]string, error), result string) error {
	ids, err := action(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]any{
		"job_ids": ids,
		"result":  result,
	}})
}

func (h *ImportHandler) DeleteImport(c echo.Context) error {
	if err := h.imports.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{
		"job_id": c.Param("id"),
		"result": "deleted",
	}})
}

func (h *ImportHandler) SyncStatus(c echo.Context) error {
	statuses, err := h.imports.SyncStatus(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: statuses})
}

func (h *ImportHandler) Recovery(c echo.Context) error {
	force := c.QueryParam("force") == "true"
	actions, err := h.sweeper.Sweep(c.Request().Context(), force)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]any{
		"acted_on": actions,
		"count":    len(actions),
	}})
}

type jobSummary struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Mode             string            `json:"mode"`
	Status           string            `json:"status"`
	TotalItems       int64             `json:"total_items"`
	ProcessedItems   int64             `json:"processed_items"`
	NewItems         int64             `json:"new_items"`
	UpdatedItems     int64             `json:"updated_items"`
	DeactivatedItems int64             `json:"deactivated_items"`
	Progress         int               `json:"progress"`
	CurrentItem      string            `json:"current_item"`
	ErrorCount       int64             `json:"error_count"`
	Errors           []domain.JobError `json:"errors"`
	Details          domain.JobDetails `json:"details"`
	StartTime        *time.Time        `json:"start_time,omitempty"`
	EndTime          *time.Time        `json:"end_time,omitempty"`
}

func toJobSummary(job domain.ImportJob) jobSummary {
	summary := jobSummary{
		ID:               job.ID,
		Type:             string(job.Scope),
		Mode:             string(job.Mode),
		Status:           string(job.Status),
		TotalItems:       job.TotalItems,
		ProcessedItems:   job.ProcessedItems,
		NewItems:         job.NewItems,
		UpdatedItems:     job.UpdatedItems,
		DeactivatedItems: job.DeactivatedItems,
		CurrentItem:      job.CurrentItem,
		ErrorCount:       job.ErrorCount,
		Errors:           job.Errors,
		Details:          job.Details,
		StartTime:        job.StartedAt,
		EndTime:          job.EndedAt,
	}
	if summary.Errors == nil {
		summary.Errors = []domain.JobError{}
	}
	if job.TotalItems > 0 {
		summary.Progress = int(job.ProcessedItems * 100 / job.TotalItems)
		if summary.Progress > 100 {
			summary.Progress = 100
		}
	}
	return summary
}

func badRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{Code: code, Message: message}})
}

func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "not_found",
			Message: err.Error(),
		}})
	case errors.Is(err, domain.ErrJobConflict), errors.Is(err, domain.ErrImportOverlap):
		return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
			Code:    "conflict",
			Message: err.Error(),
		}})
	case errors.Is(err, app.ErrInvalidImportType), errors.Is(err, app.ErrInvalidFromDate),
		errors.Is(err, app.ErrInvalidSchedule):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: err.Error(),
		}})
	}
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: "internal error",
	}})
}
