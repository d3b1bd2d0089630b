package echo

import (
	"context"
	"net/http"
	"strconv"
	"time"

	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	"github.com/labstack/echo/v4"
)

type scheduleControl interface {
	Create(ctx context.Context, in app.ScheduleInput) (domain.ScheduleConfig, error)
	Update(ctx context.Context, id int64, in app.ScheduleInput) (domain.ScheduleConfig, error)
	List(ctx context.Context) ([]domain.ScheduleConfig, error)
}

type ScheduleHandler struct {
	schedules scheduleControl
}

func NewScheduleHandler(schedules scheduleControl) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

type scheduleRequest struct {
	Type       string `json:"type"`
	Frequency  string `json:"frequency"`
	StartTime  string `json:"start_time"`
	FullImport bool   `json:"full_import"`
	Active     bool   `json:"active"`
}

type scheduleResponse struct {
	ID         int64      `json:"id"`
	Type       string     `json:"type"`
	Frequency  string     `json:"frequency"`
	StartTime  string     `json:"start_time"`
	FullImport bool       `json:"full_import"`
	Active     bool       `json:"active"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
}

func (h *ScheduleHandler) CreateSchedule(c echo.Context) error {
	in, ok := h.bindSchedule(c)
	if !ok {
		return nil
	}

	schedule, err := h.schedules.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, apiResponse{Data: toScheduleResponse(schedule)})
}

func (h *ScheduleHandler) UpdateSchedule(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = badRequest(c, "bad_request", "invalid schedule id")
		return nil
	}

	in, ok := h.bindSchedule(c)
	if !ok {
		return nil
	}

	schedule, err := h.schedules.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toScheduleResponse(schedule)})
}

func (h *ScheduleHandler) ListSchedules(c echo.Context) error {
	schedules, err := h.schedules.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	out := make([]scheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleResponse(schedule))
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ScheduleHandler) bindSchedule(c echo.Context) (app.ScheduleInput, bool) {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		_ = badRequest(c, "bad_request", "invalid request body")
		return app.ScheduleInput{}, false
	}

	frequency, err := time.ParseDuration(req.Frequency)
	if err != nil {
		_ = badRequest(c, "invalid_frequency", "frequency must be a duration like 6h or 24h")
		return app.ScheduleInput{}, false
	}

	return app.ScheduleInput{
		Type:       req.Type,
		Frequency:  frequency,
		StartTime:  req.StartTime,
		FullImport: req.FullImport,
		Active:     req.Active,
	}, true
}

func toScheduleResponse(schedule domain.ScheduleConfig) scheduleResponse {
	return scheduleResponse{
		ID:         schedule.ID,
		Type:       string(schedule.Scope),
		Frequency:  schedule.Frequency.String(),
		StartTime:  schedule.StartTime,
		FullImport: schedule.FullImport,
		Active:     schedule.Active,
		LastRun:    schedule.LastRun,
		NextRun:    schedule.NextRun,
	}
}
