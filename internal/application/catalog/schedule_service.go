package catalog

import (
	"context"
	"fmt"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

type scheduleCRUDStore interface {
	Create(ctx context.Context, schedule domain.ScheduleConfig) (domain.ScheduleConfig, error)
	Update(ctx context.Context, schedule domain.ScheduleConfig) (domain.ScheduleConfig, error)
	Get(ctx context.Context, id int64) (domain.ScheduleConfig, error)
	List(ctx context.Context) ([]domain.ScheduleConfig, error)
}

type ScheduleService struct {
	schedules scheduleCRUDStore
	now       func() time.Time
}

func NewScheduleService(schedules scheduleCRUDStore) *ScheduleService {
	return &ScheduleService{schedules: schedules, now: time.Now}
}

type ScheduleInput struct {
	Type       string
	Frequency  time.Duration
	StartTime  string
	FullImport bool
	Active     bool
}

func (s *ScheduleService) buildConfig(id int64, in ScheduleInput) (domain.ScheduleConfig, error) {
	scope, err := domain.ParseScope(in.Type)
	if err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	schedule := domain.ScheduleConfig{
		ID:         id,
		Scope:      scope,
		Frequency:  in.Frequency,
		StartTime:  in.StartTime,
		FullImport: in.FullImport,
		Active:     in.Active,
	}
	if err := schedule.Validate(); err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	if schedule.Active {
		next := schedule.NextAfter(s.now().UTC())
		schedule.NextRun = &next
	}
	return schedule, nil
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (domain.ScheduleConfig, error) {
	schedule, err := s.buildConfig(0, in)
	if err != nil {
		return domain.ScheduleConfig{}, err
	}
	return s.schedules.Create(ctx, schedule)
}

func (s *ScheduleService) Update(ctx context.Context, id int64, in ScheduleInput) (domain.ScheduleConfig, error) {
	if _, err := s.schedules.Get(ctx, id); err != nil {
		return domain.ScheduleConfig{}, err
	}

	schedule, err := s.buildConfig(id, in)
	if err != nil {
		return domain.ScheduleConfig{}, err
	}
	return s.schedules.Update(ctx, schedule)
}

func (s *ScheduleService) List(ctx context.Context) ([]domain.ScheduleConfig, error) {
	return s.schedules.List(ctx)
}
