package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	"github.com/desguapro/catalog-sync/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule domain.ScheduleConfig) (domain.ScheduleConfig, error) {
	row := toScheduleRow(schedule)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("create schedule: %w", err)
	}
	return toDomainSchedule(row), nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule domain.ScheduleConfig) (domain.ScheduleConfig, error) {
	row := toScheduleRow(schedule)
	res := r.db.WithContext(ctx).Model(&models.ImportSchedule{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]any{
			"entity_scope":      row.EntityScope,
			"frequency_seconds": row.FrequencyS,
			"start_time":        row.StartTime,
			"full_import":       row.FullImport,
			"active":            row.Active,
			"next_run":          row.NextRun,
		})
	if res.Error != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("update schedule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ScheduleConfig{}, domain.ErrScheduleNotFound
	}
	return r.Get(ctx, schedule.ID)
}

func (r *ScheduleRepository) Get(ctx context.Context, id int64) (domain.ScheduleConfig, error) {
	var row models.ImportSchedule
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ScheduleConfig{}, domain.ErrScheduleNotFound
		}
		return domain.ScheduleConfig{}, fmt.Errorf("get schedule: %w", err)
	}
	return toDomainSchedule(row), nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]domain.ScheduleConfig, error) {
	var rows []models.ImportSchedule
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	schedules := make([]domain.ScheduleConfig, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, toDomainSchedule(row))
	}
	return schedules, nil
}

// ListDue returns active schedules whose next_run has passed. A schedule
// that never ran (next_run NULL) is due immediately.
func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]domain.ScheduleConfig, error) {
	var rows []models.ImportSchedule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("next_run IS NULL OR next_run <= ?", now).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}

	schedules := make([]domain.ScheduleConfig, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, toDomainSchedule(row))
	}
	return schedules, nil
}

func (r *ScheduleRepository) MarkRun(ctx context.Context, id int64, lastRun, nextRun time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.ImportSchedule{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_run": lastRun, "next_run": nextRun})
	if res.Error != nil {
		return fmt.Errorf("mark schedule run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func toScheduleRow(schedule domain.ScheduleConfig) models.ImportSchedule {
	return models.ImportSchedule{
		ID:          schedule.ID,
		EntityScope: string(schedule.Scope),
		FrequencyS:  int64(schedule.Frequency / time.Second),
		StartTime:   schedule.StartTime,
		FullImport:  schedule.FullImport,
		Active:      schedule.Active,
		LastRun:     schedule.LastRun,
		NextRun:     schedule.NextRun,
	}
}

func toDomainSchedule(row models.ImportSchedule) domain.ScheduleConfig {
	return domain.ScheduleConfig{
		ID:         row.ID,
		Scope:      domain.Scope(row.EntityScope),
		Frequency:  time.Duration(row.FrequencyS) * time.Second,
		StartTime:  row.StartTime,
		FullImport: row.FullImport,
		Active:     row.Active,
		LastRun:    row.LastRun,
		NextRun:    row.NextRun,
	}
}
