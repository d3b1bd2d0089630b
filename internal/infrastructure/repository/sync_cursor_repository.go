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

type SyncCursorRepository struct {
	db *gorm.DB
}

func NewSyncCursorRepository(db *gorm.DB) *SyncCursorRepository {
	return &SyncCursorRepository{db: db}
}

// Get returns the persisted watermark for an entity type, creating the zero
// cursor on first use.
func (r *SyncCursorRepository) Get(ctx context.Context, entityType domain.EntityType) (domain.SyncCursor, error) {
	var row models.SyncCursor
	err := r.db.WithContext(ctx).First(&row, "entity_type = ?", string(entityType)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.SyncCursor{EntityType: string(entityType), Active: true}
			if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
				return domain.SyncCursor{}, fmt.Errorf("create sync cursor: %w", err)
			}
		} else {
			return domain.SyncCursor{}, fmt.Errorf("get sync cursor: %w", err)
		}
	}
	return toDomainCursor(row), nil
}

func (r *SyncCursorRepository) List(ctx context.Context) ([]domain.SyncCursor, error) {
	var rows []models.SyncCursor
	if err := r.db.WithContext(ctx).Order("entity_type ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sync cursors: %w", err)
	}

	cursors := make([]domain.SyncCursor, 0, len(rows))
	for _, row := range rows {
		cursors = append(cursors, toDomainCursor(row))
	}
	return cursors, nil
}

// saveCursor upserts the watermark row. It runs inside the page-commit
// transaction so the cursor and the job counters land together.
func saveCursor(tx *gorm.DB, cursor domain.SyncCursor) error {
	var lastSyncDate *time.Time
	if !cursor.LastSyncDate.IsZero() {
		d := cursor.LastSyncDate
		lastSyncDate = &d
	}

	res := tx.Model(&models.SyncCursor{}).
		Where("entity_type = ?", string(cursor.EntityType)).
		Updates(map[string]any{
			"last_sync_date":    lastSyncDate,
			"last_external_id":  cursor.LastExternalID,
			"records_processed": cursor.RecordsProcessed,
			"active":            cursor.Active,
		})
	if res.Error != nil {
		return fmt.Errorf("save sync cursor: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		row := models.SyncCursor{
			EntityType:       string(cursor.EntityType),
			LastSyncDate:     lastSyncDate,
			LastExternalID:   cursor.LastExternalID,
			RecordsProcessed: cursor.RecordsProcessed,
			Active:           cursor.Active,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create sync cursor: %w", err)
		}
	}
	return nil
}

func toDomainCursor(row models.SyncCursor) domain.SyncCursor {
	cursor := domain.SyncCursor{
		EntityType:       domain.EntityType(row.EntityType),
		LastExternalID:   row.LastExternalID,
		RecordsProcessed: row.RecordsProcessed,
		Active:           row.Active,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.LastSyncDate != nil {
		cursor.LastSyncDate = *row.LastSyncDate
	}
	return cursor
}
