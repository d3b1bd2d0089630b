package models

import "time"

type SyncCursor struct {
	ID               int64  `gorm:"primaryKey"`
	EntityType       string `gorm:"type:text;not null;uniqueIndex"`
	LastSyncDate     *time.Time
	LastExternalID   int64 `gorm:"not null;default:0"`
	RecordsProcessed int64 `gorm:"not null;default:0"`
	Active           bool  `gorm:"not null;default:true"`
	UpdatedAt        time.Time
}

func (SyncCursor) TableName() string {
	return "sync_control"
}
