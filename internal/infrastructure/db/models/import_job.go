package models

import "time"

type ImportJob struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	EntityScope      string `gorm:"type:text;not null"`
	Mode             string `gorm:"type:text;not null"`
	Status           string `gorm:"type:text;not null;index"`
	FromDate         *time.Time
	TotalItems       int64  `gorm:"not null;default:0"`
	ProcessedItems   int64  `gorm:"not null;default:0"`
	NewItems         int64  `gorm:"not null;default:0"`
	UpdatedItems     int64  `gorm:"not null;default:0"`
	DeactivatedItems int64  `gorm:"not null;default:0"`
	CurrentItem      string `gorm:"type:text;not null;default:''"`
	Errors           string `gorm:"type:jsonb;not null;default:'[]'"`
	ErrorCount       int64  `gorm:"not null;default:0"`
	Details          string `gorm:"type:jsonb;not null;default:'{}'"`
	StartedAt        *time.Time
	EndedAt          *time.Time
	HeartbeatAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
