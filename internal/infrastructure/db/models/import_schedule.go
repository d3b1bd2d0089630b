package models

import "time"

type ImportSchedule struct {
	ID          int64  `gorm:"primaryKey"`
	EntityScope string `gorm:"type:text;not null"`
	FrequencyS  int64  `gorm:"column:frequency_seconds;not null"`
	StartTime   string `gorm:"type:text;not null;default:'02:00'"`
	FullImport  bool   `gorm:"not null;default:false"`
	Active      bool   `gorm:"not null;default:true"`
	LastRun     *time.Time
	NextRun     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ImportSchedule) TableName() string {
	return "import_schedules"
}
