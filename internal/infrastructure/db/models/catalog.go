package models

import "time"

// Vehicle and Part carry only the columns the sync engine owns. The
// storefront schema around them (relations, pricing rules, SEO fields) is
// managed elsewhere; the engine upserts by external id and soft-deletes.
type Vehicle struct {
	ID          int64  `gorm:"primaryKey"`
	ExternalID  int64  `gorm:"not null;uniqueIndex"`
	Brand       string `gorm:"size:255;not null"`
	Model       string `gorm:"size:255;not null"`
	Version     string `gorm:"size:255;not null;default:''"`
	Year        int     `gorm:"not null;default:0"`
	Description string  `gorm:"type:text;not null;default:''"`
	Price       float64 `gorm:"not null;default:0"`
	ImageCount  int     `gorm:"not null;default:0"`
	ContentHash string `gorm:"size:64;not null"`
	Active      bool   `gorm:"not null;default:true;index"`
	LastSeenAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Vehicle) TableName() string {
	return "vehicles"
}

type Part struct {
	ID          int64   `gorm:"primaryKey"`
	ExternalID  int64   `gorm:"not null;uniqueIndex"`
	Description string  `gorm:"type:text;not null"`
	Brand       string  `gorm:"size:255;not null;default:''"`
	Model       string  `gorm:"size:255;not null;default:''"`
	Version     string  `gorm:"size:255;not null;default:''"`
	Year        int     `gorm:"not null;default:0"`
	Price       float64 `gorm:"not null;default:0"`
	ImageCount  int     `gorm:"not null;default:0"`
	ContentHash string  `gorm:"size:64;not null"`
	Active      bool    `gorm:"not null;default:true;index"`
	LastSeenAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Part) TableName() string {
	return "parts"
}
