// Package domain contains the HSN/SAC fiscal classification reference
// table.
package domain

import (
	"context"
	"time"
)

// Default classification applied when a service category has no active
// HSN entry. 998314 is "information technology design and development
// services" which covers generic cloud computing.
const (
	DefaultHSNCode = "998314"
	DefaultSACCode = "998314"
	DefaultGSTRate = 18.0
)

// HSNCode maps a service category to its HSN and SAC codes and GST rate.
type HSNCode struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	ServiceCategory string    `gorm:"type:text;not null;uniqueIndex"`
	HSNCode         string    `gorm:"column:hsn_code;type:text;not null"`
	SACCode         string    `gorm:"column:sac_code;type:text;not null"`
	GSTRate         float64   `gorm:"column:gst_rate;not null;default:18"`
	Description     string    `gorm:"type:text"`
	IsActive        bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (HSNCode) TableName() string { return "hsn_codes" }

type Repository interface {
	// ActiveByCategory returns nil without error when no active entry
	// matches; callers fall back to the default code.
	ActiveByCategory(ctx context.Context, serviceCategory string) (*HSNCode, error)
	List(ctx context.Context) ([]HSNCode, error)
}
