// Package domain contains persistence models for metered usage.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ResourceCategory identifies the metered resource kind.
type ResourceCategory string

const (
	CategoryCompute       ResourceCategory = "compute"
	CategoryBlockStorage  ResourceCategory = "block_storage"
	CategoryObjectStorage ResourceCategory = "object_storage"
	CategoryBandwidth     ResourceCategory = "bandwidth"
	CategoryKubernetes    ResourceCategory = "kubernetes"
	CategoryDatabase      ResourceCategory = "database"
)

// Categories lists the metered categories in pricing-table order.
var Categories = []ResourceCategory{
	CategoryCompute,
	CategoryBlockStorage,
	CategoryObjectStorage,
	CategoryBandwidth,
	CategoryKubernetes,
	CategoryDatabase,
}

// UsageRecord is one metered consumption event. Records are append-only:
// the only mutation ever applied is the billed stamp set by invoice
// generation.
//
// TotalCost carries fractional paise (quantity × unit price, unrounded)
// so that low-volume resources are not rounded to zero on every sample;
// rounding happens once, at line-item aggregation.
type UsageRecord struct {
	ID           snowflake.ID      `gorm:"primaryKey"`
	AccountID    snowflake.ID      `gorm:"not null;index"`
	Category     ResourceCategory  `gorm:"type:text;not null;index"`
	ResourceID   string            `gorm:"type:text;not null"`
	ResourceName string            `gorm:"type:text"`
	MetricKind   string            `gorm:"type:text;not null"`
	Quantity     decimal.Decimal   `gorm:"type:numeric(20,6);not null"`
	Unit         string            `gorm:"type:text;not null"`
	UnitPrice    int64             `gorm:"not null"`
	TotalCost    decimal.Decimal   `gorm:"type:numeric(20,6);not null"`
	PeriodStart  time.Time         `gorm:"not null"`
	PeriodEnd    time.Time         `gorm:"not null;index"`
	InvoiceID    *snowflake.ID     `gorm:"index"`
	Billed       bool              `gorm:"not null;default:false;index"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UsageRecord) TableName() string { return "usage_records" }
