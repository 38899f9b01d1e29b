// Package domain contains GST tax types and the persisted calculation
// audit record.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TaxType follows the Indian GST jurisdiction split: buyer and seller in
// the same state pay CGST+SGST, otherwise IGST applies.
type TaxType string

const (
	TaxTypeIntraState TaxType = "intra_state"
	TaxTypeInterState TaxType = "inter_state"
)

// TaxCalculation is the audit row pairing one invoice with the
// jurisdiction logic applied to it. Written once, never mutated.
type TaxCalculation struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	InvoiceID snowflake.ID `gorm:"not null;uniqueIndex"`
	AccountID snowflake.ID `gorm:"not null;index"`

	SupplierState     string `gorm:"type:text;not null"`
	SupplierStateCode string `gorm:"type:text;not null"`
	CustomerState     string `gorm:"type:text;not null"`
	CustomerStateCode string `gorm:"type:text;not null"`

	TaxType       TaxType `gorm:"type:text;not null"`
	TaxableAmount int64   `gorm:"not null"`

	CGSTRate   float64 `gorm:"column:cgst_rate;type:numeric(5,2);not null"`
	SGSTRate   float64 `gorm:"column:sgst_rate;type:numeric(5,2);not null"`
	IGSTRate   float64 `gorm:"column:igst_rate;type:numeric(5,2);not null"`
	CGSTAmount int64   `gorm:"column:cgst_amount;not null"`
	SGSTAmount int64   `gorm:"column:sgst_amount;not null"`
	IGSTAmount int64   `gorm:"column:igst_amount;not null"`

	TotalTaxAmount int64   `gorm:"not null"`
	GSTRate        float64 `gorm:"column:gst_rate;type:numeric(5,2);not null"`
	HSNSACCode     string  `gorm:"column:hsn_sac_code;type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxCalculation) TableName() string { return "tax_calculations" }
