// Package domain contains the invoice persistence models and the
// generator contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/shopspring/decimal"
)

// InvoiceStatus lifecycle: draft → issued → paid, or issued → overdue →
// paid. A paid invoice never becomes overdue.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusIssued    InvoiceStatus = "issued"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// CurrencyINR is the only billing currency.
const CurrencyINR = "INR"

// Invoice is one billing-period statement. All amounts are integer
// paise. Exactly one of the CGST+SGST pair or IGST is nonzero, per the
// jurisdiction split, and the total is always
// subtotal + cgst + sgst + igst - discount.
type Invoice struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	InvoiceNumber    string       `gorm:"type:text;not null;uniqueIndex"`
	AccountID        snowflake.ID `gorm:"not null;index"`
	BillingAddressID snowflake.ID `gorm:"not null"`

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	SubtotalAmount int64 `gorm:"not null"`
	CGSTAmount     int64 `gorm:"column:cgst_amount;not null;default:0"`
	SGSTAmount     int64 `gorm:"column:sgst_amount;not null;default:0"`
	IGSTAmount     int64 `gorm:"column:igst_amount;not null;default:0"`
	DiscountAmount int64 `gorm:"not null;default:0"`
	TotalAmount    int64 `gorm:"not null"`

	TaxType       taxdomain.TaxType `gorm:"type:text;not null"`
	GSTRate       float64           `gorm:"column:gst_rate;type:numeric(5,2);not null;default:18"`
	HSNCode       string            `gorm:"column:hsn_code;type:text;not null"`
	SACCode       string            `gorm:"column:sac_code;type:text;not null"`
	PlaceOfSupply string            `gorm:"type:text;not null"`

	Status   InvoiceStatus `gorm:"type:text;not null;default:'draft';index"`
	DueDate  time.Time     `gorm:"not null"`
	PaidAt   *time.Time    `gorm:""`
	Currency string        `gorm:"type:text;not null;default:'INR'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceLineItem is one aggregated charge row, grouped by resource
// category. Quantity and Amount are rounded independently from the
// higher-precision group sums, so amount == quantity × unit price need
// not hold; Σ line amounts == invoice subtotal always does.
type InvoiceLineItem struct {
	ID        snowflake.ID                 `gorm:"primaryKey"`
	InvoiceID snowflake.ID                 `gorm:"not null;index"`
	Category  usagedomain.ResourceCategory `gorm:"type:text;not null"`

	// ResourceID is the first contributing resource, representative only.
	ResourceID  string          `gorm:"type:text"`
	Description string          `gorm:"type:text;not null"`
	Quantity    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Unit        string          `gorm:"type:text;not null"`
	UnitPrice   int64           `gorm:"not null"`
	Amount      int64           `gorm:"not null"`

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceLineItem) TableName() string { return "invoice_line_items" }

// InvoiceSequence backs the per-year monotonic invoice number.
type InvoiceSequence struct {
	Year    int   `gorm:"primaryKey"`
	LastSeq int64 `gorm:"not null;default:0"`
}

func (InvoiceSequence) TableName() string { return "invoice_sequences" }
