package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	"gorm.io/gorm"
)

// Repository persists invoices and their satellites. The tx-taking
// methods participate in the caller's transaction so the invoice, its
// line items, the tax audit row and the billed stamps commit together.
type Repository interface {
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	ListLineItems(ctx context.Context, invoiceID snowflake.ID) ([]InvoiceLineItem, error)
	ListIssuedPastDue(ctx context.Context, now time.Time) ([]Invoice, error)

	// NextInvoiceNumber increments the per-year sequence atomically and
	// returns the formatted number.
	NextInvoiceNumber(ctx context.Context, tx *gorm.DB, year int) (string, error)
	CreateInvoice(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	CreateLineItems(ctx context.Context, tx *gorm.DB, items []InvoiceLineItem) error
	CreateTaxCalculation(ctx context.Context, tx *gorm.DB, calc *taxdomain.TaxCalculation) error

	Save(ctx context.Context, invoice *Invoice) error
}
