package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrInvoiceNotDraft  = errors.New("invoice_not_draft")
	ErrInvoiceCancelled = errors.New("invoice_cancelled")
)

// GenerateInvoiceRequest asks for one invoice covering the account's
// unbilled usage in [PeriodStart, PeriodEnd]. DueDate defaults to the
// configured due interval from generation time.
type GenerateInvoiceRequest struct {
	AccountID   snowflake.ID `json:"account_id"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
}

// GenerationResult is the structured outcome of one generation attempt.
// Callers check Success rather than an error value: an empty unbilled
// set and a storage fault both arrive here, distinguished only by the
// message.
type GenerationResult struct {
	Success        bool                      `json:"success"`
	Error          string                    `json:"error,omitempty"`
	Invoice        *Invoice                  `json:"invoice,omitempty"`
	LineItems      []InvoiceLineItem         `json:"line_items,omitempty"`
	TaxCalculation *taxdomain.TaxCalculation `json:"tax_calculation,omitempty"`
}

// Generator turns unbilled usage into draft invoices and walks them
// through the status lifecycle.
type Generator interface {
	GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) *GenerationResult

	// FinalizeInvoice moves a draft to issued.
	FinalizeInvoice(ctx context.Context, id snowflake.ID) (*Invoice, error)
	// MarkInvoiceAsPaid moves any non-cancelled invoice to paid and stamps
	// the payment time. Already-paid invoices come back unchanged.
	MarkInvoiceAsPaid(ctx context.Context, id snowflake.ID) (*Invoice, error)
	// MarkInvoiceAsOverdue moves an unpaid invoice past its due date to
	// overdue. Paid or not-yet-due invoices come back unchanged, never an
	// error.
	MarkInvoiceAsOverdue(ctx context.Context, id snowflake.ID) (*Invoice, error)

	GetInvoice(ctx context.Context, id snowflake.ID) (*Invoice, []InvoiceLineItem, error)

	// SweepOverdue marks every issued invoice past its due date as overdue
	// and reports how many changed.
	SweepOverdue(ctx context.Context) (int, error)
}
