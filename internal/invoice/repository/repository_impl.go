package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	"github.com/cloudkhata/cloudkhata/pkg/repository"
	"gorm.io/gorm"
)

type invoiceRepo struct {
	db       *gorm.DB
	invoices repository.Repository[invoicedomain.Invoice]
	lines    repository.Repository[invoicedomain.InvoiceLineItem]
}

func NewRepository(db *gorm.DB) invoicedomain.Repository {
	return &invoiceRepo{
		db:       db,
		invoices: repository.ProvideStore[invoicedomain.Invoice](db),
		lines:    repository.ProvideStore[invoicedomain.InvoiceLineItem](db),
	}
}

func (r *invoiceRepo) Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	return r.invoices.FindOne(ctx, &invoicedomain.Invoice{ID: id})
}

func (r *invoiceRepo) ListLineItems(ctx context.Context, invoiceID snowflake.ID) ([]invoicedomain.InvoiceLineItem, error) {
	var items []invoicedomain.InvoiceLineItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *invoiceRepo) ListIssuedPastDue(ctx context.Context, now time.Time) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", invoicedomain.StatusIssued, now).
		Order("due_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// NextInvoiceNumber bumps the per-year sequence with an upsert and reads
// the new value back in the same statement, so two concurrent
// generations can never draw the same number.
func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	if tx == nil {
		tx = r.db
	}
	var seq int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO invoice_sequences (year, last_seq) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = invoice_sequences.last_seq + 1
		RETURNING last_seq`, year,
	).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%06d", year, seq), nil
}

func (r *invoiceRepo) CreateInvoice(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepo) CreateLineItems(ctx context.Context, tx *gorm.DB, items []invoicedomain.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *invoiceRepo) CreateTaxCalculation(ctx context.Context, tx *gorm.DB, calc *taxdomain.TaxCalculation) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(calc).Error
}

func (r *invoiceRepo) Save(ctx context.Context, invoice *invoicedomain.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}
