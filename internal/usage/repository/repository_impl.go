package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/cloudkhata/cloudkhata/pkg/db/option"
	"github.com/cloudkhata/cloudkhata/pkg/repository"
	"gorm.io/gorm"
)

type usageRepo struct {
	db      *gorm.DB
	records repository.Repository[usagedomain.UsageRecord]
}

func NewRepository(db *gorm.DB) usagedomain.Repository {
	return &usageRepo{
		db:      db,
		records: repository.ProvideStore[usagedomain.UsageRecord](db),
	}
}

func (r *usageRepo) Create(ctx context.Context, record *usagedomain.UsageRecord) error {
	return r.records.Create(ctx, record)
}

// ListUnbilled selects the records eligible for invoicing. The billed
// predicate here is what keeps already-invoiced records from ever being
// selected again.
func (r *usageRepo) ListUnbilled(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time) ([]usagedomain.UsageRecord, error) {
	var records []usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND billed = ? AND invoice_id IS NULL", accountID, false).
		Where("period_start >= ? AND period_end <= ?", periodStart, periodEnd).
		Order("period_start ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *usageRepo) ListByPeriod(ctx context.Context, accountID snowflake.ID, start, end time.Time) ([]usagedomain.UsageRecord, error) {
	items, err := r.records.Find(ctx, &usagedomain.UsageRecord{AccountID: accountID},
		option.ApplyOperator(option.Condition{Field: "period_start", Operator: option.GTE, Value: start}),
		option.ApplyOperator(option.Condition{Field: "period_end", Operator: option.LTE, Value: end}),
		option.WithSortBy("period_start", false),
	)
	if err != nil {
		return nil, err
	}
	records := make([]usagedomain.UsageRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, nil
}

// MarkBilled stamps the consumed records in a single batch update on the
// caller's transaction.
func (r *usageRepo) MarkBilled(ctx context.Context, tx *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&usagedomain.UsageRecord{}).
		Where("id IN ? AND billed = ?", ids, false).
		Updates(map[string]any{
			"billed":     true,
			"invoice_id": invoiceID,
		}).Error
}
