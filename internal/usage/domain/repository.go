package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists usage records. MarkBilled takes the caller's
// transaction handle so the billed stamp commits atomically with the
// invoice rows it belongs to.
type Repository interface {
	Create(ctx context.Context, record *UsageRecord) error
	ListUnbilled(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time) ([]UsageRecord, error)
	ListByPeriod(ctx context.Context, accountID snowflake.ID, start, end time.Time) ([]UsageRecord, error)
	MarkBilled(ctx context.Context, tx *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID) error
}
