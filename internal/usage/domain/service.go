package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	resourcedomain "github.com/cloudkhata/cloudkhata/internal/resource/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidPeriod  = errors.New("invalid_period")
)

// TrackReport summarizes one tracking pass. Category failures are
// isolated: one failing category never blocks the others, and a failed
// record write is counted but does not undo earlier writes in the pass.
type TrackReport struct {
	AccountID      snowflake.ID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	RecordsWritten int
	WriteFailures  int
	CategoryErrors map[ResourceCategory]string
}

// CategoryUsage is one row of a usage summary breakdown.
type CategoryUsage struct {
	Category    ResourceCategory `json:"category"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	CostPaise   int64            `json:"cost_paise"`
	RecordCount int              `json:"record_count"`
}

// UsageSummary aggregates an account's usage over a window. The total is
// rounded once from the fractional-paise sum.
type UsageSummary struct {
	AccountID   snowflake.ID    `json:"account_id"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	TotalPaise  int64           `json:"total_paise"`
	Breakdown   []CategoryUsage `json:"breakdown"`
}

// Tracker converts the active resource inventory into cost-bearing
// usage records.
//
// TrackAllActiveResources meters the most recent one-hour window at call
// time. It is not idempotent: the external scheduler must guarantee at
// most one invocation per account per billing tick.
type Tracker interface {
	TrackAllActiveResources(ctx context.Context, accountID snowflake.ID) (*TrackReport, error)

	TrackVMUsage(ctx context.Context, accountID snowflake.ID, vm resourcedomain.VirtualMachine, periodStart, periodEnd time.Time) (*UsageRecord, error)
	TrackVolumeUsage(ctx context.Context, accountID snowflake.ID, volume resourcedomain.Volume, periodStart, periodEnd time.Time) (*UsageRecord, error)
	TrackObjectStorageUsage(ctx context.Context, accountID snowflake.ID, bucket resourcedomain.ObjectStorageBucket, periodStart, periodEnd time.Time) (*UsageRecord, error)
	TrackBandwidthUsage(ctx context.Context, accountID snowflake.ID, resourceID, resourceName string, gbTransferred decimal.Decimal, periodStart, periodEnd time.Time) (*UsageRecord, error)
	TrackKubernetesUsage(ctx context.Context, accountID snowflake.ID, cluster resourcedomain.KubernetesCluster, periodStart, periodEnd time.Time) (*UsageRecord, error)
	TrackDatabaseUsage(ctx context.Context, accountID snowflake.ID, database resourcedomain.ManagedDatabase, periodStart, periodEnd time.Time) (*UsageRecord, error)

	GenerateUsageSummary(ctx context.Context, accountID snowflake.ID, start, end time.Time) (*UsageSummary, error)
}
