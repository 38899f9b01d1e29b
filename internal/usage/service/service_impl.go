// Package service implements the usage tracker: it samples the active
// resource inventory and emits cost-bearing usage records.
package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cloudkhata/cloudkhata/internal/clock"
	"github.com/cloudkhata/cloudkhata/internal/observability/metrics"
	resourcedomain "github.com/cloudkhata/cloudkhata/internal/resource/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Inventory resourcedomain.Inventory
	UsageRepo usagedomain.Repository
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	inventory resourcedomain.Inventory
	usagerepo usagedomain.Repository
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) usagedomain.Tracker {
	return &Service{
		log:       p.Log.Named("usage.tracker"),
		genID:     p.GenID,
		clock:     p.Clock,
		inventory: p.Inventory,
		usagerepo: p.UsageRepo,
		metrics:   p.Metrics,
	}
}

// TrackAllActiveResources meters every billable resource of the account
// over the most recent one-hour window. Categories are isolated: a
// listing failure in one category is recorded on the report and the
// remaining categories still run. Record writes already committed stay
// committed whatever happens later in the pass.
func (s *Service) TrackAllActiveResources(ctx context.Context, accountID snowflake.ID) (*usagedomain.TrackReport, error) {
	if accountID == 0 {
		return nil, usagedomain.ErrInvalidAccount
	}

	periodEnd := s.clock.Now()
	periodStart := periodEnd.Add(-time.Hour)
	report := &usagedomain.TrackReport{
		AccountID:      accountID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		CategoryErrors: make(map[usagedomain.ResourceCategory]string),
	}

	s.trackComputeCategory(ctx, accountID, periodStart, periodEnd, report)
	s.trackVolumeCategory(ctx, accountID, periodStart, periodEnd, report)
	s.trackObjectStorageCategory(ctx, accountID, periodStart, periodEnd, report)
	s.trackKubernetesCategory(ctx, accountID, periodStart, periodEnd, report)
	s.trackDatabaseCategory(ctx, accountID, periodStart, periodEnd, report)

	s.log.Info("tracking pass complete",
		zap.String("account_id", accountID.String()),
		zap.Int("records_written", report.RecordsWritten),
		zap.Int("write_failures", report.WriteFailures),
		zap.Int("category_errors", len(report.CategoryErrors)),
	)
	return report, nil
}

func (s *Service) trackComputeCategory(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time, report *usagedomain.TrackReport) {
	vms, err := s.inventory.ListVirtualMachines(ctx, accountID)
	if err != nil {
		s.recordCategoryError(report, usagedomain.CategoryCompute, err)
		return
	}
	for _, vm := range vms {
		if vm.Status != resourcedomain.VMStatusRunning {
			continue
		}
		if _, err := s.TrackVMUsage(ctx, accountID, vm, periodStart, periodEnd); err != nil {
			s.recordWriteFailure(report, usagedomain.CategoryCompute, vm.ID.String(), err)
		} else {
			report.RecordsWritten++
		}
	}
}

func (s *Service) trackVolumeCategory(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time, report *usagedomain.TrackReport) {
	volumes, err := s.inventory.ListVolumes(ctx, accountID)
	if err != nil {
		s.recordCategoryError(report, usagedomain.CategoryBlockStorage, err)
		return
	}
	// every allocated volume bills, attached or not
	for _, volume := range volumes {
		if _, err := s.TrackVolumeUsage(ctx, accountID, volume, periodStart, periodEnd); err != nil {
			s.recordWriteFailure(report, usagedomain.CategoryBlockStorage, volume.ID.String(), err)
		} else {
			report.RecordsWritten++
		}
	}
}

func (s *Service) trackObjectStorageCategory(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time, report *usagedomain.TrackReport) {
	buckets, err := s.inventory.ListObjectStorageBuckets(ctx, accountID)
	if err != nil {
		s.recordCategoryError(report, usagedomain.CategoryObjectStorage, err)
		return
	}
	for _, bucket := range buckets {
		if _, err := s.TrackObjectStorageUsage(ctx, accountID, bucket, periodStart, periodEnd); err != nil {
			s.recordWriteFailure(report, usagedomain.CategoryObjectStorage, bucket.ID.String(), err)
		} else {
			report.RecordsWritten++
		}
	}
}

func (s *Service) trackKubernetesCategory(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time, report *usagedomain.TrackReport) {
	clusters, err := s.inventory.ListKubernetesClusters(ctx, accountID)
	if err != nil {
		s.recordCategoryError(report, usagedomain.CategoryKubernetes, err)
		return
	}
	for _, cluster := range clusters {
		if cluster.Status != resourcedomain.ClusterStatusActive {
			continue
		}
		if _, err := s.TrackKubernetesUsage(ctx, accountID, cluster, periodStart, periodEnd); err != nil {
			s.recordWriteFailure(report, usagedomain.CategoryKubernetes, cluster.ID.String(), err)
		} else {
			report.RecordsWritten++
		}
	}
}

func (s *Service) trackDatabaseCategory(ctx context.Context, accountID snowflake.ID, periodStart, periodEnd time.Time, report *usagedomain.TrackReport) {
	databases, err := s.inventory.ListDatabases(ctx, accountID)
	if err != nil {
		s.recordCategoryError(report, usagedomain.CategoryDatabase, err)
		return
	}
	for _, database := range databases {
		if database.Status != resourcedomain.DatabaseStatusActive {
			continue
		}
		if _, err := s.TrackDatabaseUsage(ctx, accountID, database, periodStart, periodEnd); err != nil {
			s.recordWriteFailure(report, usagedomain.CategoryDatabase, database.ID.String(), err)
		} else {
			report.RecordsWritten++
		}
	}
}

func (s *Service) TrackVMUsage(ctx context.Context, accountID snowflake.ID, vm resourcedomain.VirtualMachine, periodStart, periodEnd time.Time) (*usagedomain.UsageRecord, error) {
	hours := hoursBetween(periodStart, periodEnd)
	record := &usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Category:     usagedomain.CategoryCompute,
		ResourceID:   vm.ID.String(),
		ResourceName: vm.Name,
		MetricKind:   metricRuntime,
		Quantity:     hours,
		Unit:         unitHours,
		UnitPrice:    computeRatePaisePerHour,
		TotalCost:    hours.Mul(decimal.NewFromInt(computeRatePaisePerHour)),
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Metadata: datatypes.JSONMap{
			"vcpus":     vm.VCPUs,
			"memory_mb": vm.MemoryMB,
		},
	}
	return s.persist(ctx, record)
}

func (s *Service) TrackVolumeUsage(ctx context.Context, accountID snowflake.ID, volume resourcedomain.Volume, periodStart, periodEnd time.Time) (*usagedomain.UsageRecord, error) {
	hours := hoursBetween(periodStart, periodEnd)
	gbHours := decimal.NewFromInt(volume.SizeGB).Mul(hours)
	record := &usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Category:     usagedomain.CategoryBlockStorage,
		ResourceID:   volume.ID.String(),
		ResourceName: volume.Name,
		MetricKind:   metricStorage,
		Quantity:     gbHours,
		Unit:         unitGBHours,
		UnitPrice:    blockStorageRatePaisePerGBHour,
		TotalCost:    gbHours.Mul(decimal.NewFromInt(blockStorageRatePaisePerGBHour)),
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Metadata: datatypes.JSONMap{
			"size_gb": volume.SizeGB,
		},
	}
	return s.persist(ctx, record)
}

func (s *Service) TrackObjectStorageUsage(ctx context.Context, accountID snowflake.ID, bucket resourcedomain.ObjectStorageBucket, periodStart, periodEnd time.Time) (*usagedomain.UsageRecord, error) {
	hours := hoursBetween(periodStart, periodEnd)
	gbHours := bytesToGB(bucket.SizeBytes).Mul(hours)
	record := &usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Category:     usagedomain.CategoryObjectStorage,
		ResourceID:   bucket.ID.String(),
		ResourceName: bucket.Name,
		MetricKind:   metricStorage,
		Quantity:     gbHours,
		Unit:         unitGBHours,
		UnitPrice:    objectStorageRatePaisePerGBHour,
		TotalCost:    gbHours.Mul(decimal.NewFromInt(objectStorageRatePaisePerGBHour)),
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Metadata: datatypes.JSONMap{
			"size_bytes": bucket.SizeBytes,
		},
	}
	return s.persist(ctx, record)
}

func (s *Service) TrackBandwidthUsage(ctx context.Context, accountID snowflake.ID, resourceID, resourceName string, gbTransferred decimal.Decimal, periodStart, periodEnd time.Time) (*usagedomain.UsageRecord, error) {
	record := &usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Category:     usagedomain.CategoryBandwidth,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		MetricKind:   metricTransfer,
		Quantity:     gbTransferred,
		Unit:         unitGB,
		UnitPrice:    bandwidthRatePaisePerGB,
		TotalCost:    gbTransferred.Mul(decimal.NewFromInt(bandwidthRatePaisePerGB)),
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
	}
	return s.persist(ctx, record)
}

func (s *Service) TrackKubernetesUsage(ctx context.Context, accountID snowflake.ID, cluster resourcedomain.KubernetesCluster, periodStart, periodEnd time.Time) (*usagedomain.UsageRecord, error) {
	hours := hoursBetween(periodStart, periodEnd)
	nodeHours := decimal.NewFromInt(int64(cluster.NodeCount)).Mul(hours)
	record := &usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Category:     usagedomain.CategoryKubernetes,
		ResourceID:   cluster.ID.String(),
		ResourceName: cluster.Name,
		MetricKind:   metricRuntime,
		Quantity:     nodeHours,
		Unit:         unitNodeHours,
		UnitPrice:    kubernetesRatePaisePerNodeHour,
		TotalCost:    nodeHours.Mul(decimal.NewFromInt(kubernetesRatePaisePerNodeHour)),
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Metadata: datatypes.JSONMap{
			"node_count": cluster.NodeCount,
		},
	}
	return s.persist(ctx, record)
}

// TrackDatabaseUsage bills the compute hours plus allocated storage
// GB-hours in one record; the storage component rides in the total cost
// and metadata rather than a second record.
func (s *Service) TrackDatabaseUsage(ctx context.Context, accountID snowflake.ID, database resourcedomain.ManagedDatabase, periodStart, periodEnd time.Time) (*usagedomain.UsageRecord, error) {
	hours := hoursBetween(periodStart, periodEnd)
	computeCost := hours.Mul(decimal.NewFromInt(databaseComputeRatePaisePerHour))
	storageGBHours := decimal.NewFromInt(database.StorageGB).Mul(hours)
	storageCost := storageGBHours.Mul(decimal.NewFromInt(databaseStorageRatePaisePerGBHour))

	record := &usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Category:     usagedomain.CategoryDatabase,
		ResourceID:   database.ID.String(),
		ResourceName: database.Name,
		MetricKind:   metricRuntime,
		Quantity:     hours,
		Unit:         unitHours,
		UnitPrice:    databaseComputeRatePaisePerHour,
		TotalCost:    computeCost.Add(storageCost),
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Metadata: datatypes.JSONMap{
			"engine":           database.Engine,
			"storage_gb":       database.StorageGB,
			"storage_gb_hours": storageGBHours.String(),
		},
	}
	return s.persist(ctx, record)
}

func (s *Service) GenerateUsageSummary(ctx context.Context, accountID snowflake.ID, start, end time.Time) (*usagedomain.UsageSummary, error) {
	if accountID == 0 {
		return nil, usagedomain.ErrInvalidAccount
	}
	if !end.After(start) {
		return nil, usagedomain.ErrInvalidPeriod
	}

	records, err := s.usagerepo.ListByPeriod(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}

	type aggregate struct {
		quantity decimal.Decimal
		cost     decimal.Decimal
		unit     string
		count    int
	}
	totals := make(map[usagedomain.ResourceCategory]*aggregate)
	total := decimal.Zero
	for _, record := range records {
		agg, ok := totals[record.Category]
		if !ok {
			agg = &aggregate{quantity: decimal.Zero, cost: decimal.Zero, unit: record.Unit}
			totals[record.Category] = agg
		}
		agg.quantity = agg.quantity.Add(record.Quantity)
		agg.cost = agg.cost.Add(record.TotalCost)
		agg.count++
		total = total.Add(record.TotalCost)
	}

	summary := &usagedomain.UsageSummary{
		AccountID:   accountID,
		PeriodStart: start,
		PeriodEnd:   end,
		TotalPaise:  total.Round(0).IntPart(),
	}
	for _, category := range usagedomain.Categories {
		agg, ok := totals[category]
		if !ok {
			continue
		}
		summary.Breakdown = append(summary.Breakdown, usagedomain.CategoryUsage{
			Category:    category,
			Quantity:    agg.quantity.Round(2),
			Unit:        agg.unit,
			CostPaise:   agg.cost.Round(0).IntPart(),
			RecordCount: agg.count,
		})
	}
	return summary, nil
}

func (s *Service) persist(ctx context.Context, record *usagedomain.UsageRecord) (*usagedomain.UsageRecord, error) {
	if err := s.usagerepo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.metrics.IncUsageTracked(string(record.Category))
	return record, nil
}

func (s *Service) recordCategoryError(report *usagedomain.TrackReport, category usagedomain.ResourceCategory, err error) {
	report.CategoryErrors[category] = err.Error()
	s.metrics.IncTrackFailure(string(category))
	s.log.Warn("category listing failed",
		zap.String("category", string(category)),
		zap.Error(err),
	)
}

func (s *Service) recordWriteFailure(report *usagedomain.TrackReport, category usagedomain.ResourceCategory, resourceID string, err error) {
	report.WriteFailures++
	s.metrics.IncTrackFailure(string(category))
	s.log.Warn("usage record write failed",
		zap.String("category", string(category)),
		zap.String("resource_id", resourceID),
		zap.Error(err),
	)
}
