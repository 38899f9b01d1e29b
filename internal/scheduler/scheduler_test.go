package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/cloudkhata/cloudkhata/internal/account/domain"
	"github.com/cloudkhata/cloudkhata/internal/clock"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	resourcedomain "github.com/cloudkhata/cloudkhata/internal/resource/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccountRepo struct {
	accounts []accountdomain.Account
}

func (f *fakeAccountRepo) GetAccount(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].ID == id {
			return &f.accounts[i], nil
		}
	}
	return nil, accountdomain.ErrAccountNotFound
}

func (f *fakeAccountRepo) ListActiveAccounts(ctx context.Context) ([]accountdomain.Account, error) {
	return f.accounts, nil
}

func (f *fakeAccountRepo) GetDefaultBillingAddress(ctx context.Context, accountID snowflake.ID) (*accountdomain.BillingAddress, error) {
	return nil, nil
}

func (f *fakeAccountRepo) CreateBillingAddress(ctx context.Context, address *accountdomain.BillingAddress) error {
	return nil
}

type fakeTracker struct {
	tracked []snowflake.ID
}

func (f *fakeTracker) TrackAllActiveResources(ctx context.Context, accountID snowflake.ID) (*usagedomain.TrackReport, error) {
	f.tracked = append(f.tracked, accountID)
	return &usagedomain.TrackReport{AccountID: accountID}, nil
}

func (f *fakeTracker) TrackVMUsage(context.Context, snowflake.ID, resourcedomain.VirtualMachine, time.Time, time.Time) (*usagedomain.UsageRecord, error) {
	panic("not used")
}

func (f *fakeTracker) TrackVolumeUsage(context.Context, snowflake.ID, resourcedomain.Volume, time.Time, time.Time) (*usagedomain.UsageRecord, error) {
	panic("not used")
}

func (f *fakeTracker) TrackObjectStorageUsage(context.Context, snowflake.ID, resourcedomain.ObjectStorageBucket, time.Time, time.Time) (*usagedomain.UsageRecord, error) {
	panic("not used")
}

func (f *fakeTracker) TrackBandwidthUsage(context.Context, snowflake.ID, string, string, decimal.Decimal, time.Time, time.Time) (*usagedomain.UsageRecord, error) {
	panic("not used")
}

func (f *fakeTracker) TrackKubernetesUsage(context.Context, snowflake.ID, resourcedomain.KubernetesCluster, time.Time, time.Time) (*usagedomain.UsageRecord, error) {
	panic("not used")
}

func (f *fakeTracker) TrackDatabaseUsage(context.Context, snowflake.ID, resourcedomain.ManagedDatabase, time.Time, time.Time) (*usagedomain.UsageRecord, error) {
	panic("not used")
}

func (f *fakeTracker) GenerateUsageSummary(context.Context, snowflake.ID, time.Time, time.Time) (*usagedomain.UsageSummary, error) {
	panic("not used")
}

type generated struct {
	accountID   snowflake.ID
	periodStart time.Time
	periodEnd   time.Time
}

type fakeGenerator struct {
	invoices []generated
	sweeps   int
}

func (f *fakeGenerator) GenerateInvoice(ctx context.Context, req invoicedomain.GenerateInvoiceRequest) *invoicedomain.GenerationResult {
	f.invoices = append(f.invoices, generated{req.AccountID, req.PeriodStart, req.PeriodEnd})
	return &invoicedomain.GenerationResult{Success: true, Invoice: &invoicedomain.Invoice{}}
}

func (f *fakeGenerator) FinalizeInvoice(context.Context, snowflake.ID) (*invoicedomain.Invoice, error) {
	panic("not used")
}

func (f *fakeGenerator) MarkInvoiceAsPaid(context.Context, snowflake.ID) (*invoicedomain.Invoice, error) {
	panic("not used")
}

func (f *fakeGenerator) MarkInvoiceAsOverdue(context.Context, snowflake.ID) (*invoicedomain.Invoice, error) {
	panic("not used")
}

func (f *fakeGenerator) GetInvoice(context.Context, snowflake.ID) (*invoicedomain.Invoice, []invoicedomain.InvoiceLineItem, error) {
	panic("not used")
}

func (f *fakeGenerator) SweepOverdue(ctx context.Context) (int, error) {
	f.sweeps++
	return 0, nil
}

type fixture struct {
	sched     *Scheduler
	clock     *clock.FakeClock
	tracker   *fakeTracker
	generator *fakeGenerator
}

func setup(t *testing.T, now time.Time, accountCount int) *fixture {
	t.Helper()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	accounts := make([]accountdomain.Account, 0, accountCount)
	for i := 0; i < accountCount; i++ {
		accounts = append(accounts, accountdomain.Account{ID: node.Generate(), IsActive: true})
	}

	fake := clock.NewFakeClock(now)
	tracker := &fakeTracker{}
	generator := &fakeGenerator{}
	sched, err := New(Params{
		Log:         zap.NewNop(),
		Clock:       fake,
		AccountRepo: &fakeAccountRepo{accounts: accounts},
		Tracker:     tracker,
		Generator:   generator,
	})
	require.NoError(t, err)
	return &fixture{sched: sched, clock: fake, tracker: tracker, generator: generator}
}

func TestRunOnceTracksEveryActiveAccount(t *testing.T) {
	f := setup(t, time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC), 3)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Len(t, f.tracker.tracked, 3)
	require.Empty(t, f.generator.invoices) // not invoice day
}

func TestRunOnceInvoicesPreviousMonthOnInvoiceDay(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC), 2)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Len(t, f.generator.invoices, 2)

	inv := f.generator.invoices[0]
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), inv.periodStart)
	require.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), inv.periodEnd)
}

func TestRunOnceInvoicesOnlyOncePerMonth(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC), 1)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Len(t, f.generator.invoices, 1)

	// later tick on the same invoice day
	f.clock.Advance(time.Hour)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Len(t, f.generator.invoices, 1)

	// next month's invoice day fires again
	f.clock.Advance(31 * 24 * time.Hour)
	require.Equal(t, 1, f.clock.Now().Day())
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Len(t, f.generator.invoices, 2)
}

func TestRunOnceSweepsOnInterval(t *testing.T) {
	f := setup(t, time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC), 1)

	// first run sweeps immediately (no prior sweep)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Equal(t, 1, f.generator.sweeps)

	// within the interval: no sweep
	f.clock.Advance(time.Hour)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Equal(t, 1, f.generator.sweeps)

	f.clock.Advance(6 * time.Hour)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Equal(t, 2, f.generator.sweeps)
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, time.Hour, cfg.TrackInterval)
	require.Equal(t, 6*time.Hour, cfg.SweepInterval)
	require.Equal(t, 5*time.Minute, cfg.LockTTL)
	require.Equal(t, 1, cfg.InvoiceDay)

	custom := Config{TrackInterval: time.Minute, InvoiceDay: 5}.withDefaults()
	require.Equal(t, time.Minute, custom.TrackInterval)
	require.Equal(t, 5, custom.InvoiceDay)
}
