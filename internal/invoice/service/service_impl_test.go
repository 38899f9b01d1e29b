package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/cloudkhata/cloudkhata/internal/account/domain"
	accountrepo "github.com/cloudkhata/cloudkhata/internal/account/repository"
	"github.com/cloudkhata/cloudkhata/internal/clock"
	"github.com/cloudkhata/cloudkhata/internal/config"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	invoicerepo "github.com/cloudkhata/cloudkhata/internal/invoice/repository"
	referencerepo "github.com/cloudkhata/cloudkhata/internal/reference"
	referencedomain "github.com/cloudkhata/cloudkhata/internal/reference/domain"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	taxservice "github.com/cloudkhata/cloudkhata/internal/tax/service"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	usagerepo "github.com/cloudkhata/cloudkhata/internal/usage/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type generatorFixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
	generator invoicedomain.Generator
}

func setupGenerator(t *testing.T) *generatorFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&accountdomain.BillingAddress{},
		&referencedomain.HSNCode{},
		&usagedomain.UsageRecord{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.InvoiceSequence{},
		&taxdomain.TaxCalculation{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC))

	generator := NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Billing:     config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		AccountRepo: accountrepo.NewRepository(db),
		UsageRepo:   usagerepo.NewRepository(db),
		HSNRepo:     referencerepo.NewRepository(db),
		InvoiceRepo: invoicerepo.NewRepository(db),
		Calculator:  taxservice.NewService(),
	})
	return &generatorFixture{db: db, node: node, clock: fake, generator: generator}
}

func (f *generatorFixture) seedAccount(t *testing.T, email string) snowflake.ID {
	t.Helper()
	account := accountdomain.Account{ID: f.node.Generate(), Email: email, Name: "Test Account", IsActive: true}
	require.NoError(t, f.db.Create(&account).Error)
	return account.ID
}

func (f *generatorFixture) seedAddress(t *testing.T, accountID snowflake.ID, state, stateCode string) {
	t.Helper()
	require.NoError(t, f.db.Create(&accountdomain.BillingAddress{
		ID: f.node.Generate(), AccountID: accountID,
		Line1: "42 MG Road", City: "Somewhere", State: state, StateCode: stateCode,
		PostalCode: "560001", Country: "India", IsDefault: true,
	}).Error)
}

func (f *generatorFixture) seedUsage(t *testing.T, accountID snowflake.ID, category usagedomain.ResourceCategory, quantity, cost string, start, end time.Time) {
	t.Helper()
	q, err := decimal.NewFromString(quantity)
	require.NoError(t, err)
	c, err := decimal.NewFromString(cost)
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&usagedomain.UsageRecord{
		ID: f.node.Generate(), AccountID: accountID, Category: category,
		ResourceID: "res-1", MetricKind: "runtime",
		Quantity: q, Unit: "hours", UnitPrice: 500, TotalCost: c,
		PeriodStart: start, PeriodEnd: end,
	}).Error)
}

func (f *generatorFixture) period() (time.Time, time.Time) {
	end := f.clock.Now()
	return end.Add(-24 * time.Hour), end
}

func TestGenerateInvoiceIntraState(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "intra@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "0.5", "250", start, end)
	f.seedUsage(t, accountID, usagedomain.CategoryObjectStorage, "0.5", "0.5", start, end)

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	inv := result.Invoice

	// 750.5 fractional paise rounds half-up to 751 once at the subtotal
	require.Equal(t, int64(751), inv.SubtotalAmount)
	require.Equal(t, taxdomain.TaxTypeIntraState, inv.TaxType)
	require.Equal(t, int64(68), inv.CGSTAmount) // 751 × 9% = 67.59
	require.Equal(t, int64(68), inv.SGSTAmount)
	require.Zero(t, inv.IGSTAmount)
	require.Equal(t, inv.SubtotalAmount+inv.CGSTAmount+inv.SGSTAmount+inv.IGSTAmount-inv.DiscountAmount, inv.TotalAmount)
	require.Equal(t, "INV-2025-000001", inv.InvoiceNumber)
	require.Equal(t, invoicedomain.StatusDraft, inv.Status)
	require.Equal(t, "INR", inv.Currency)
	require.Equal(t, "Maharashtra", inv.PlaceOfSupply)
	require.Equal(t, f.clock.Now().AddDate(0, 0, 30), inv.DueDate)

	var sum int64
	for _, item := range result.LineItems {
		sum += item.Amount
	}
	require.Equal(t, inv.SubtotalAmount, sum)
	require.Len(t, result.LineItems, 2)
	require.Equal(t, usagedomain.CategoryCompute, result.LineItems[0].Category)

	// consumed records carry the billed stamp and invoice id
	var unbilled int64
	require.NoError(t, f.db.Model(&usagedomain.UsageRecord{}).
		Where("account_id = ? AND billed = ?", accountID, false).Count(&unbilled).Error)
	require.Zero(t, unbilled)

	var audit taxdomain.TaxCalculation
	require.NoError(t, f.db.First(&audit, "invoice_id = ?", inv.ID).Error)
	require.Equal(t, taxdomain.TaxTypeIntraState, audit.TaxType)
	require.Equal(t, inv.SubtotalAmount, audit.TaxableAmount)
	require.Equal(t, "Maharashtra", audit.SupplierState)
}

func TestGenerateInvoiceInterState(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "inter@example.com")
	f.seedAddress(t, accountID, "Karnataka", "29")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "2", "1000", start, end)

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	inv := result.Invoice
	require.Equal(t, taxdomain.TaxTypeInterState, inv.TaxType)
	require.Zero(t, inv.CGSTAmount)
	require.Zero(t, inv.SGSTAmount)
	require.Equal(t, int64(180), inv.IGSTAmount)
	require.Equal(t, int64(1180), inv.TotalAmount)
	require.Equal(t, "Karnataka", inv.PlaceOfSupply)
}

func TestGenerateInvoiceNoUnbilledRecords(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "empty@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "no unbilled usage records")
	require.Nil(t, result.Invoice)
}

// Generating twice for the same period must fail the second time: the
// first call consumed every unbilled record.
func TestGenerateInvoiceTwiceFailsSecondCall(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "twice@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)

	first := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, first.Success, first.Error)

	second := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.False(t, second.Success)
	require.Contains(t, second.Error, "no unbilled usage records")
}

func TestGenerateInvoiceSynthesizesPlaceholderAddress(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "noaddress@example.com")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	require.Equal(t, "Maharashtra", result.Invoice.PlaceOfSupply)

	var address accountdomain.BillingAddress
	require.NoError(t, f.db.First(&address, "account_id = ?", accountID).Error)
	require.True(t, address.IsDefault)
	require.Equal(t, "Mumbai", address.City)
	require.Equal(t, "400001", address.PostalCode)
}

// Two sub-paise categories each round to zero on their own lines; the
// drift lands on the last line so the sum still matches the subtotal.
func TestGenerateInvoiceReconcilesRoundingDrift(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "drift@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryObjectStorage, "0.4", "0.4", start, end)
	f.seedUsage(t, accountID, usagedomain.CategoryBandwidth, "0.4", "0.4", start, end)

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	require.Equal(t, int64(1), result.Invoice.SubtotalAmount) // 0.8 rounds up

	var sum int64
	for _, item := range result.LineItems {
		sum += item.Amount
	}
	require.Equal(t, result.Invoice.SubtotalAmount, sum)
}

func TestGenerateInvoiceUsesHSNTable(t *testing.T) {
	f := setupGenerator(t)
	require.NoError(t, f.db.Create(&referencedomain.HSNCode{
		ServiceCategory: "compute", HSNCode: "998315", SACCode: "998315",
		GSTRate: 18, IsActive: true,
	}).Error)
	accountID := f.seedAccount(t, "hsn@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	require.Equal(t, "998315", result.Invoice.HSNCode)
	require.Equal(t, "998315", result.TaxCalculation.HSNSACCode)
}

func TestGenerateInvoiceFallsBackToDefaultHSN(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "hsndefault@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)

	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	require.Equal(t, referencedomain.DefaultHSNCode, result.Invoice.HSNCode)
}

func TestInvoiceNumbersAreMonotonic(t *testing.T) {
	f := setupGenerator(t)
	accountID := f.seedAccount(t, "seq@example.com")
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()

	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)
	first := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, first.Success, first.Error)

	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)
	second := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, second.Success, second.Error)

	require.Equal(t, "INV-2025-000001", first.Invoice.InvoiceNumber)
	require.Equal(t, "INV-2025-000002", second.Invoice.InvoiceNumber)
}

func (f *generatorFixture) generateOne(t *testing.T, email string) *invoicedomain.Invoice {
	t.Helper()
	accountID := f.seedAccount(t, email)
	f.seedAddress(t, accountID, "Maharashtra", "27")
	start, end := f.period()
	f.seedUsage(t, accountID, usagedomain.CategoryCompute, "1", "500", start, end)
	result := f.generator.GenerateInvoice(context.Background(), invoicedomain.GenerateInvoiceRequest{
		AccountID: accountID, PeriodStart: start, PeriodEnd: end,
	})
	require.True(t, result.Success, result.Error)
	return result.Invoice
}

func TestFinalizeInvoice(t *testing.T) {
	f := setupGenerator(t)
	inv := f.generateOne(t, "finalize@example.com")

	issued, err := f.generator.FinalizeInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusIssued, issued.Status)

	_, err = f.generator.FinalizeInvoice(context.Background(), inv.ID)
	require.ErrorIs(t, err, invoicedomain.ErrInvoiceNotDraft)

	_, err = f.generator.FinalizeInvoice(context.Background(), f.node.Generate())
	require.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestMarkInvoiceAsPaid(t *testing.T) {
	f := setupGenerator(t)
	inv := f.generateOne(t, "paid@example.com")
	_, err := f.generator.FinalizeInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	paid, err := f.generator.MarkInvoiceAsPaid(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.Equal(t, f.clock.Now(), paid.PaidAt.UTC())

	// idempotent
	again, err := f.generator.MarkInvoiceAsPaid(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusPaid, again.Status)
}

func TestMarkInvoiceAsOverdue(t *testing.T) {
	f := setupGenerator(t)
	inv := f.generateOne(t, "overdue@example.com")
	_, err := f.generator.FinalizeInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	// not yet past due: unchanged
	unchanged, err := f.generator.MarkInvoiceAsOverdue(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusIssued, unchanged.Status)

	f.clock.Advance(31 * 24 * time.Hour)
	overdue, err := f.generator.MarkInvoiceAsOverdue(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusOverdue, overdue.Status)
}

// A paid invoice must never flip to overdue, no matter how late.
func TestMarkInvoiceAsOverdueNeverTouchesPaid(t *testing.T) {
	f := setupGenerator(t)
	inv := f.generateOne(t, "paidlate@example.com")
	_, err := f.generator.FinalizeInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	_, err = f.generator.MarkInvoiceAsPaid(context.Background(), inv.ID)
	require.NoError(t, err)

	f.clock.Advance(365 * 24 * time.Hour)
	result, err := f.generator.MarkInvoiceAsOverdue(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusPaid, result.Status)
}

func TestSweepOverdue(t *testing.T) {
	f := setupGenerator(t)
	a := f.generateOne(t, "sweep-a@example.com")
	b := f.generateOne(t, "sweep-b@example.com")
	c := f.generateOne(t, "sweep-c@example.com")

	for _, inv := range []*invoicedomain.Invoice{a, b, c} {
		_, err := f.generator.FinalizeInvoice(context.Background(), inv.ID)
		require.NoError(t, err)
	}
	_, err := f.generator.MarkInvoiceAsPaid(context.Background(), c.ID)
	require.NoError(t, err)

	f.clock.Advance(31 * 24 * time.Hour)
	changed, err := f.generator.SweepOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, changed)

	stillPaid, _, err := f.generator.GetInvoice(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusPaid, stillPaid.Status)
}

func TestGetInvoice(t *testing.T) {
	f := setupGenerator(t)
	inv := f.generateOne(t, "get@example.com")

	got, items, err := f.generator.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	require.Len(t, items, 1)

	_, _, err = f.generator.GetInvoice(context.Background(), f.node.Generate())
	require.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}
