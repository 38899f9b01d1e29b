// Package service implements invoice generation: it folds unbilled
// usage into a draft invoice with jurisdiction-correct GST.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/cloudkhata/cloudkhata/internal/account/domain"
	"github.com/cloudkhata/cloudkhata/internal/clock"
	"github.com/cloudkhata/cloudkhata/internal/config"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	"github.com/cloudkhata/cloudkhata/internal/observability/metrics"
	referencedomain "github.com/cloudkhata/cloudkhata/internal/reference/domain"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Billing     *config.BillingConfigHolder
	AccountRepo accountdomain.Repository
	UsageRepo   usagedomain.Repository
	HSNRepo     referencedomain.Repository
	InvoiceRepo invoicedomain.Repository
	Calculator  taxdomain.Calculator
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	billing     *config.BillingConfigHolder
	accountRepo accountdomain.Repository
	usageRepo   usagedomain.Repository
	hsnRepo     referencedomain.Repository
	invoiceRepo invoicedomain.Repository
	calculator  taxdomain.Calculator
	metrics     *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Generator {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.generator"),
		genID:       p.GenID,
		clock:       p.Clock,
		billing:     p.Billing,
		accountRepo: p.AccountRepo,
		usageRepo:   p.UsageRepo,
		hsnRepo:     p.HSNRepo,
		invoiceRepo: p.InvoiceRepo,
		calculator:  p.Calculator,
		metrics:     p.Metrics,
	}
}

// lineGroup is one resource category's aggregate, sums kept in
// fractional paise until the final rounding.
type lineGroup struct {
	category    usagedomain.ResourceCategory
	resourceID  string
	unit        string
	quantity    decimal.Decimal
	cost        decimal.Decimal
	periodStart time.Time
	periodEnd   time.Time
}

// GenerateInvoice runs the full pipeline: select unbilled records,
// resolve the buyer jurisdiction, aggregate line items, compute GST on
// the rounded subtotal, and persist everything atomically together with
// the billed stamps. Failures come back as a structured result, not an
// error: an empty unbilled set is an expected outcome.
func (s *Service) GenerateInvoice(ctx context.Context, req invoicedomain.GenerateInvoiceRequest) *invoicedomain.GenerationResult {
	started := time.Now()

	result := s.generate(ctx, req)
	s.metrics.ObserveGenerationDuration(time.Since(started))
	if result.Success {
		s.metrics.IncInvoiceGenerated()
		s.log.Info("invoice generated",
			zap.String("account_id", req.AccountID.String()),
			zap.String("invoice_number", result.Invoice.InvoiceNumber),
			zap.Int64("total_amount", result.Invoice.TotalAmount),
			zap.String("tax_type", string(result.Invoice.TaxType)),
		)
	} else {
		s.metrics.IncGenerationFailure()
		s.log.Warn("invoice generation failed",
			zap.String("account_id", req.AccountID.String()),
			zap.String("error", result.Error),
		)
	}
	return result
}

func (s *Service) generate(ctx context.Context, req invoicedomain.GenerateInvoiceRequest) *invoicedomain.GenerationResult {
	records, err := s.usageRepo.ListUnbilled(ctx, req.AccountID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return failure("fetching unbilled usage records: %v", err)
	}
	if len(records) == 0 {
		return failure("no unbilled usage records for account %s in the requested period", req.AccountID)
	}

	address, err := s.resolveBillingAddress(ctx, req.AccountID)
	if err != nil {
		return failure("resolving billing address: %v", err)
	}

	groups := groupByCategory(records)

	subtotalExact := decimal.Zero
	for _, g := range groups {
		subtotalExact = subtotalExact.Add(g.cost)
	}
	subtotal := subtotalExact.Round(0).IntPart()

	cfg := s.billing.Get()
	hsnCode, sacCode, gstRate := s.resolveHSN(ctx, groups[0].category, cfg.GSTRatePercent)

	taxResult := s.calculator.Calculate(taxdomain.CalculationRequest{
		TaxableAmount: subtotal,
		SellerState:   cfg.SellerState,
		BuyerState:    address.State,
		HSNSACCode:    sacCode,
		GSTRate:       decimal.NewFromFloat(gstRate),
	})
	s.metrics.IncTaxCalculation(string(taxResult.TaxType))

	now := s.clock.Now()
	dueDate := now.AddDate(0, 0, cfg.DueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	invoice := &invoicedomain.Invoice{
		ID:               s.genID.Generate(),
		AccountID:        req.AccountID,
		BillingAddressID: address.ID,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		SubtotalAmount:   subtotal,
		CGSTAmount:       taxResult.CGSTAmount,
		SGSTAmount:       taxResult.SGSTAmount,
		IGSTAmount:       taxResult.IGSTAmount,
		TotalAmount:      subtotal + taxResult.TotalTaxAmount,
		TaxType:          taxResult.TaxType,
		GSTRate:          gstRate,
		HSNCode:          hsnCode,
		SACCode:          sacCode,
		PlaceOfSupply:    address.State,
		Status:           invoicedomain.StatusDraft,
		DueDate:          dueDate,
		Currency:         invoicedomain.CurrencyINR,
	}

	lineItems := s.buildLineItems(invoice.ID, groups, subtotal)
	taxCalc := s.buildTaxAudit(invoice, address, cfg, taxResult, gstRate)

	recordIDs := make([]snowflake.ID, 0, len(records))
	for _, r := range records {
		recordIDs = append(recordIDs, r.ID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.invoiceRepo.NextInvoiceNumber(ctx, tx, now.Year())
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		if err := s.invoiceRepo.CreateInvoice(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.invoiceRepo.CreateLineItems(ctx, tx, lineItems); err != nil {
			return err
		}
		if err := s.invoiceRepo.CreateTaxCalculation(ctx, tx, taxCalc); err != nil {
			return err
		}
		return s.usageRepo.MarkBilled(ctx, tx, recordIDs, invoice.ID)
	})
	if err != nil {
		return failure("persisting invoice: %v", err)
	}

	return &invoicedomain.GenerationResult{
		Success:        true,
		Invoice:        invoice,
		LineItems:      lineItems,
		TaxCalculation: taxCalc,
	}
}

// resolveBillingAddress falls back to a synthesized placeholder when the
// account has no default address. The placeholder is persisted so the
// invoice keeps a stable address reference.
func (s *Service) resolveBillingAddress(ctx context.Context, accountID snowflake.ID) (*accountdomain.BillingAddress, error) {
	address, err := s.accountRepo.GetDefaultBillingAddress(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if address != nil {
		return address, nil
	}

	cfg := s.billing.Get()
	address = &accountdomain.BillingAddress{
		ID:         s.genID.Generate(),
		AccountID:  accountID,
		Line1:      "Address not provided",
		City:       cfg.FallbackCity,
		State:      cfg.FallbackState,
		StateCode:  cfg.FallbackStateCode,
		PostalCode: cfg.FallbackPostalCode,
		Country:    "India",
		IsDefault:  true,
	}
	if err := s.accountRepo.CreateBillingAddress(ctx, address); err != nil {
		return nil, err
	}
	s.log.Warn("no default billing address, placeholder synthesized",
		zap.String("account_id", accountID.String()),
	)
	return address, nil
}

func (s *Service) resolveHSN(ctx context.Context, primary usagedomain.ResourceCategory, configuredRate float64) (hsnCode, sacCode string, gstRate float64) {
	hsnCode = referencedomain.DefaultHSNCode
	sacCode = referencedomain.DefaultSACCode
	gstRate = configuredRate

	entry, err := s.hsnRepo.ActiveByCategory(ctx, string(primary))
	if err != nil {
		s.log.Warn("hsn lookup failed, using defaults", zap.Error(err))
		return
	}
	if entry == nil {
		return
	}
	return entry.HSNCode, entry.SACCode, entry.GSTRate
}

// groupByCategory folds records into per-category aggregates, preserving
// first-appearance order so the primary category is the earliest billed.
func groupByCategory(records []usagedomain.UsageRecord) []*lineGroup {
	index := make(map[usagedomain.ResourceCategory]*lineGroup)
	var ordered []*lineGroup
	for _, r := range records {
		g, ok := index[r.Category]
		if !ok {
			g = &lineGroup{
				category:    r.Category,
				resourceID:  r.ResourceID,
				unit:        r.Unit,
				quantity:    decimal.Zero,
				cost:        decimal.Zero,
				periodStart: r.PeriodStart,
				periodEnd:   r.PeriodEnd,
			}
			index[r.Category] = g
			ordered = append(ordered, g)
		}
		g.quantity = g.quantity.Add(r.Quantity)
		g.cost = g.cost.Add(r.TotalCost)
		if r.PeriodStart.Before(g.periodStart) {
			g.periodStart = r.PeriodStart
		}
		if r.PeriodEnd.After(g.periodEnd) {
			g.periodEnd = r.PeriodEnd
		}
	}
	return ordered
}

// buildLineItems rounds each group independently, then pushes any
// rounding drift onto the last line so the amounts sum exactly to the
// invoice subtotal.
func (s *Service) buildLineItems(invoiceID snowflake.ID, groups []*lineGroup, subtotal int64) []invoicedomain.InvoiceLineItem {
	items := make([]invoicedomain.InvoiceLineItem, 0, len(groups))
	var sumAmounts int64
	for _, g := range groups {
		unitPrice := int64(0)
		if !g.quantity.IsZero() {
			unitPrice = g.cost.Div(g.quantity).Round(0).IntPart()
		}
		amount := g.cost.Round(0).IntPart()
		sumAmounts += amount
		items = append(items, invoicedomain.InvoiceLineItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Category:    g.category,
			ResourceID:  g.resourceID,
			Description: describeCategory(g.category),
			Quantity:    g.quantity.Round(2),
			Unit:        g.unit,
			UnitPrice:   unitPrice,
			Amount:      amount,
			PeriodStart: g.periodStart,
			PeriodEnd:   g.periodEnd,
		})
	}
	if drift := subtotal - sumAmounts; drift != 0 {
		items[len(items)-1].Amount += drift
	}
	return items
}

func (s *Service) buildTaxAudit(invoice *invoicedomain.Invoice, address *accountdomain.BillingAddress, cfg config.BillingConfig, taxResult taxdomain.CalculationResult, gstRate float64) *taxdomain.TaxCalculation {
	return &taxdomain.TaxCalculation{
		ID:                s.genID.Generate(),
		InvoiceID:         invoice.ID,
		AccountID:         invoice.AccountID,
		SupplierState:     cfg.SellerState,
		SupplierStateCode: cfg.SellerStateCode,
		CustomerState:     address.State,
		CustomerStateCode: address.StateCode,
		TaxType:           taxResult.TaxType,
		TaxableAmount:     taxResult.TaxableAmount,
		CGSTRate:          taxResult.CGSTRate.InexactFloat64(),
		SGSTRate:          taxResult.SGSTRate.InexactFloat64(),
		IGSTRate:          taxResult.IGSTRate.InexactFloat64(),
		CGSTAmount:        taxResult.CGSTAmount,
		SGSTAmount:        taxResult.SGSTAmount,
		IGSTAmount:        taxResult.IGSTAmount,
		TotalTaxAmount:    taxResult.TotalTaxAmount,
		GSTRate:           gstRate,
		HSNSACCode:        taxResult.HSNSACCode,
	}
}

func (s *Service) FinalizeInvoice(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.invoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if invoice.Status != invoicedomain.StatusDraft {
		return nil, invoicedomain.ErrInvoiceNotDraft
	}
	invoice.Status = invoicedomain.StatusIssued
	invoice.UpdatedAt = s.clock.Now()
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) MarkInvoiceAsPaid(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.invoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if invoice.Status == invoicedomain.StatusPaid {
		return invoice, nil
	}
	if invoice.Status == invoicedomain.StatusCancelled {
		return nil, invoicedomain.ErrInvoiceCancelled
	}
	now := s.clock.Now()
	invoice.Status = invoicedomain.StatusPaid
	invoice.PaidAt = &now
	invoice.UpdatedAt = now
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// MarkInvoiceAsOverdue returns the invoice unchanged when it is paid,
// cancelled, already overdue or not yet past due. Refusing to touch a
// paid invoice is the load-bearing guard here.
func (s *Service) MarkInvoiceAsOverdue(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.invoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	now := s.clock.Now()
	switch {
	case invoice.Status == invoicedomain.StatusPaid,
		invoice.Status == invoicedomain.StatusCancelled,
		invoice.Status == invoicedomain.StatusOverdue,
		!invoice.DueDate.Before(now):
		return invoice, nil
	}
	invoice.Status = invoicedomain.StatusOverdue
	invoice.UpdatedAt = now
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, []invoicedomain.InvoiceLineItem, error) {
	invoice, err := s.invoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, invoicedomain.ErrInvoiceNotFound
	}
	items, err := s.invoiceRepo.ListLineItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return invoice, items, nil
}

func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	candidates, err := s.invoiceRepo.ListIssuedPastDue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, candidate := range candidates {
		updated, err := s.MarkInvoiceAsOverdue(ctx, candidate.ID)
		if err != nil {
			s.log.Warn("overdue sweep failed for invoice",
				zap.String("invoice_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if updated.Status == invoicedomain.StatusOverdue {
			changed++
		}
	}
	return changed, nil
}

func describeCategory(category usagedomain.ResourceCategory) string {
	switch category {
	case usagedomain.CategoryCompute:
		return "Compute instance usage"
	case usagedomain.CategoryBlockStorage:
		return "Block storage allocation"
	case usagedomain.CategoryObjectStorage:
		return "Object storage consumption"
	case usagedomain.CategoryBandwidth:
		return "Outbound data transfer"
	case usagedomain.CategoryKubernetes:
		return "Kubernetes cluster node usage"
	case usagedomain.CategoryDatabase:
		return "Managed database usage"
	default:
		return string(category)
	}
}

func failure(format string, args ...any) *invoicedomain.GenerationResult {
	return &invoicedomain.GenerationResult{
		Success: false,
		Error:   fmt.Sprintf(format, args...),
	}
}
