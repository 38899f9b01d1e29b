// Package service implements the GST calculator: jurisdiction split,
// identifier validation and fiscal code lookup.
package service

import (
	"regexp"
	"strings"

	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	"github.com/shopspring/decimal"
)

var (
	// 15-character GSTIN: 2-digit state code, 10-character PAN, entity
	// number, literal "Z", checksum character.
	gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
)

var (
	hundred    = decimal.NewFromInt(100)
	twoHundred = decimal.NewFromInt(200)
)

type Service struct{}

func NewService() taxdomain.Calculator {
	return &Service{}
}

// Calculate splits the GST liability by jurisdiction. Each component is
// rounded to the nearest paise independently; on odd-paise bases the
// CGST and SGST halves may differ from round(full rate) by one paise,
// which matches the filed convention.
func (s *Service) Calculate(req taxdomain.CalculationRequest) taxdomain.CalculationResult {
	rate := req.GSTRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(taxdomain.DefaultGSTRatePercent)
	}

	taxable := decimal.NewFromInt(req.TaxableAmount)
	result := taxdomain.CalculationResult{
		TaxableAmount: req.TaxableAmount,
		GSTRate:       rate,
		HSNSACCode:    req.HSNSACCode,
	}

	if normalizeState(req.SellerState) == normalizeState(req.BuyerState) {
		half := rate.Div(decimal.NewFromInt(2))
		component := roundPaise(taxable.Mul(rate).Div(twoHundred))
		result.TaxType = taxdomain.TaxTypeIntraState
		result.CGSTRate = half
		result.SGSTRate = half
		result.CGSTAmount = component
		result.SGSTAmount = component
	} else {
		result.TaxType = taxdomain.TaxTypeInterState
		result.IGSTRate = rate
		result.IGSTAmount = roundPaise(taxable.Mul(rate).Div(hundred))
	}

	result.TotalTaxAmount = result.CGSTAmount + result.SGSTAmount + result.IGSTAmount
	result.TotalAmount = req.TaxableAmount + result.TotalTaxAmount
	return result
}

// CalculateItems applies the single-item calculation independently per
// item and reports plain sums. No cross-item rounding correction.
func (s *Service) CalculateItems(items []taxdomain.ItemInput, sellerState, buyerState string) taxdomain.MultiItemResult {
	out := taxdomain.MultiItemResult{
		Items: make([]taxdomain.CalculationResult, 0, len(items)),
	}
	for _, item := range items {
		result := s.Calculate(taxdomain.CalculationRequest{
			TaxableAmount: item.TaxableAmount,
			SellerState:   sellerState,
			BuyerState:    buyerState,
			HSNSACCode:    item.HSNSACCode,
			GSTRate:       item.GSTRate,
		})
		out.Items = append(out.Items, result)
		out.TotalTaxableAmount += result.TaxableAmount
		out.TotalCGSTAmount += result.CGSTAmount
		out.TotalSGSTAmount += result.SGSTAmount
		out.TotalIGSTAmount += result.IGSTAmount
		out.TotalTaxAmount += result.TotalTaxAmount
		out.GrandTotal += result.TotalAmount
	}
	return out
}

func (s *Service) ValidateGSTIN(gstin string) bool {
	return gstinPattern.MatchString(strings.TrimSpace(gstin))
}

func (s *Service) ValidatePAN(pan string) bool {
	return panPattern.MatchString(strings.TrimSpace(pan))
}

func (s *Service) StateFromGSTIN(gstin string) (string, bool) {
	trimmed := strings.TrimSpace(gstin)
	if !gstinPattern.MatchString(trimmed) {
		return "", false
	}
	state, ok := gstinStateCodes[trimmed[:2]]
	return state, ok
}

func (s *Service) HSNSACForService(serviceCategory string) string {
	return lookupHSNSAC(serviceCategory)
}

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

// roundPaise rounds half-up to an integer paise value. Inputs are never
// negative here, so half away from zero and half up coincide.
func roundPaise(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
