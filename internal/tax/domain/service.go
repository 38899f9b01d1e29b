package domain

import "github.com/shopspring/decimal"

// DefaultGSTRatePercent applies when a request does not carry a rate.
const DefaultGSTRatePercent = 18

// CalculationRequest carries one taxable amount through the GST split.
// All monetary values are integer paise.
type CalculationRequest struct {
	TaxableAmount int64
	SellerState   string
	BuyerState    string
	HSNSACCode    string
	// GSTRate is a percentage; zero falls back to DefaultGSTRatePercent.
	GSTRate decimal.Decimal
}

// CalculationResult is the full GST breakdown for one taxable amount.
// Exactly one of the CGST+SGST pair or IGST is nonzero.
type CalculationResult struct {
	TaxableAmount int64           `json:"taxable_amount"`
	TaxType       TaxType         `json:"tax_type"`
	GSTRate       decimal.Decimal `json:"gst_rate"`

	CGSTRate   decimal.Decimal `json:"cgst_rate"`
	SGSTRate   decimal.Decimal `json:"sgst_rate"`
	IGSTRate   decimal.Decimal `json:"igst_rate"`
	CGSTAmount int64           `json:"cgst_amount"`
	SGSTAmount int64           `json:"sgst_amount"`
	IGSTAmount int64           `json:"igst_amount"`

	TotalTaxAmount int64  `json:"total_tax_amount"`
	TotalAmount    int64  `json:"total_amount"`
	HSNSACCode     string `json:"hsn_sac_code"`
}

// ItemInput is one line of a multi-item calculation.
type ItemInput struct {
	Description   string
	TaxableAmount int64
	HSNSACCode    string
	GSTRate       decimal.Decimal
}

// MultiItemResult sums independently calculated items without any
// cross-item rounding correction.
type MultiItemResult struct {
	Items              []CalculationResult `json:"items"`
	TotalTaxableAmount int64               `json:"total_taxable_amount"`
	TotalCGSTAmount    int64               `json:"total_cgst_amount"`
	TotalSGSTAmount    int64               `json:"total_sgst_amount"`
	TotalIGSTAmount    int64               `json:"total_igst_amount"`
	TotalTaxAmount     int64               `json:"total_tax_amount"`
	GrandTotal         int64               `json:"grand_total"`
}

// Calculator is the pure GST computation library. No side effects, no
// storage access; malformed identifiers yield false, never errors.
type Calculator interface {
	Calculate(req CalculationRequest) CalculationResult
	CalculateItems(items []ItemInput, sellerState, buyerState string) MultiItemResult
	ValidateGSTIN(gstin string) bool
	ValidatePAN(pan string) bool
	// StateFromGSTIN resolves the two-digit prefix through the state-code
	// table; ok is false for malformed input or unknown codes.
	StateFromGSTIN(gstin string) (state string, ok bool)
	HSNSACForService(serviceCategory string) string
}
