package server

import (
	"errors"
	"net/http"

	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type calculateTaxRequest struct {
	TaxableAmount int64           `json:"taxable_amount"`
	SellerState   string          `json:"seller_state"`
	BuyerState    string          `json:"buyer_state"`
	HSNSACCode    string          `json:"hsn_sac_code"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
}

func (s *Server) CalculateTax(c *gin.Context) {
	var req calculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortBadRequest(c, err)
		return
	}
	if req.TaxableAmount < 0 {
		AbortBadRequest(c, errors.New("taxable_amount must not be negative"))
		return
	}

	result := s.calculator.Calculate(taxdomain.CalculationRequest{
		TaxableAmount: req.TaxableAmount,
		SellerState:   req.SellerState,
		BuyerState:    req.BuyerState,
		HSNSACCode:    req.HSNSACCode,
		GSTRate:       req.GSTRate,
	})
	c.JSON(http.StatusOK, result)
}

func (s *Server) ValidateGSTIN(c *gin.Context) {
	gstin := c.Param("gstin")
	valid := s.calculator.ValidateGSTIN(gstin)
	state, _ := s.calculator.StateFromGSTIN(gstin)
	c.JSON(http.StatusOK, gin.H{
		"gstin": gstin,
		"valid": valid,
		"state": state,
	})
}
