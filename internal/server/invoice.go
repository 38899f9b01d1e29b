package server

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	"github.com/gin-gonic/gin"
)

func parseInvoiceID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		return 0, errors.New("invalid invoice id")
	}
	return id, nil
}

// GenerateInvoice translates a failed generation result into 422: the
// caller's request was well-formed but the pipeline declined it, most
// commonly because there is nothing unbilled to invoice.
func (s *Server) GenerateInvoice(c *gin.Context) {
	var req invoicedomain.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortBadRequest(c, err)
		return
	}
	if req.AccountID == 0 || !req.PeriodEnd.After(req.PeriodStart) {
		AbortBadRequest(c, errors.New("account_id and a valid period are required"))
		return
	}

	result := s.generator.GenerateInvoice(c.Request.Context(), req)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, err := parseInvoiceID(c)
	if err != nil {
		AbortBadRequest(c, err)
		return
	}
	invoice, items, err := s.generator.GetInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice, "line_items": items})
}

func (s *Server) FinalizeInvoice(c *gin.Context) {
	id, err := parseInvoiceID(c)
	if err != nil {
		AbortBadRequest(c, err)
		return
	}
	invoice, err := s.generator.FinalizeInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (s *Server) PayInvoice(c *gin.Context) {
	id, err := parseInvoiceID(c)
	if err != nil {
		AbortBadRequest(c, err)
		return
	}
	invoice, err := s.generator.MarkInvoiceAsPaid(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (s *Server) OverdueInvoice(c *gin.Context) {
	id, err := parseInvoiceID(c)
	if err != nil {
		AbortBadRequest(c, err)
		return
	}
	invoice, err := s.generator.MarkInvoiceAsOverdue(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}
