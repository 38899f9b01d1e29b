package server

import (
	"errors"
	"net/http"

	accountdomain "github.com/cloudkhata/cloudkhata/internal/account/domain"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// AbortWithError maps domain errors onto HTTP statuses. Unknown errors
// become 500 with a generic message so storage details never leak.
func AbortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, accountdomain.ErrAccountNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, invoicedomain.ErrInvoiceNotDraft),
		errors.Is(err, invoicedomain.ErrInvoiceCancelled):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, usagedomain.ErrInvalidAccount),
		errors.Is(err, usagedomain.ErrInvalidPeriod):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal_error"})
	}
}

func AbortBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
