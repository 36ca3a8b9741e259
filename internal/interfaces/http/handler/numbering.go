package handler

import (
	"context"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NumberIssuer issues the next document number of a sequence
type NumberIssuer interface {
	NextNumber(ctx context.Context, tenantID uuid.UUID, seqType numbering.SequenceType, prefix string) (string, error)
}

// NumberingHandler exposes document number sequences
type NumberingHandler struct {
	BaseHandler
	numbers NumberIssuer
}

// NewNumberingHandler creates a new NumberingHandler
func NewNumberingHandler(numbers NumberIssuer) *NumberingHandler {
	return &NumberingHandler{numbers: numbers}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *NumberingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sequences/:type/next", h.NextNumber)
}

// NextNumberRequest is the optional body of POST /sequences/:type/next
type NextNumberRequest struct {
	Prefix string `json:"prefix" binding:"max=10"`
}

// NextNumberResponse carries an issued document number
type NextNumberResponse struct {
	SequenceType string `json:"sequence_type"`
	Number       string `json:"number"`
}

// NextNumber handles POST /sequences/:type/next
func (h *NumberingHandler) NextNumber(c *gin.Context) {
	var req NextNumberRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	seqType := numbering.SequenceType(c.Param("type"))
	number, err := h.numbers.NextNumber(c.Request.Context(), tenantID(c), seqType, req.Prefix)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NextNumberResponse{SequenceType: seqType.String(), Number: number})
}
