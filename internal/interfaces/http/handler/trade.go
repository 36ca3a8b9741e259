package handler

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/application/trade"
	domain "github.com/erp/ledger/internal/domain/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TradeHandler serves documents, payments and parties
type TradeHandler struct {
	BaseHandler
	documents *trade.DocumentService
	payments  *trade.PaymentService
	parties   *trade.PartyService
	now       func() time.Time
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(documents *trade.DocumentService, payments *trade.PaymentService, parties *trade.PartyService) *TradeHandler {
	return &TradeHandler{
		documents: documents,
		payments:  payments,
		parties:   parties,
		now:       time.Now,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.POST("", h.CreateDocument)
	docs.GET("", h.ListDocuments)
	docs.GET("/:id", h.GetDocument)
	docs.POST("/:id/lines", h.AddLine)
	docs.PUT("/:id/lines/:line_id", h.UpdateLine)
	docs.DELETE("/:id/lines/:line_id", h.RemoveLine)
	docs.POST("/:id/recompute", h.Recompute)
	docs.POST("/:id/send", h.Send)
	docs.POST("/:id/confirm", h.Confirm)
	docs.POST("/:id/cancel", h.Cancel)
	docs.POST("/:id/fulfillments", h.RecordFulfillment)
	docs.POST("/:id/billing", h.CreateBillingDocument)

	rg.POST("/overdue-sweeps", h.RefreshOverdue)

	payments := rg.Group("/payments")
	payments.POST("", h.CreatePayment)
	payments.GET("/:id", h.GetPayment)
	payments.POST("/:id/allocations", h.Allocate)
	payments.PUT("/:id/allocations/:document_id", h.Reallocate)
	payments.POST("/:id/confirm", h.ConfirmPayment)
	payments.POST("/:id/reconcile", h.ReconcilePayment)
	payments.POST("/:id/bounce", h.BouncePayment)

	parties := rg.Group("/parties")
	parties.POST("", h.CreateParty)
	parties.GET("/:id", h.GetParty)
	parties.GET("/:id/balance", h.PartyBalance)
}

// ==================== Documents ====================

// CreateDocument handles POST /documents
func (h *TradeHandler) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	docDate, err := parseDate(req.DocumentDate)
	if err != nil {
		h.BadRequest(c, "document_date must be a date in the form "+dateLayout)
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "due_date must be a date in the form "+dateLayout)
		return
	}

	lines := make([]trade.LineRequest, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = l.toLine()
	}

	doc, err := h.documents.Create(c.Request.Context(), tenantID(c), trade.CreateDocumentRequest{
		Kind:         domain.DocumentKind(req.Kind),
		PartyID:      req.PartyID,
		DocumentDate: docDate,
		DueDate:      dueDate,
		Reference:    req.Reference,
		Remark:       req.Remark,
		CreatedBy:    optionalActor(c),
		Lines:        lines,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// ListDocuments handles GET /documents
func (h *TradeHandler) ListDocuments(c *gin.Context) {
	var q ListDocumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := trade.DocumentListFilter{
		Kind:     domain.DocumentKind(q.Kind),
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: strings.ToLower(q.OrderDir),
	}
	if q.PartyID != "" {
		partyID := uuid.MustParse(q.PartyID)
		filter.PartyID = &partyID
	}
	if q.Status != "" {
		for _, s := range strings.Split(q.Status, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, domain.DocumentStatus(strings.ToUpper(s)))
			}
		}
	}

	page, err := h.documents.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetDocument handles GET /documents/:id
func (h *TradeHandler) GetDocument(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.GetByID(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// AddLine handles POST /documents/:id/lines
func (h *TradeHandler) AddLine(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req DocumentLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	doc, err := h.documents.AddLine(c.Request.Context(), tenantID(c), id, req.toLine())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// UpdateLine handles PUT /documents/:id/lines/:line_id
func (h *TradeHandler) UpdateLine(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseUUIDParam(c, "line_id")
	if !ok {
		return
	}
	var req DocumentLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	doc, err := h.documents.UpdateLine(c.Request.Context(), tenantID(c), id, lineID, req.toLine())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// RemoveLine handles DELETE /documents/:id/lines/:line_id
func (h *TradeHandler) RemoveLine(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseUUIDParam(c, "line_id")
	if !ok {
		return
	}
	doc, err := h.documents.RemoveLine(c.Request.Context(), tenantID(c), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// documentAction adapts a single-document service call to a handler
func (h *TradeHandler) documentAction(c *gin.Context, fn func(tenantID, id uuid.UUID) (*trade.DocumentResponse, error)) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := fn(tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Recompute handles POST /documents/:id/recompute
func (h *TradeHandler) Recompute(c *gin.Context) {
	h.documentAction(c, func(t, id uuid.UUID) (*trade.DocumentResponse, error) {
		return h.documents.RecomputeDocumentTotals(c.Request.Context(), t, id)
	})
}

// Send handles POST /documents/:id/send
func (h *TradeHandler) Send(c *gin.Context) {
	h.documentAction(c, func(t, id uuid.UUID) (*trade.DocumentResponse, error) {
		return h.documents.Send(c.Request.Context(), t, id)
	})
}

// Confirm handles POST /documents/:id/confirm
func (h *TradeHandler) Confirm(c *gin.Context) {
	h.documentAction(c, func(t, id uuid.UUID) (*trade.DocumentResponse, error) {
		return h.documents.Confirm(c.Request.Context(), t, id)
	})
}

// Cancel handles POST /documents/:id/cancel. The body is optional.
func (h *TradeHandler) Cancel(c *gin.Context) {
	var req CancelDocumentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	h.documentAction(c, func(t, id uuid.UUID) (*trade.DocumentResponse, error) {
		return h.documents.Cancel(c.Request.Context(), t, id, req.Reason)
	})
}

// RecordFulfillment handles POST /documents/:id/fulfillments
func (h *TradeHandler) RecordFulfillment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req FulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	fulfilledAt, err := dateOr(req.FulfilledAt, h.now().UTC())
	if err != nil {
		h.BadRequest(c, "fulfilled_at must be a date in the form "+dateLayout)
		return
	}

	doc, err := h.documents.RecordFulfillment(c.Request.Context(), tenantID(c), id, trade.FulfillmentRequest{
		LineID:      req.LineID,
		Quantity:    req.Quantity,
		FulfilledAt: fulfilledAt,
		Reference:   req.Reference,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// CreateBillingDocument handles POST /documents/:id/billing
func (h *TradeHandler) CreateBillingDocument(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	docDate, err := parseDate(req.DocumentDate)
	if err != nil {
		h.BadRequest(c, "document_date must be a date in the form "+dateLayout)
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "due_date must be a date in the form "+dateLayout)
		return
	}

	doc, err := h.documents.CreateBillingDocument(c.Request.Context(), tenantID(c), id, trade.BillingRequest{
		DocumentDate: docDate,
		DueDate:      dueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// RefreshOverdue handles POST /overdue-sweeps. Without a body the sweep
// runs for the current date.
func (h *TradeHandler) RefreshOverdue(c *gin.Context) {
	var req OverdueSweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	today, err := dateOr(req.Today, h.now().UTC())
	if err != nil {
		h.BadRequest(c, "today must be a date in the form "+dateLayout)
		return
	}

	result, err := h.documents.RefreshOverdue(c.Request.Context(), tenantID(c), today)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ==================== Payments ====================

// CreatePayment handles POST /payments
func (h *TradeHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "payment_date must be a date in the form "+dateLayout)
		return
	}

	payment, err := h.payments.Create(c.Request.Context(), tenantID(c), trade.CreatePaymentRequest{
		Side:        domain.PartySide(req.Side),
		PartyID:     req.PartyID,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		Method:      domain.PaymentMethod(req.Method),
		Reference:   req.Reference,
		Remark:      req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// GetPayment handles GET /payments/:id
func (h *TradeHandler) GetPayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetByID(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Allocate handles POST /payments/:id/allocations
func (h *TradeHandler) Allocate(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.payments.Allocate(c.Request.Context(), tenantID(c), id, req.DocumentID, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Reallocate handles PUT /payments/:id/allocations/:document_id
func (h *TradeHandler) Reallocate(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	documentID, ok := h.parseUUIDParam(c, "document_id")
	if !ok {
		return
	}
	var req ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.payments.Reallocate(c.Request.Context(), tenantID(c), id, documentID, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// paymentAction adapts a payment state transition to a handler
func (h *TradeHandler) paymentAction(c *gin.Context, fn func(tenantID, id uuid.UUID) (*trade.PaymentResponse, error)) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := fn(tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// ConfirmPayment handles POST /payments/:id/confirm
func (h *TradeHandler) ConfirmPayment(c *gin.Context) {
	h.paymentAction(c, func(t, id uuid.UUID) (*trade.PaymentResponse, error) {
		return h.payments.Confirm(c.Request.Context(), t, id)
	})
}

// ReconcilePayment handles POST /payments/:id/reconcile
func (h *TradeHandler) ReconcilePayment(c *gin.Context) {
	h.paymentAction(c, func(t, id uuid.UUID) (*trade.PaymentResponse, error) {
		return h.payments.Reconcile(c.Request.Context(), t, id)
	})
}

// BouncePayment handles POST /payments/:id/bounce
func (h *TradeHandler) BouncePayment(c *gin.Context) {
	h.paymentAction(c, func(t, id uuid.UUID) (*trade.PaymentResponse, error) {
		return h.payments.Bounce(c.Request.Context(), t, id)
	})
}

// ==================== Parties ====================

// CreateParty handles POST /parties
func (h *TradeHandler) CreateParty(c *gin.Context) {
	var req CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	party, err := h.parties.Create(c.Request.Context(), tenantID(c), trade.CreatePartyRequest{
		Side:             domain.PartySide(req.Side),
		Code:             req.Code,
		Name:             req.Name,
		DiscountPercent:  req.DiscountPercent,
		CreditLimit:      req.CreditLimit,
		PaymentTermsDays: req.PaymentTermsDays,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, party)
}

// GetParty handles GET /parties/:id
func (h *TradeHandler) GetParty(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	party, err := h.parties.GetByID(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}

// PartyBalance handles GET /parties/:id/balance
func (h *TradeHandler) PartyBalance(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	balance, err := h.parties.Balance(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
