package trade

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService handles orders, bills and invoices. Every line mutation
// takes the document row lock first and recomputes the derived header
// amounts and status before the transaction commits.
type DocumentService struct {
	scope          TransactionScope
	numbers        numbering.Generator
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// DocumentServiceConfig holds the collaborators of a DocumentService
type DocumentServiceConfig struct {
	Scope          TransactionScope
	Numbers        numbering.Generator
	EventPublisher shared.EventPublisher
	Metrics        Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	s := &DocumentService{
		scope:          cfg.Scope,
		numbers:        cfg.Numbers,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		now:            cfg.Now,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create creates a draft document with its lines and derived totals
func (s *DocumentService) Create(ctx context.Context, tenantID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create")
	defer span.End()

	if !req.Kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_KIND", "Document kind is invalid")
	}

	number, err := s.numbers.NextNumber(ctx, tenantID, req.Kind.SequenceType(), "")
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var doc *trade.Document
	err = s.scope.Execute(ctx, func(repos TradeRepositories) error {
		party, err := loadParty(ctx, repos, tenantID, req.PartyID, req.Kind.Side())
		if err != nil {
			return err
		}
		if !party.IsActive {
			return shared.ErrInvalidState.WithMessage("Party " + party.Code + " is inactive")
		}

		dueDate := req.DueDate
		if dueDate == nil && req.Kind.IsBillable() {
			due := party.DueDateFor(req.DocumentDate)
			dueDate = &due
		}
		doc, err = trade.NewDocument(tenantID, req.Kind, number, party.ID, req.DocumentDate, dueDate)
		if err != nil {
			return err
		}
		doc.Reference = req.Reference
		doc.Remark = req.Remark
		if req.CreatedBy != nil {
			doc.SetCreatedBy(*req.CreatedBy)
		}

		for _, lr := range req.Lines {
			in, err := lineInput(ctx, repos, tenantID, lr)
			if err != nil {
				return err
			}
			if _, err := doc.AddLine(in); err != nil {
				return err
			}
		}
		if err := doc.Recompute(party.DiscountPercent, s.now()); err != nil {
			return err
		}
		return repos.DocumentRepo().Create(ctx, doc)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(telemetry.AttrDocumentNumber.String(doc.DocumentNumber))
	s.logger.Info("Document created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("kind", string(doc.Kind)))
	s.publish(ctx, doc)

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// GetByID loads a document with its lines
func (s *DocumentService) GetByID(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentResponse, error) {
	var doc *trade.Document
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		doc, err = repos.DocumentRepo().FindByIDForTenant(ctx, tenantID, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List returns document headers matching the filter
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, filter DocumentListFilter) (shared.Paginated[DocumentResponse], error) {
	domainFilter := trade.DocumentFilter{
		Filter:   shared.DefaultFilter(),
		Kind:     filter.Kind,
		PartyID:  filter.PartyID,
		Statuses: filter.Statuses,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	var page shared.Paginated[*trade.Document]
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		page, err = repos.DocumentRepo().FindAll(ctx, tenantID, domainFilter)
		return err
	})
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}
	return shared.NewPaginated(ToDocumentResponses(page.Items), page.Total, page.Page, page.PageSize), nil
}

// AddLine appends a line and recomputes the document
func (s *DocumentService) AddLine(ctx context.Context, tenantID, documentID uuid.UUID, req LineRequest) (*DocumentResponse, error) {
	return s.mutate(ctx, tenantID, documentID, "add_line", func(repos TradeRepositories, doc *trade.Document) error {
		in, err := lineInput(ctx, repos, tenantID, req)
		if err != nil {
			return err
		}
		_, err = doc.AddLine(in)
		return err
	})
}

// UpdateLine replaces a line's values and recomputes the document
func (s *DocumentService) UpdateLine(ctx context.Context, tenantID, documentID, lineID uuid.UUID, req LineRequest) (*DocumentResponse, error) {
	return s.mutate(ctx, tenantID, documentID, "update_line", func(repos TradeRepositories, doc *trade.Document) error {
		in, err := lineInput(ctx, repos, tenantID, req)
		if err != nil {
			return err
		}
		_, err = doc.UpdateLine(lineID, in)
		return err
	})
}

// RemoveLine deletes a line and recomputes the document
func (s *DocumentService) RemoveLine(ctx context.Context, tenantID, documentID, lineID uuid.UUID) (*DocumentResponse, error) {
	return s.mutate(ctx, tenantID, documentID, "remove_line", func(_ TradeRepositories, doc *trade.Document) error {
		return doc.RemoveLine(lineID)
	})
}

// RecomputeDocumentTotals re-derives subtotal, discount, tax, total,
// outstanding and status from the stored lines. Calling it repeatedly over
// unchanged lines yields identical values.
func (s *DocumentService) RecomputeDocumentTotals(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentResponse, error) {
	return s.mutate(ctx, tenantID, documentID, "recompute", func(TradeRepositories, *trade.Document) error {
		return nil
	})
}

// Send marks a draft purchase order as sent
func (s *DocumentService) Send(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentResponse, error) {
	return s.mutate(ctx, tenantID, documentID, "send", func(_ TradeRepositories, doc *trade.Document) error {
		return doc.Send()
	})
}

// Confirm confirms a draft document
func (s *DocumentService) Confirm(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentResponse, error) {
	resp, err := s.mutate(ctx, tenantID, documentID, "confirm", func(_ TradeRepositories, doc *trade.Document) error {
		return doc.Confirm(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDocumentConfirmed(ctx, tenantID, resp.Kind, resp.TotalAmount)
	return resp, nil
}

// Cancel cancels a document that carries no payments or fulfillments
func (s *DocumentService) Cancel(ctx context.Context, tenantID, documentID uuid.UUID, reason string) (*DocumentResponse, error) {
	return s.mutate(ctx, tenantID, documentID, "cancel", func(_ TradeRepositories, doc *trade.Document) error {
		return doc.Cancel(reason, s.now())
	})
}

// RefreshOverdue re-derives the status of every open bill and invoice of
// the tenant as of today. Each document is locked and saved on its own so a
// concurrent payment on one document does not block the whole sweep.
func (s *DocumentService) RefreshOverdue(ctx context.Context, tenantID uuid.UUID, today time.Time) (*OverdueSweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "refresh_overdue")
	defer span.End()

	var open []*trade.Document
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		open, err = repos.DocumentRepo().FindOpenBillables(ctx, tenantID, nil)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &OverdueSweepResult{Checked: len(open), MarkedOverdue: make([]uuid.UUID, 0)}
	for _, candidate := range open {
		if candidate.Status == trade.StatusOverdue {
			continue
		}
		var doc *trade.Document
		err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
			var err error
			doc, err = repos.DocumentRepo().FindByIDForUpdate(ctx, tenantID, candidate.ID)
			if err != nil {
				return err
			}
			prev := doc.Status
			doc.RefreshStatus(today)
			if doc.Status == prev {
				return nil
			}
			doc.IncrementVersion()
			return repos.DocumentRepo().Update(ctx, doc)
		})
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			telemetry.RecordError(span, err)
			return result, err
		}
		if doc.Status == trade.StatusOverdue {
			result.MarkedOverdue = append(result.MarkedOverdue, doc.ID)
		}
		s.publish(ctx, doc)
	}

	if len(result.MarkedOverdue) > 0 {
		s.metrics.RecordDocumentsOverdue(ctx, tenantID, len(result.MarkedOverdue))
		s.logger.Info("Documents marked overdue",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("count", len(result.MarkedOverdue)))
	}
	return result, nil
}

// RecordFulfillment records a delivered or received quantity against an
// order line. The line's fulfilled quantity becomes the sum of all of its
// fulfillment rows and may never exceed the ordered quantity.
func (s *DocumentService) RecordFulfillment(ctx context.Context, tenantID, orderID uuid.UUID, req FulfillmentRequest) (*DocumentResponse, error) {
	fulfilledAt := req.FulfilledAt
	if fulfilledAt.IsZero() {
		fulfilledAt = s.now()
	}
	return s.mutate(ctx, tenantID, orderID, "record_fulfillment", func(repos TradeRepositories, order *trade.Document) error {
		f, err := trade.NewFulfillment(order, req.LineID, req.Quantity, fulfilledAt, req.Reference)
		if err != nil {
			return err
		}
		recorded, err := repos.FulfillmentRepo().SumForLine(ctx, tenantID, req.LineID)
		if err != nil {
			return err
		}
		if err := order.ApplyFulfillment(req.LineID, recorded.Add(f.Quantity)); err != nil {
			return err
		}
		return repos.FulfillmentRepo().Create(ctx, f)
	})
}

// CreateBillingDocument raises a draft invoice (sales) or bill (purchase)
// for the order's fulfilled but not yet invoiced quantities.
func (s *DocumentService) CreateBillingDocument(ctx context.Context, tenantID, orderID uuid.UUID, req BillingRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create_billing")
	defer span.End()

	var order, doc *trade.Document
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		order, err = repos.DocumentRepo().FindByIDForTenant(ctx, tenantID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !order.Kind.IsOrder() {
		return nil, shared.ErrInvalidState.WithMessage("Bills and invoices are raised from orders")
	}

	number, err := s.numbers.NextNumber(ctx, tenantID, order.Kind.BillingKind().SequenceType(), "")
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	documentDate := req.DocumentDate
	if documentDate.IsZero() {
		documentDate = s.now()
	}
	err = s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		order, err = repos.DocumentRepo().FindByIDForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		party, err := loadParty(ctx, repos, tenantID, order.PartyID, order.Kind.Side())
		if err != nil {
			return err
		}
		dueDate := party.DueDateFor(documentDate)
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}
		doc, err = trade.NewBillingDocument(order, number, documentDate, dueDate)
		if err != nil {
			return err
		}
		if err := repos.DocumentRepo().Update(ctx, order); err != nil {
			return err
		}
		return repos.DocumentRepo().Create(ctx, doc)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Billing document raised from order",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", order.DocumentNumber),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("total", doc.TotalAmount.StringFixed(2)))
	s.publish(ctx, order, doc)

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// mutate locks the document, applies fn, recomputes every derived field
// with the party's current discount and saves the result.
func (s *DocumentService) mutate(ctx context.Context, tenantID, documentID uuid.UUID, op string, fn func(repos TradeRepositories, doc *trade.Document) error) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", op)
	defer span.End()
	span.SetAttributes(telemetry.AttrDocumentID.String(documentID.String()))

	var doc *trade.Document
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		doc, err = repos.DocumentRepo().FindByIDForUpdate(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		party, err := repos.PartyRepo().FindByIDForTenant(ctx, tenantID, doc.PartyID)
		if err != nil {
			return err
		}
		if err := fn(repos, doc); err != nil {
			return err
		}
		if err := doc.Recompute(party.DiscountPercent, s.now()); err != nil {
			return err
		}
		return repos.DocumentRepo().Update(ctx, doc)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsRetryable(err) {
			s.logger.Warn("Document modified concurrently",
				zap.String("document_id", documentID.String()),
				zap.String("operation", op))
		}
		return nil, err
	}

	s.publish(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

func (s *DocumentService) publish(ctx context.Context, docs ...*trade.Document) {
	if err := shared.PublishPending(ctx, s.eventPublisher, documentSources(docs)...); err != nil {
		s.logger.Warn("Failed to publish document events", zap.Error(err))
	}
}

func documentSources(docs []*trade.Document) []shared.EventSource {
	sources := make([]shared.EventSource, len(docs))
	for i, doc := range docs {
		sources[i] = doc
	}
	return sources
}

// loadParty loads the document's party and checks it is on the expected side
func loadParty(ctx context.Context, repos TradeRepositories, tenantID, partyID uuid.UUID, side trade.PartySide) (*trade.Party, error) {
	party, err := repos.PartyRepo().FindByIDForTenant(ctx, tenantID, partyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Party not found")
		}
		return nil, err
	}
	if party.Side != side {
		return nil, trade.ErrPartyMismatch.WithMessage("Party is not a " + string(side))
	}
	return party, nil
}

// lineInput resolves the line's tax reference to a snapshot of the stored definition
func lineInput(ctx context.Context, repos TradeRepositories, tenantID uuid.UUID, req LineRequest) (trade.LineInput, error) {
	in := trade.LineInput{
		ProductID:       req.ProductID,
		Description:     req.Description,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		DiscountPercent: req.DiscountPercent,
	}
	if req.TaxID == nil {
		return in, nil
	}
	tax, err := repos.TaxRepo().FindByIDForTenant(ctx, tenantID, *req.TaxID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return in, shared.NewValidationError("INVALID_TAX", "Tax not found")
		}
		return in, err
	}
	if !tax.IsActive {
		return in, shared.NewValidationError("INVALID_TAX", "Tax "+tax.Code+" is inactive")
	}
	in.Tax = trade.TaxRefFrom(tax)
	return in, nil
}
