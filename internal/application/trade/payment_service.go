package trade

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService records payments and allocates them to bills and invoices.
// Allocation locks the payment row and then the document row; the
// document's paid amount is re-derived from every allocation against it.
type PaymentService struct {
	scope          TransactionScope
	numbers        numbering.Generator
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// PaymentServiceConfig holds the collaborators of a PaymentService
type PaymentServiceConfig struct {
	Scope          TransactionScope
	Numbers        numbering.Generator
	EventPublisher shared.EventPublisher
	Metrics        Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	s := &PaymentService{
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

// Create records a new draft payment
func (s *PaymentService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	if !req.Side.IsValid() {
		return nil, trade.ErrInvalidSide
	}
	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount.WithMessage("Payment amount must be positive")
	}

	number, err := s.numbers.NextNumber(ctx, tenantID, req.Side.PaymentSequenceType(), "")
	if err != nil {
		return nil, err
	}

	var payment *trade.Payment
	err = s.scope.Execute(ctx, func(repos TradeRepositories) error {
		party, err := loadParty(ctx, repos, tenantID, req.PartyID, req.Side)
		if err != nil {
			return err
		}
		payment, err = trade.NewPayment(tenantID, number, req.Side, party.ID, req.Amount, req.PaymentDate, req.Method)
		if err != nil {
			return err
		}
		payment.Reference = req.Reference
		payment.Remark = req.Remark
		return repos.PaymentRepo().Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("side", string(payment.Side)),
		zap.String("amount", payment.Amount.StringFixed(2)))
	s.publish(ctx, payment)

	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// GetByID loads a payment with its allocations
func (s *PaymentService) GetByID(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	var payment *trade.Payment
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		payment, err = repos.PaymentRepo().FindByIDForTenant(ctx, tenantID, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// Allocate assigns amount of the payment to a bill or invoice. A payment
// may be allocated to a document only once; use Reallocate to change it.
func (s *PaymentService) Allocate(ctx context.Context, tenantID, paymentID, documentID uuid.UUID, amount decimal.Decimal) (*AllocationResult, error) {
	return s.allocate(ctx, tenantID, paymentID, documentID, amount, false)
}

// Reallocate replaces the amount of an existing allocation
func (s *PaymentService) Reallocate(ctx context.Context, tenantID, paymentID, documentID uuid.UUID, amount decimal.Decimal) (*AllocationResult, error) {
	return s.allocate(ctx, tenantID, paymentID, documentID, amount, true)
}

func (s *PaymentService) allocate(ctx context.Context, tenantID, paymentID, documentID uuid.UUID, amount decimal.Decimal, reallocate bool) (*AllocationResult, error) {
	op := "allocate"
	if reallocate {
		op = "reallocate"
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", op)
	defer span.End()
	span.SetAttributes(telemetry.AttrPaymentID.String(paymentID.String()), telemetry.AttrDocumentID.String(documentID.String()))

	if amount.IsNegative() {
		return nil, shared.ErrInvalidAmount.WithMessage("Allocation amount cannot be negative")
	}

	var (
		payment    *trade.Payment
		doc        *trade.Document
		allocation *trade.Allocation
	)
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		payment, err = repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		doc, err = repos.DocumentRepo().FindByIDForUpdate(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if reallocate {
			allocation, err = payment.Reallocate(doc, amount)
		} else {
			allocation, err = payment.Allocate(doc, amount)
		}
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Update(ctx, payment); err != nil {
			return err
		}
		return applyAllocations(ctx, repos, tenantID, doc, s.now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordPaymentAllocated(ctx, tenantID, string(payment.Side), amount)
	s.logger.Info("Payment allocated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("document_status", string(doc.Status)))
	s.publish(ctx, payment)
	s.publishDocument(ctx, doc)

	return &AllocationResult{
		AllocationID: allocation.ID,
		Payment:      ToPaymentResponse(payment),
		Document:     ToDocumentResponse(doc),
	}, nil
}

// Confirm confirms a draft payment
func (s *PaymentService) Confirm(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	return s.transition(ctx, tenantID, paymentID, (*trade.Payment).Confirm)
}

// Reconcile marks a confirmed payment as matched against the bank statement
func (s *PaymentService) Reconcile(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	return s.transition(ctx, tenantID, paymentID, (*trade.Payment).Reconcile)
}

func (s *PaymentService) transition(ctx context.Context, tenantID, paymentID uuid.UUID, fn func(*trade.Payment) error) (*PaymentResponse, error) {
	var payment *trade.Payment
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		payment, err = repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if err := fn(payment); err != nil {
			return err
		}
		return repos.PaymentRepo().Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, payment)
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// Bounce marks the payment as bounced, releases every allocation and
// re-derives the paid amount and status of each affected document.
func (s *PaymentService) Bounce(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "bounce")
	defer span.End()

	var (
		payment *trade.Payment
		docs    []*trade.Document
	)
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		payment, err = repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		released, err := payment.Bounce()
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Update(ctx, payment); err != nil {
			return err
		}

		sort.Slice(released, func(i, j int) bool {
			return bytes.Compare(released[i][:], released[j][:]) < 0
		})
		for _, id := range released {
			doc, err := repos.DocumentRepo().FindByIDForUpdate(ctx, tenantID, id)
			if err != nil {
				return err
			}
			if err := applyAllocations(ctx, repos, tenantID, doc, s.now()); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Warn("Payment bounced",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.Int("released_documents", len(docs)))
	s.publish(ctx, payment)
	s.publishDocument(ctx, docs...)

	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// applyAllocations re-derives a locked document's paid amount from all
// allocations against it and saves the document.
func applyAllocations(ctx context.Context, repos TradeRepositories, tenantID uuid.UUID, doc *trade.Document, today time.Time) error {
	paid, err := repos.PaymentRepo().SumAllocationsForDocument(ctx, tenantID, doc.ID)
	if err != nil {
		return err
	}
	if err := doc.ApplyPaidAmount(paid, today); err != nil {
		return err
	}
	return repos.DocumentRepo().Update(ctx, doc)
}

func (s *PaymentService) publish(ctx context.Context, payment *trade.Payment) {
	if err := shared.PublishPending(ctx, s.eventPublisher, payment); err != nil {
		s.logger.Warn("Failed to publish payment events",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
	}
}

func (s *PaymentService) publishDocument(ctx context.Context, docs ...*trade.Document) {
	if err := shared.PublishPending(ctx, s.eventPublisher, documentSources(docs)...); err != nil {
		s.logger.Warn("Failed to publish document events", zap.Error(err))
	}
}
