// Package numbering generates document numbers from per-tenant sequences.
package numbering

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service formats numbers drawn from an atomic counter. The counter runs
// outside the caller's transaction, so a rolled back operation leaves a gap
// in the series but never a duplicate.
type Service struct {
	counter  numbering.Counter
	width    int
	prefixes map[numbering.SequenceType]string
	logger   *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithWidth sets the zero-padded width of the numeric part
func WithWidth(width int) Option {
	return func(s *Service) {
		if width > 0 {
			s.width = width
		}
	}
}

// WithPrefix overrides the default prefix of one sequence type
func WithPrefix(seqType numbering.SequenceType, prefix string) Option {
	return func(s *Service) {
		s.prefixes[seqType] = prefix
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new numbering Service
func NewService(counter numbering.Counter, opts ...Option) *Service {
	s := &Service{
		counter:  counter,
		width:    numbering.DefaultWidth,
		prefixes: make(map[numbering.SequenceType]string),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextNumber returns the next number of the tenant's series as
// {prefix}{zero-padded value}. An empty prefix selects the configured or
// default prefix of the sequence type.
func (s *Service) NextNumber(ctx context.Context, tenantID uuid.UUID, seqType numbering.SequenceType, prefix string) (string, error) {
	if !seqType.IsValid() {
		return "", numbering.ErrInvalidSequence
	}
	if prefix == "" {
		prefix = s.prefixFor(seqType)
	}

	n, err := s.counter.Increment(ctx, tenantID, seqType)
	if err != nil {
		s.logger.Error("Failed to increment sequence",
			zap.String("tenant_id", tenantID.String()),
			zap.String("sequence_type", seqType.String()),
			zap.Error(err))
		return "", fmt.Errorf("next %s number: %w", seqType, err)
	}
	return numbering.Format(prefix, n, s.width), nil
}

func (s *Service) prefixFor(seqType numbering.SequenceType) string {
	if p, ok := s.prefixes[seqType]; ok {
		return p
	}
	return seqType.DefaultPrefix()
}

var _ numbering.Generator = (*Service)(nil)
