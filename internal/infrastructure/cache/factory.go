package cache

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SequenceCounterFactory picks the numbering backend from configuration
type SequenceCounterFactory struct {
	redisConfig      config.RedisConfig
	ledgerConfig     config.LedgerConfig
	database         numbering.Counter
	logger           *zap.Logger
	allowDBFallback  bool
	newRedisClientFn func(config.RedisConfig) (*redis.Client, error)
}

// SequenceCounterFactoryOption is a functional option for configuring the factory
type SequenceCounterFactoryOption func(*SequenceCounterFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SequenceCounterFactoryOption {
	return func(f *SequenceCounterFactory) {
		f.logger = logger
	}
}

// WithDatabaseFallback controls whether an unreachable Redis falls back to
// the database counter. Default is false: mixing backends would restart
// numbering from whatever the database last saw.
func WithDatabaseFallback(allow bool) SequenceCounterFactoryOption {
	return func(f *SequenceCounterFactory) {
		f.allowDBFallback = allow
	}
}

// NewSequenceCounterFactory creates a new factory. database is the
// table-backed counter used for the "database" backend.
func NewSequenceCounterFactory(redisCfg config.RedisConfig, ledgerCfg config.LedgerConfig, database numbering.Counter, opts ...SequenceCounterFactoryOption) *SequenceCounterFactory {
	f := &SequenceCounterFactory{
		redisConfig:      redisCfg,
		ledgerConfig:     ledgerCfg,
		database:         database,
		logger:           zap.NewNop(),
		newRedisClientFn: NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCounter returns the counter for the configured backend
func (f *SequenceCounterFactory) CreateCounter() (numbering.Counter, error) {
	switch f.ledgerConfig.SequenceBackend {
	case "", "database":
		return f.database, nil
	case "redis":
	default:
		return nil, fmt.Errorf("unknown sequence backend %q", f.ledgerConfig.SequenceBackend)
	}

	client, err := f.newRedisClientFn(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis sequence counter", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisSequenceCounter(client, f.ledgerConfig.SequenceKeyPrefix), nil
	}
	if !f.allowDBFallback {
		return nil, fmt.Errorf("redis required for numbering but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to database sequence counter",
		zap.Error(err))
	return f.database, nil
}
