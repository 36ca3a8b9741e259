package telemetry

import (
	"errors"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBInstrumentation adds tracing and query metrics to a GORM connection.
// Tracing is delegated to otelgorm, which also reports connection pool
// statistics. Query counts, latency and slow statements are recorded by
// callbacks registered around each GORM operation.
type DBInstrumentation struct {
	cfg           config.TelemetryConfig
	dbSystem      string
	logger        *zap.Logger
	tracer        trace.TracerProvider
	queryTotal    *Counter
	queryDuration *Histogram
	slowQueries   *Counter
}

// DBOption configures DBInstrumentation
type DBOption func(*DBInstrumentation)

// WithDBTracerProvider traces against tp instead of the global provider
func WithDBTracerProvider(tp trace.TracerProvider) DBOption {
	return func(d *DBInstrumentation) {
		d.tracer = tp
	}
}

// NewDBInstrumentation creates the query instruments on meter. dbSystem is
// reported as the db.system of every span (postgresql or sqlite).
func NewDBInstrumentation(cfg config.TelemetryConfig, dbSystem string, meter metric.Meter, logger *zap.Logger, opts ...DBOption) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DBInstrumentation{cfg: cfg, dbSystem: dbSystem, logger: logger}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.queryTotal, err = NewCounter(meter, "db_query_total", "Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if d.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if d.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}
	return d, nil
}

// Register installs the otelgorm plugin when DB tracing is enabled and the
// metric callbacks unconditionally.
func (d *DBInstrumentation) Register(db *gorm.DB) error {
	if d.cfg.DBTraceEnabled {
		pluginOpts := []otelgorm.Option{otelgorm.WithDBName(d.dbSystem)}
		if !d.cfg.DBLogFullSQL {
			pluginOpts = append(pluginOpts, otelgorm.WithoutQueryVariables())
		}
		if d.tracer != nil {
			pluginOpts = append(pluginOpts, otelgorm.WithTracerProvider(d.tracer))
		}
		if err := db.Use(otelgorm.NewPlugin(pluginOpts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", d.before),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", d.before),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", d.before),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", d.before),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", d.before),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", d.before),
		cb.Create().After("gorm:create").Register("telemetry:after_create", d.after("INSERT")),
		cb.Query().After("gorm:query").Register("telemetry:after_query", d.after("SELECT")),
		cb.Update().After("gorm:update").Register("telemetry:after_update", d.after("UPDATE")),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", d.after("DELETE")),
		cb.Row().After("gorm:row").Register("telemetry:after_row", d.after("SELECT")),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", d.after("RAW")),
	); err != nil {
		return err
	}

	d.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", d.cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", d.cfg.DBSlowQueryThresh),
		zap.String("db_system", d.dbSystem),
	)
	return nil
}

func (d *DBInstrumentation) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (d *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		ctx := db.Statement.Context
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(table)}
		d.queryTotal.Inc(ctx, attrs...)
		d.queryDuration.RecordDuration(ctx, elapsed, attrs...)

		if d.cfg.DBSlowQueryThresh > 0 && elapsed > d.cfg.DBSlowQueryThresh {
			d.slowQueries.Inc(ctx, attrs...)
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
			}
			d.logger.Warn("Slow database statement",
				zap.String("operation", operation),
				zap.String("table", table),
				zap.Duration("elapsed", elapsed),
			)
		}
	}
}
