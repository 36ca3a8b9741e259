package main

import (
	"context"
	"fmt"
	"io"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	appnumbering "github.com/erp/ledger/internal/application/numbering"
	apptrade "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/scheduler"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The telemetry package cannot import the application layer, so conformance
// of its metrics recorder is asserted here.
var (
	_ appaccounting.Metrics = (*telemetry.LedgerMetrics)(nil)
	_ apptrade.Metrics      = (*telemetry.LedgerMetrics)(nil)
)

// application holds the wired HTTP engine and the resources to release on
// shutdown.
type application struct {
	engine  *gin.Engine
	db      *persistence.Database
	bus     *event.InMemoryEventBus
	sweeper *scheduler.OverdueSweeper
	closers []io.Closer
	log     *zap.Logger
}

func newApplication(cfg *config.Config, providers *telemetry.Providers, log *zap.Logger) (*application, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.OpenDatabase(&cfg.Database, &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully")

	return wire(cfg, db, providers.Meter.Meter("erp-ledger"), log)
}

// wire builds repositories, services and handlers on an open database
func wire(cfg *config.Config, db *persistence.Database, meter metric.Meter, log *zap.Logger) (*application, error) {
	app := &application{db: db, log: log}

	// sqlite ledgers are created in place; postgres schemas come from cmd/migrate
	if db.IsSQLite() {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			return nil, err
		}
	}

	instr, err := telemetry.NewDBInstrumentation(cfg.Telemetry, db.System(), meter, log)
	if err != nil {
		return nil, fmt.Errorf("db instrumentation: %w", err)
	}
	if err := instr.Register(db.DB); err != nil {
		return nil, fmt.Errorf("register db instrumentation: %w", err)
	}

	metrics, err := telemetry.NewLedgerMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("ledger metrics: %w", err)
	}

	// Document numbering
	counter, err := cache.NewSequenceCounterFactory(cfg.Redis, cfg.Ledger,
		persistence.NewGormSequenceCounter(db.DB),
		cache.WithLogger(log),
	).CreateCounter()
	if err != nil {
		return nil, err
	}
	if c, ok := counter.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}
	numberOpts := []appnumbering.Option{
		appnumbering.WithWidth(cfg.Ledger.SequenceWidth),
		appnumbering.WithLogger(log),
	}
	for seqType, prefix := range cfg.Ledger.SequencePrefixes {
		numberOpts = append(numberOpts, appnumbering.WithPrefix(numbering.SequenceType(seqType), prefix))
	}
	numbers := appnumbering.NewService(counter, numberOpts...)

	// Event bus
	app.bus = event.NewInMemoryEventBus(log)
	app.bus.Subscribe(event.NewAuditLogHandler(log))
	if cfg.Ledger.EventStream {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("event stream: %w", err)
		}
		app.closers = append(app.closers, client)
		stream := event.NewRedisStreamHandler(client, cfg.Ledger.SequenceKeyPrefix)
		app.bus.Subscribe(stream)
		log.Info("Publishing ledger events to Redis stream", zap.String("stream", stream.Stream()))
	}
	if err := app.bus.Start(context.Background()); err != nil {
		return nil, err
	}

	// Application services
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	tradeScope := persistence.NewGormTradeTransactionScope(db.DB)

	chartService := appaccounting.NewChartService(ledgerScope, log)
	journalService := appaccounting.NewJournalService(appaccounting.JournalServiceConfig{
		Scope:          ledgerScope,
		Numbers:        numbers,
		EventPublisher: app.bus,
		Metrics:        metrics,
		Logger:         log,
	})
	balanceService := appaccounting.NewBalanceService(ledgerScope, log)
	documentService := apptrade.NewDocumentService(apptrade.DocumentServiceConfig{
		Scope:          tradeScope,
		Numbers:        numbers,
		EventPublisher: app.bus,
		Metrics:        metrics,
		Logger:         log,
	})
	paymentService := apptrade.NewPaymentService(apptrade.PaymentServiceConfig{
		Scope:          tradeScope,
		Numbers:        numbers,
		EventPublisher: app.bus,
		Metrics:        metrics,
		Logger:         log,
	})
	partyService := apptrade.NewPartyService(tradeScope, log)

	if cfg.Ledger.OverdueSweep {
		hour, minute, err := cfg.Ledger.OverdueSweepTime()
		if err != nil {
			return nil, err
		}
		sweepCfg := scheduler.DefaultOverdueSweeperConfig()
		sweepCfg.Hour, sweepCfg.Minute = hour, minute
		sweeper, err := scheduler.NewOverdueSweeper(sweepCfg,
			persistence.NewGormDocumentRepository(db.DB), documentService, log.Named("overdue"))
		if err != nil {
			return nil, err
		}
		if err := sweeper.Start(context.Background()); err != nil {
			return nil, err
		}
		app.sweeper = sweeper
	}

	// HTTP
	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	engine.Use(
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		logger.GinMiddleware(log),
		middleware.SpanEnricher(),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	router.NewRouter(engine, router.WithAPIMiddleware(middleware.RequireTenant())).
		RegisterRoot(handler.NewSystemHandler(db, version)).
		Register(handler.NewAccountingHandler(chartService, journalService, balanceService)).
		Register(handler.NewTradeHandler(documentService, paymentService, partyService)).
		Register(handler.NewNumberingHandler(numbers)).
		Setup()

	app.engine = engine
	return app, nil
}

// close stops the event bus and releases connections in reverse order of
// acquisition.
func (a *application) close(ctx context.Context) {
	if a.sweeper != nil {
		_ = a.sweeper.Stop(ctx)
	}
	if a.bus != nil {
		_ = a.bus.Stop(ctx)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("Error releasing resource", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Error("Error closing database", zap.Error(err))
	}
}
