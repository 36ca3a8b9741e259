package cli

import (
	"fmt"
	"io"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	appnumbering "github.com/erp/ledger/internal/application/numbering"
	apptrade "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ledger is one command's view of the database and the services on it
type ledger struct {
	db        *persistence.Database
	chart     *appaccounting.ChartService
	journal   *appaccounting.JournalService
	balances  *appaccounting.BalanceService
	documents *apptrade.DocumentService
	numbers   *appnumbering.Service
	currency  string
	closers   []io.Closer
	log       *zap.Logger
}

func openLedger(opts *options) (*ledger, error) {
	cfg, err := opts.loadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.sqlitePath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = opts.sqlitePath
	}

	// stdout belongs to command output
	logCfg := cfg.Log
	logCfg.Output = "stderr"
	if logCfg.Level == "" || logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	log, err := logger.New(logCfg, cfg.App)
	if err != nil {
		return nil, err
	}

	db, err := persistence.OpenDatabase(&cfg.Database, &gorm.Config{
		Logger:                 logger.NewGormLogger(log, gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	if db.IsSQLite() {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	l := &ledger{db: db, log: log, currency: cfg.Ledger.DefaultCurrency}

	counter, err := cache.NewSequenceCounterFactory(cfg.Redis, cfg.Ledger,
		persistence.NewGormSequenceCounter(db.DB),
		cache.WithLogger(log),
	).CreateCounter()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sequence counter: %w", err)
	}
	if c, ok := counter.(io.Closer); ok {
		l.closers = append(l.closers, c)
	}
	numberOpts := []appnumbering.Option{
		appnumbering.WithWidth(cfg.Ledger.SequenceWidth),
		appnumbering.WithLogger(log),
	}
	for seqType, prefix := range cfg.Ledger.SequencePrefixes {
		numberOpts = append(numberOpts, appnumbering.WithPrefix(numbering.SequenceType(seqType), prefix))
	}
	l.numbers = appnumbering.NewService(counter, numberOpts...)

	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	l.chart = appaccounting.NewChartService(ledgerScope, log)
	l.journal = appaccounting.NewJournalService(appaccounting.JournalServiceConfig{
		Scope:   ledgerScope,
		Numbers: l.numbers,
		Logger:  log,
	})
	l.balances = appaccounting.NewBalanceService(ledgerScope, log)
	l.documents = apptrade.NewDocumentService(apptrade.DocumentServiceConfig{
		Scope:   persistence.NewGormTradeTransactionScope(db.DB),
		Numbers: l.numbers,
		Logger:  log,
	})
	return l, nil
}

func (l *ledger) Close() {
	for i := len(l.closers) - 1; i >= 0; i-- {
		_ = l.closers[i].Close()
	}
	if err := l.db.Close(); err != nil {
		l.log.Warn("Error closing database", zap.Error(err))
	}
	_ = l.log.Sync()
}

// withLedger opens the ledger for the duration of fn
func withLedger(opts *options, fn func(l *ledger) error) error {
	l, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l)
}
