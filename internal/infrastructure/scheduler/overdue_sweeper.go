// Package scheduler runs periodic ledger maintenance in the background.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apptrade "github.com/erp/ledger/internal/application/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidConfig wraps every sweeper configuration error
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// TenantProvider lists the tenants a sweep should visit
type TenantProvider interface {
	TenantsWithOpenDocuments(ctx context.Context) ([]uuid.UUID, error)
}

// OverdueRefresher marks a tenant's past-due documents overdue
type OverdueRefresher interface {
	RefreshOverdue(ctx context.Context, tenantID uuid.UUID, today time.Time) (*apptrade.OverdueSweepResult, error)
}

// OverdueSweeperConfig holds configuration for the overdue sweeper
type OverdueSweeperConfig struct {
	// Hour and Minute of the daily run, 24h clock in UTC
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultOverdueSweeperConfig runs the sweep at 01:00 UTC
func DefaultOverdueSweeperConfig() OverdueSweeperConfig {
	return OverdueSweeperConfig{
		Hour:          1,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// Validate checks the configured run time
func (c OverdueSweeperConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23, got %d", ErrInvalidConfig, c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: minute must be between 0 and 59, got %d", ErrInvalidConfig, c.Minute)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// SweepReport summarizes one run across all tenants
type SweepReport struct {
	Tenants       int
	Checked       int
	MarkedOverdue int
	Failed        int
}

// OverdueSweeper refreshes overdue status once a day for every tenant
type OverdueSweeper struct {
	config    OverdueSweeperConfig
	tenants   TenantProvider
	refresher OverdueRefresher
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewOverdueSweeper creates a new sweeper
func NewOverdueSweeper(config OverdueSweeperConfig, tenants TenantProvider, refresher OverdueRefresher, logger *zap.Logger) (*OverdueSweeper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueSweeper{
		config:    config,
		tenants:   tenants,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start starts the background loop
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Overdue sweeper started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Duration("check_interval", s.config.CheckInterval),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight sweep to finish
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OverdueSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndSweep(ctx)
		}
	}
}

// checkAndSweep runs the sweep at most once per calendar day, on the first
// check at or after the configured time
func (s *OverdueSweeper) checkAndSweep(ctx context.Context) {
	now := s.now().UTC()
	if !s.due(now) {
		return
	}
	s.SweepNow(ctx, now)
}

func (s *OverdueSweeper) due(now time.Time) bool {
	currentDate := now.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRunDate == currentDate {
		return false
	}
	if now.Hour()*60+now.Minute() < s.config.Hour*60+s.config.Minute {
		return false
	}
	s.lastRunDate = currentDate
	return true
}

// SweepNow refreshes every tenant immediately. A failing tenant is logged
// and counted; the others still run.
func (s *OverdueSweeper) SweepNow(ctx context.Context, today time.Time) SweepReport {
	var report SweepReport

	tenantIDs, err := s.tenants.TenantsWithOpenDocuments(ctx)
	if err != nil {
		s.logger.Error("Failed to list tenants for overdue sweep", zap.Error(err))
		report.Failed++
		return report
	}
	report.Tenants = len(tenantIDs)

	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			break
		}
		result, err := s.refresher.RefreshOverdue(ctx, tenantID, today)
		if err != nil {
			report.Failed++
			s.logger.Error("Overdue sweep failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			continue
		}
		report.Checked += result.Checked
		report.MarkedOverdue += len(result.MarkedOverdue)
	}

	s.logger.Info("Overdue sweep completed",
		zap.Int("tenants", report.Tenants),
		zap.Int("checked", report.Checked),
		zap.Int("marked_overdue", report.MarkedOverdue),
		zap.Int("failed", report.Failed))
	return report
}
