package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceService runs the periodic forgetting sweep on a cron
// schedule while the server is up. Sweeps are also invokable on demand;
// this only owns the timer.
type MaintenanceService struct {
	reviews *ReviewService
	cron    *cron.Cron
	spec    string
	logger  *zap.Logger
}

func NewMaintenanceService(rs *ReviewService, spec string, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		reviews: rs,
		cron:    cron.New(),
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *MaintenanceService) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runSweep)
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("maintenance scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("maintenance scheduler stopped")
}

func (s *MaintenanceService) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := s.reviews.Sweep(ctx, false)
	if err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sweep complete",
		zap.Int("scanned", report.Scanned),
		zap.Int64("forgotten", report.Forgotten))
}
