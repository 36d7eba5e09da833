package service

import (
	"context"
	"fmt"
	"time"

	"filing-tracker/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ScanScheduler periodically runs the due filing scan. The core lifecycle
// has no scheduling of its own; this is the external trigger a deployment
// runs alongside the manual HTTP trigger.
type ScanScheduler struct {
	filingSvc   FilingService
	schedule    cron.Schedule
	scanTimeout time.Duration
	logger      *logger.Logger
}

// NewScanScheduler parses the cron expression and builds the scheduler.
func NewScanScheduler(filingSvc FilingService, cronExpr string, scanTimeout time.Duration, log *logger.Logger) (*ScanScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", cronExpr, err)
	}
	if scanTimeout <= 0 {
		scanTimeout = 5 * time.Minute
	}
	return &ScanScheduler{
		filingSvc:   filingSvc,
		schedule:    schedule,
		scanTimeout: scanTimeout,
		logger:      log,
	}, nil
}

// Start blocks, firing the due scan at each schedule boundary until the
// context is cancelled.
func (s *ScanScheduler) Start(ctx context.Context) {
	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scan scheduler stopping")
			return
		case <-timer.C:
			s.runScan(ctx)
		}
	}
}

func (s *ScanScheduler) runScan(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	processed, err := s.filingSvc.ProcessDueFilings(scanCtx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Scheduled due scan finished with errors",
			logger.ErrorField(err),
			logger.IntField("processed", processed),
		)
		return
	}
	s.logger.Info("Scheduled due scan finished", logger.IntField("processed", processed))
}
