package scanner

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"

	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// Scheduler triggers scans on a cron schedule. A library that has never
// been scanned gets an initial scan immediately on start.
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
	log  hclog.Logger
}

// NewScheduler creates a scheduler for the given scan service.
func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		svc:  svc,
		log:  logger.Named("scheduler"),
	}
}

// Start kicks off the initial scan if needed and registers the periodic
// schedule. An empty spec disables periodic scans.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	never, err := s.svc.NeverScanned(ctx)
	if err != nil {
		s.log.Warn("could not determine scan history", "error", err)
	} else if never {
		s.log.Info("library has never been scanned, starting initial scan")
		s.svc.ScanLibrary()
	}

	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.svc.ScanLibrary); err != nil {
		return fmt.Errorf("invalid scan schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduled periodic scans", "schedule", spec)
	return nil
}

// Stop halts the schedule and waits for a running cron job callback to
// return. A scan started by the callback keeps running in the background.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
