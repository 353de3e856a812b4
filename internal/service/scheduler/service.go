// Package scheduler runs the periodic full-catalog badge sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hackboard/badge-engine/internal/config"
	prommetrics "github.com/hackboard/badge-engine/internal/metrics"
	"github.com/hackboard/badge-engine/internal/service/achievements"
	"github.com/hackboard/badge-engine/pkg/logger"
)

// Service schedules the nightly badge sweep. The sweep runs forced
// unlock passes for every user so badges earned through paths that
// never fired a trigger (imports, admin edits) still land.
type Service struct {
	config *config.SchedulerConfig
	achSvc *achievements.Service
	log    *logger.Logger
	cron   *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, achSvc *achievements.Service, log *logger.Logger) *Service {
	return &Service{
		config: cfg,
		achSvc: achSvc,
		log:    log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	_, err = s.cron.AddFunc(s.config.SweepCron, func() {
		s.runSweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	s.cron.Start()
	s.log.Info().
		Str("cron", s.config.SweepCron).
		Str("timezone", s.config.Timezone).
		Msg("Badge sweep scheduler started")

	return nil
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Badge sweep scheduler stopped")
}

// runSweep executes one full-catalog sweep across all users.
func (s *Service) runSweep(ctx context.Context) {
	start := time.Now()

	granted, err := s.achSvc.EvaluateAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Badge sweep failed")
		prommetrics.RecordSweepJobRun("failed")
		return
	}

	prommetrics.RecordSweepJobRun("success")
	prommetrics.ObserveSweepDuration(time.Since(start).Seconds())

	s.log.Info().
		Int("badges_granted", granted).
		Dur("duration", time.Since(start)).
		Msg("Scheduled badge sweep finished")
}
