package indexer

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
)

// Scheduler runs periodic indexing over all sources on a cron schedule.
type Scheduler struct {
	indexer *Service
	config  common.IndexingConfig
	logger  arbor.ILogger
	cron    *cron.Cron
	entryID cron.EntryID
}

// NewScheduler creates a scheduler for the indexing service.
func NewScheduler(indexer *Service, config common.IndexingConfig, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		indexer: indexer,
		config:  config,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the schedule and begins running. Disabled scheduling is a
// clean no-op so one binary serves both ad hoc and scheduled deployments.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduled indexing disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, s.runIndexing)
	if err != nil {
		return fmt.Errorf("invalid indexing schedule %q: %w", s.config.Schedule, err)
	}
	s.entryID = entryID
	s.cron.Start()

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Msg("Scheduled indexing started")
	return nil
}

// Stop halts the schedule, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduled indexing stopped")
}

func (s *Scheduler) runIndexing() {
	results, err := s.indexer.IndexAll(context.Background())
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled indexing run failed")
		return
	}
	total := 0
	for _, result := range results {
		total += result.Indexed
	}
	s.logger.Info().
		Int("indexed", total).
		Msg("Scheduled indexing run completed")
}
