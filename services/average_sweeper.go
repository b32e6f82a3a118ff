package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AverageStore is the part of the store the sweeper needs.
type AverageStore interface {
	// RepairAverages rewrites every stored average that is missing or differs
	// from the midpoint of its bounds and returns how many rows changed. Only
	// the average column is written, from the bounds the row holds at that
	// moment.
	RepairAverages(ctx context.Context) (int64, error)
}

// AverageSweeper periodically rewrites derived averages that were cleared by
// an update and never written back.
type AverageSweeper struct {
	store AverageStore
	log   zerolog.Logger
	cron  *cron.Cron
}

func NewAverageSweeper(store AverageStore, log zerolog.Logger) *AverageSweeper {
	return &AverageSweeper{
		store: store,
		log:   log.With().Str("component", "average_sweeper").Logger(),
	}
}

// StartScheduler runs Sweep on the given cron schedule until Stop is called.
func (s *AverageSweeper) StartScheduler(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("Average sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule average sweep %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.log.Info().Str("schedule", spec).Msg("Average sweeper started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *AverageSweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep repairs every stale average and returns how many records changed.
func (s *AverageSweeper) Sweep(ctx context.Context) (int, error) {
	repaired, err := s.store.RepairAverages(ctx)
	if err != nil {
		return 0, fmt.Errorf("repair averages: %w", err)
	}

	if repaired > 0 {
		s.log.Info().Int64("repaired", repaired).Msg("Average sweep completed")
	}
	return int(repaired), nil
}
