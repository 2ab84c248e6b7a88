package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/rsywx-client/pkg/logging"
)

// dailyScheduler refreshes the daily content on a cron schedule.
type dailyScheduler struct {
	schedule string
	refresh  func(ctx context.Context) error
	timeout  time.Duration
	logger   zerolog.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
	isSyncing bool
}

func newDailyScheduler(schedule string, timeout time.Duration, refresh func(ctx context.Context) error) *dailyScheduler {
	return &dailyScheduler{
		schedule: schedule,
		refresh:  refresh,
		timeout:  timeout,
		logger:   logging.NewLogger(logging.ComponentServer).With().Str("job", "daily-refresh").Logger(),
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start schedules the job. An empty schedule disables it.
func (s *dailyScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info().Msg("Daily refresh disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runRefresh)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entry(entryID).Next).
		Msg("Daily refresh scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running refresh.
func (s *dailyScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Daily refresh stopped")
}

// NextRun returns the next scheduled run, or nil when not running.
func (s *dailyScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// runRefresh skips when a refresh is already in flight.
func (s *dailyScheduler) runRefresh() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Daily refresh skipped, already running")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Daily refresh failed")
		return
	}
	s.logger.Info().Dur("duration", time.Since(start)).Msg("Daily refresh completed")
}
