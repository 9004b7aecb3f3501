// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweeperStopTimeout bounds how long Stop waits for a running sweep.
const sweeperStopTimeout = 10 * time.Second

// Sweeper periodically evicts idle browser sessions from a [Registry].
type Sweeper struct {
	registry  *Registry
	idle      time.Duration
	schedule  string
	logger    *slog.Logger
	scheduler *cron.Cron
}

// NewSweeper creates a sweeper. schedule uses cron syntax or descriptors
// such as "@every 10m".
func NewSweeper(registry *Registry, schedule string, idle time.Duration, logger *slog.Logger) *Sweeper {
	logger = logger.With(slog.String("component", "session_sweeper"))

	return &Sweeper{
		registry: registry,
		idle:     idle,
		schedule: schedule,
		logger:   logger,
		scheduler: cron.New(
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
		),
	}
}

// Start schedules the sweep and starts the scheduler in the background.
func (sweeper *Sweeper) Start() error {
	if _, err := sweeper.scheduler.AddFunc(sweeper.schedule, sweeper.RunOnce); err != nil {
		return fmt.Errorf("session_sweeper_schedule_failed: %w", err)
	}

	sweeper.scheduler.Start()
	sweeper.logger.Info("session_sweeper_started",
		slog.String("schedule", sweeper.schedule),
		slog.Duration("idle_ttl", sweeper.idle),
	)
	return nil
}

// RunOnce performs one sweep.
func (sweeper *Sweeper) RunOnce() {
	evicted := sweeper.registry.Sweep(sweeper.idle)
	sweeper.logger.Info("session_sweep_completed",
		slog.Int("evicted", evicted),
		slog.Int("remaining", sweeper.registry.Len()),
	)
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (sweeper *Sweeper) Stop() {
	stopped := sweeper.scheduler.Stop()

	select {
	case <-stopped.Done():
		sweeper.logger.Info("session_sweeper_stopped")
	case <-time.After(sweeperStopTimeout):
		sweeper.logger.Warn("session_sweeper_stop_timed_out")
	}
}

// # Cron Logger Adapter

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

// Info implements [cron.Logger]. Scheduler chatter is demoted to debug.
func (adapter cronLogger) Info(msg string, keysAndValues ...any) {
	adapter.logger.Debug(msg, keysAndValues...)
}

// Error implements [cron.Logger].
func (adapter cronLogger) Error(err error, msg string, keysAndValues ...any) {
	adapter.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
