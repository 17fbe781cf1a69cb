package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic pipeline runs in daemon mode.
type Scheduler struct {
	cfg       *Config
	dashboard *Dashboard
	manager   *cron.Cron
	entryID   cron.EntryID
}

// NewScheduler wires the cron manager to the dashboard's run trigger so
// scheduled and manual runs share the same mutex.
func NewScheduler(cfg *Config, dashboard *Dashboard) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		dashboard: dashboard,
		manager:   cron.New(),
	}
}

// Start registers the update job and starts the cron manager.
func (s *Scheduler) Start() error {
	id, err := s.manager.AddFunc(s.cfg.UpdateCron, s.runScheduled)
	if err != nil {
		return err
	}
	s.entryID = id
	s.manager.Start()

	next := s.manager.Entry(s.entryID).Next
	UpdateNextRunTime(next)
	Logger().Info("scheduler started: %q, next run %s", s.cfg.UpdateCron, next.Format(time.RFC3339))
	return nil
}

// Stop stops the cron manager and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.manager.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runScheduled() {
	s.dashboard.NotifyRunStarted()

	report, err := s.dashboard.RunLocked(context.Background())
	if err != nil {
		Logger().Error("scheduled run failed: %v", err)
		RecordError(err.Error())
		s.dashboard.NotifyRunFinished(&RunReport{Started: time.Now()})
	} else {
		s.dashboard.NotifyRunFinished(report)
	}

	UpdateNextRunTime(s.manager.Entry(s.entryID).Next)
	if err := SaveState(s.cfg); err != nil {
		Logger().Warning("failed to persist state: %v", err)
	}
}
