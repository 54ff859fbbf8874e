// Package scheduler runs the library's periodic jobs on cron schedules,
// handing the actual work off to the task queue so runs survive restarts
// and retry on failure.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/tasks"
)

// Scheduler enqueues recurring library jobs: the nightly fine run, the
// reminder mail run, the reservation expiry sweep and audit log cleanup.
type Scheduler struct {
	cfg   config.Schedules
	queue *tasks.Client

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// New creates a scheduler that enqueues jobs on the given task queue.
func New(cfg config.Schedules, queue *tasks.Client) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		queue: queue,
		cron:  cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the configured jobs and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
		enabled  bool
		task     backlite.Task
	}{
		{"calculate_fines", s.cfg.FineSchedule, true, tasks.CalculateFinesTask{}},
		{"send_reminders", s.cfg.ReminderSchedule, true, tasks.SendRemindersTask{}},
		{"expire_reservations", s.cfg.ReservationExpirySchedule, s.cfg.ReservationExpiryEnabled, tasks.ExpireReservationsTask{}},
		{"cleanup_audit_events", s.cfg.AuditCleanupSchedule, true, tasks.CleanupAuditEventsTask{RetentionDays: s.cfg.AuditRetentionDays}},
	}

	for _, job := range jobs {
		if !job.enabled {
			log.Printf("Scheduler: job %s disabled", job.name)
			continue
		}
		if job.schedule == "" {
			log.Printf("Scheduler: job %s has no schedule, skipping", job.name)
			continue
		}

		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() {
			s.enqueue(job.name, job.task)
		}); err != nil {
			return fmt.Errorf("failed to schedule job %s (%q): %w", job.name, job.schedule, err)
		}
		log.Printf("Scheduler: job %s scheduled with '%s'", job.name, job.schedule)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// JobCount returns the number of scheduled jobs.
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}

// NextRun returns the earliest upcoming job time, or nil when idle.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	var next *time.Time
	for _, entry := range s.cron.Entries() {
		t := entry.Next
		if next == nil || t.Before(*next) {
			next = &t
		}
	}
	return next
}

func (s *Scheduler) enqueue(name string, task backlite.Task) {
	if _, err := s.queue.Add(task).Save(); err != nil {
		log.Printf("Scheduler: failed to enqueue %s: %v", name, err)
		return
	}
	log.Printf("Scheduler: enqueued %s", name)
}
