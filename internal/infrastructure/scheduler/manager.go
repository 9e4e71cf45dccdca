// Package scheduler runs periodic reconciliation using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/subeth/subeth/internal/shared/goroutine"
	"github.com/subeth/subeth/internal/shared/logger"
)

const defaultJobTimeout = 10 * time.Minute

// BatchJob processes one batch and returns how many items it handled.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// BatchJobFunc adapts a function to BatchJob.
type BatchJobFunc func(ctx context.Context) (int, error)

func (f BatchJobFunc) Execute(ctx context.Context) (int, error) {
	return f(ctx)
}

// SchedulerManager owns a single gocron scheduler and its jobs.
type SchedulerManager struct {
	scheduler  gocron.Scheduler
	logger     logger.Interface
	jobTimeout time.Duration

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a manager whose cron expressions run in UTC.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler:  scheduler,
		logger:     log,
		jobTimeout: defaultJobTimeout,
	}, nil
}

// RegisterReconcileJob runs job on the cron schedule, starting immediately.
// A run still in progress when the next one is due causes that run to be skipped.
func (m *SchedulerManager) RegisterReconcileJob(schedule string, job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.jobTimeout)
			defer cancel()
			m.runReconcile(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("reconcile"),
		gocron.WithName("subscription-reconcile"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconcile job", "schedule", schedule)
	return nil
}

func (m *SchedulerManager) runReconcile(ctx context.Context, job BatchJob) {
	startTime := time.Now()
	goroutine.Run(m.logger, "reconcile", func() {
		count, err := job.Execute(ctx)
		if err != nil {
			m.logger.Errorw("reconcile run failed",
				"error", err,
				"duration", time.Since(startTime),
			)
			return
		}
		if count > 0 {
			m.logger.Infow("reconcile run repaired drift",
				"count", count,
				"duration", time.Since(startTime),
			)
			return
		}
		m.logger.Debugw("reconcile run completed", "duration", time.Since(startTime))
	})
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")
	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
