package scheduler

import (
	"context"
	"time"

	"dharmaverse/logger"
)

// Job is a periodic maintenance task.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs its jobs once at start and then on every tick.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
}

// New creates a Scheduler. A non-positive interval defaults to one minute.
func New(interval time.Duration, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{interval: interval, jobs: jobs}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info("Scheduler started (interval: %s, jobs: %d)", s.interval, len(s.jobs))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runAll(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context) {
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.WithFields(map[string]interface{}{
				"job":   job.Name,
				"error": err.Error(),
			}).Error("Scheduled job failed")
			continue
		}

		logger.WithFields(map[string]interface{}{
			"job":      job.Name,
			"duration": time.Since(started).String(),
		}).Debug("Scheduled job finished")
	}
}
