// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/jobs/reminders"
)

// RunnerFunc is the job entry point the scheduler fires.
type RunnerFunc func(ctx context.Context) (reminders.Result, error)

// Scheduler fires the reminder batch on a cron spec evaluated in the
// practice's local timezone.
type Scheduler struct {
	cron    *cron.Cron
	run     RunnerFunc
	timeout time.Duration
	logger  logger.Logger
}

func New(loc *time.Location, run RunnerFunc, timeout time.Duration, log logger.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		run:     run,
		timeout: timeout,
		logger:  log,
	}
}

// Schedule registers the batch under spec (standard 5-field cron syntax).
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		result, err := s.run(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled reminder run failed", map[string]interface{}{
				"run_id": result.RunID,
			})
			return
		}
		s.logger.Info("Scheduled reminder run completed", map[string]interface{}{
			"run_id": result.RunID,
			"sent":   result.Sent,
		})
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
