// internal/jobs/reminders/job.go
package reminders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	commonerrors "medical-reminders/internal/common/errors"
	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/common/metrics"
	"medical-reminders/internal/common/observability"
	"medical-reminders/internal/models"
	"medical-reminders/internal/notify"
	"medical-reminders/internal/store"
)

const runLockKey = "reminders:run-lock"

// AppointmentSource lists appointments due within a window.
type AppointmentSource interface {
	ScheduledBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error)
}

// PatientSource resolves patient references from appointments.
type PatientSource interface {
	ByID(ctx context.Context, id string) (*models.Patient, error)
}

// ReminderSender dispatches a single reminder and reports its outcome.
type ReminderSender interface {
	SendReminder(ctx context.Context, appt models.Appointment, patient models.Patient) notify.Outcome
}

// Locker provides the single-flight guard so overlapping triggers (cron plus
// manual) cannot double-send within a run.
type Locker interface {
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key string) error
}

// Config tunes one batch run.
type Config struct {
	Location    *time.Location
	Concurrency int
	LockTTL     time.Duration
}

// Result summarizes a completed run.
type Result struct {
	RunID   string `json:"runId"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// Total returns how many appointments the run considered.
func (r Result) Total() int {
	return r.Sent + r.Skipped + r.Failed
}

// Job is the tomorrow-reminder batch. One Run queries the due window, fans
// out dispatches, lets every dispatch settle, then reports.
type Job struct {
	appointments AppointmentSource
	patients     PatientSource
	sender       ReminderSender
	locker       Locker
	cfg          Config
	obs          *observability.Observability
	logger       logger.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewJob(appointments AppointmentSource, patients PatientSource, sender ReminderSender, locker Locker, cfg Config, obs *observability.Observability, log logger.Logger) *Job {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Job{
		appointments: appointments,
		patients:     patients,
		sender:       sender,
		locker:       locker,
		cfg:          cfg,
		obs:          obs,
		logger:       log,
		now:          time.Now,
	}
}

// Run executes one reminder batch. Individual dispatch failures do not stop
// the batch; the run error is raised only after every dispatch has settled,
// and only when at least one dispatch failed.
func (j *Job) Run(ctx context.Context) (Result, error) {
	runID := uuid.New().String()
	log := j.logger.WithFields(map[string]interface{}{"run_id": runID})
	started := j.now()

	result := Result{RunID: runID}

	if j.locker != nil {
		acquired, err := j.locker.AcquireLease(ctx, runLockKey, j.cfg.LockTTL)
		if err != nil {
			return result, j.finish(ctx, log, started, result, commonerrors.NewInternalError(err))
		}
		if !acquired {
			log.Info("Another reminder run is in progress, skipping", nil)
			return result, nil
		}
		defer func() {
			if err := j.locker.ReleaseLease(context.WithoutCancel(ctx), runLockKey); err != nil {
				log.WithError(err).Warn("Failed to release run lock", nil)
			}
		}()
	}

	start, end := Window(j.now(), j.cfg.Location)
	log.Info("Starting reminder run", map[string]interface{}{
		"window_start": start.Format(time.RFC3339),
		"window_end":   end.Format(time.RFC3339),
	})

	due, err := j.appointments.ScheduledBetween(ctx, start, end)
	if err != nil {
		queryErr := commonerrors.NewStoreQueryFailedError(store.CollectionAppointments, err)
		log.WithError(queryErr).Error("Failed to query due appointments", nil)
		return result, j.finish(ctx, log, started, result, queryErr)
	}

	if len(due) == 0 {
		log.Info("No appointments due tomorrow", nil)
		return result, j.finish(ctx, log, started, result, nil)
	}

	outcomes := j.dispatchAll(ctx, due)

	var failures []error
	for _, o := range outcomes {
		switch o.Status {
		case notify.StatusSent:
			result.Sent++
		case notify.StatusSkipped:
			result.Skipped++
		case notify.StatusFailed:
			result.Failed++
			if o.Err != nil {
				failures = append(failures, o.Err)
			}
		}
	}

	var runErr error
	if result.Failed > 0 {
		runErr = commonerrors.NewReminderRunFailedError(result.Failed, len(due), errors.Join(failures...))
	}

	return result, j.finish(ctx, log, started, result, runErr)
}

// dispatchAll fans the due appointments out over a bounded worker pool and
// waits for every dispatch to settle.
func (j *Job) dispatchAll(ctx context.Context, due []models.Appointment) []notify.Outcome {
	outcomes := make([]notify.Outcome, len(due))
	sem := make(chan struct{}, j.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, appt := range due {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, appt models.Appointment) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = j.dispatchOne(ctx, appt)
		}(i, appt)
	}

	wg.Wait()
	return outcomes
}

func (j *Job) dispatchOne(ctx context.Context, appt models.Appointment) notify.Outcome {
	patient, err := j.patients.ByID(ctx, appt.PatientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Dangling reference. Skipped silently, matching how the
			// batch treats records it cannot act on.
			return notify.Outcome{
				AppointmentID: appt.ID,
				PatientID:     appt.PatientID,
				Status:        notify.StatusSkipped,
			}
		}
		return notify.Outcome{
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			Status:        notify.StatusFailed,
			Err:           commonerrors.NewStoreQueryFailedError(store.CollectionPatients, err),
		}
	}

	return j.sender.SendReminder(ctx, appt, *patient)
}

// finish records run metrics and logs the summary. It returns runErr so
// callers can use it as the tail expression of Run.
func (j *Job) finish(ctx context.Context, log logger.Logger, started time.Time, result Result, runErr error) error {
	elapsed := j.now().Sub(started)
	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}

	metrics.ReminderRuns.WithLabelValues(outcome).Inc()
	metrics.ReminderRunDuration.Observe(elapsed.Seconds())
	if j.obs != nil {
		j.obs.RecordRunProcessed(ctx, outcome)
		j.obs.RecordRunDuration(ctx, elapsed, outcome)
	}

	log.Info("Reminder run finished", map[string]interface{}{
		"result":      outcome,
		"sent":        result.Sent,
		"skipped":     result.Skipped,
		"failed":      result.Failed,
		"duration_ms": elapsed.Milliseconds(),
	})

	return runErr
}
