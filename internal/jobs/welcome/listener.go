// internal/jobs/welcome/listener.go
package welcome

import (
	"context"
	"time"

	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/models"
	"medical-reminders/internal/notify"
)

const dedupKeyPrefix = "welcome:sent:"

// WelcomeSender dispatches the onboarding email.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, patient models.Patient) notify.Outcome
}

// Deduper remembers which patients already got a welcome email. The stream
// delivers at-least-once; the marker collapses redeliveries to one send.
type Deduper interface {
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Listener reacts to patient-created events with a single welcome email.
type Listener struct {
	sender   WelcomeSender
	deduper  Deduper
	dedupTTL time.Duration
	logger   logger.Logger
}

func NewListener(sender WelcomeSender, deduper Deduper, dedupTTL time.Duration, log logger.Logger) *Listener {
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	return &Listener{sender: sender, deduper: deduper, dedupTTL: dedupTTL, logger: log}
}

// HandlePatientCreated sends the welcome email for a new patient. It never
// returns an error: a failed or skipped welcome email must not disturb event
// consumption, so everything is logged and swallowed here.
func (l *Listener) HandlePatientCreated(ctx context.Context, patient models.Patient) {
	if l.deduper != nil {
		fresh, err := l.deduper.AcquireLease(ctx, dedupKeyPrefix+patient.ID, l.dedupTTL)
		if err != nil {
			l.logger.WithError(err).Warn("Welcome dedup check failed, proceeding with send", map[string]interface{}{
				"patient_id": patient.ID,
			})
		} else if !fresh {
			l.logger.Info("Welcome email already sent, skipping", map[string]interface{}{
				"patient_id": patient.ID,
			})
			return
		}
	}

	outcome := l.sender.SendWelcome(ctx, patient)
	if outcome.Status == notify.StatusFailed {
		l.logger.WithError(outcome.Err).Error("Welcome email failed", map[string]interface{}{
			"patient_id": patient.ID,
		})
	}
}
