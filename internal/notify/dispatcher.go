// internal/notify/dispatcher.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	commonerrors "medical-reminders/internal/common/errors"
	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/common/metrics"
	"medical-reminders/internal/models"
)

// EmailSender abstracts the SES client for testing.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Status is the terminal state of one dispatch attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to a single notification.
type Outcome struct {
	AppointmentID string
	PatientID     string
	Status        Status
	Err           error
}

// Config holds the sending identity. An empty FromEmail means the channel is
// not configured; dispatches are then skipped, never failed.
type Config struct {
	FromEmail string
	FromName  string
}

// Dispatcher sends rendered notifications through the email channel. Each
// dispatch is exactly one send attempt with no retries; retry policy belongs
// to the caller.
type Dispatcher struct {
	cfg    Config
	sender EmailSender
	logger logger.Logger
}

func NewDispatcher(cfg Config, sender EmailSender, log logger.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, sender: sender, logger: log}
}

// SendReminder delivers an appointment reminder to the patient. Missing
// sender identity or missing patient email produce a skipped outcome with a
// warning, not an error.
func (d *Dispatcher) SendReminder(ctx context.Context, appt models.Appointment, patient models.Patient) Outcome {
	outcome := Outcome{AppointmentID: appt.ID, PatientID: patient.ID}

	if d.cfg.FromEmail == "" {
		d.logger.Warn("Sender identity not configured, skipping reminder", map[string]interface{}{
			"appointment_id": appt.ID,
		})
		outcome.Status = StatusSkipped
		metrics.ReminderDispatches.WithLabelValues(string(StatusSkipped)).Inc()
		return outcome
	}

	if !patient.HasEmail() {
		d.logger.Warn("Patient has no email address, skipping reminder", map[string]interface{}{
			"appointment_id": appt.ID,
			"patient_id":     patient.ID,
		})
		outcome.Status = StatusSkipped
		metrics.ReminderDispatches.WithLabelValues(string(StatusSkipped)).Inc()
		return outcome
	}

	subject, body, err := ReminderEmail(appt, patient, d.cfg.FromName)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = commonerrors.NewNotificationSendFailedError(patient.Email, err)
		metrics.ReminderDispatches.WithLabelValues(string(StatusFailed)).Inc()
		return outcome
	}

	if err := d.send(ctx, patient.Email, subject, body); err != nil {
		d.logger.WithError(err).Error("Failed to send reminder email", map[string]interface{}{
			"appointment_id": appt.ID,
			"patient_id":     patient.ID,
		})
		outcome.Status = StatusFailed
		outcome.Err = commonerrors.NewNotificationSendFailedError(patient.Email, err)
		metrics.ReminderDispatches.WithLabelValues(string(StatusFailed)).Inc()
		return outcome
	}

	d.logger.Info("Reminder email sent", map[string]interface{}{
		"appointment_id": appt.ID,
		"patient_id":     patient.ID,
	})
	outcome.Status = StatusSent
	metrics.ReminderDispatches.WithLabelValues(string(StatusSent)).Inc()
	return outcome
}

// SendWelcome delivers the onboarding email to a newly registered patient.
func (d *Dispatcher) SendWelcome(ctx context.Context, patient models.Patient) Outcome {
	outcome := Outcome{PatientID: patient.ID}

	if d.cfg.FromEmail == "" {
		d.logger.Warn("Sender identity not configured, skipping welcome email", map[string]interface{}{
			"patient_id": patient.ID,
		})
		outcome.Status = StatusSkipped
		metrics.WelcomeEmails.WithLabelValues(string(StatusSkipped)).Inc()
		return outcome
	}

	if !patient.HasEmail() {
		d.logger.Warn("Patient has no email address, skipping welcome email", map[string]interface{}{
			"patient_id": patient.ID,
		})
		outcome.Status = StatusSkipped
		metrics.WelcomeEmails.WithLabelValues(string(StatusSkipped)).Inc()
		return outcome
	}

	subject, body, err := WelcomeEmail(patient, d.cfg.FromName)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = commonerrors.NewNotificationSendFailedError(patient.Email, err)
		metrics.WelcomeEmails.WithLabelValues(string(StatusFailed)).Inc()
		return outcome
	}

	if err := d.send(ctx, patient.Email, subject, body); err != nil {
		d.logger.WithError(err).Error("Failed to send welcome email", map[string]interface{}{
			"patient_id": patient.ID,
		})
		outcome.Status = StatusFailed
		outcome.Err = commonerrors.NewNotificationSendFailedError(patient.Email, err)
		metrics.WelcomeEmails.WithLabelValues(string(StatusFailed)).Inc()
		return outcome
	}

	d.logger.Info("Welcome email sent", map[string]interface{}{
		"patient_id": patient.ID,
	})
	outcome.Status = StatusSent
	metrics.WelcomeEmails.WithLabelValues(string(StatusSent)).Inc()
	return outcome
}

func (d *Dispatcher) send(ctx context.Context, to, subject, body string) error {
	source := d.cfg.FromEmail
	if d.cfg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", d.cfg.FromName, d.cfg.FromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	_, err := d.sender.SendEmail(ctx, input)
	return err
}
