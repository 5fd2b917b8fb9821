// internal/notify/dispatcher_test.go
package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/models"
)

// mockEmailSender implements EmailSender for testing.
type mockEmailSender struct {
	sendFunc func(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls    []*ses.SendEmailInput
}

func (m *mockEmailSender) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, input)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, input, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

func testAppointment() models.Appointment {
	return models.Appointment{
		ID:         "appt-1",
		PatientID:  "pat-1",
		DoctorName: "Dr. Chen",
		Date:       time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:       "10:30 AM",
		Reason:     "Checkup",
		Status:     models.AppointmentStatusScheduled,
	}
}

func testPatient() models.Patient {
	return models.Patient{ID: "pat-1", Name: "John Doe", Email: "john@example.com"}
}

func TestSendReminder_Success(t *testing.T) {
	sender := &mockEmailSender{}
	d := NewDispatcher(Config{FromEmail: "clinic@example.com", FromName: "Front Desk"}, sender, logger.NewNoOpLogger())

	outcome := d.SendReminder(context.Background(), testAppointment(), testPatient())

	assert.Equal(t, StatusSent, outcome.Status)
	assert.NoError(t, outcome.Err)
	require.Len(t, sender.calls, 1)

	input := sender.calls[0]
	assert.Equal(t, "Front Desk <clinic@example.com>", *input.Source)
	require.Len(t, input.Destination.ToAddresses, 1)
	assert.Equal(t, "john@example.com", input.Destination.ToAddresses[0])
	assert.Equal(t, "Appointment Reminder - Tomorrow", *input.Message.Subject.Data)
}

func TestSendReminder_SkipsWithoutSenderIdentity(t *testing.T) {
	sender := &mockEmailSender{}
	d := NewDispatcher(Config{}, sender, logger.NewNoOpLogger())

	outcome := d.SendReminder(context.Background(), testAppointment(), testPatient())

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.Empty(t, sender.calls)
}

func TestSendReminder_SkipsWithoutPatientEmail(t *testing.T) {
	sender := &mockEmailSender{}
	d := NewDispatcher(Config{FromEmail: "clinic@example.com"}, sender, logger.NewNoOpLogger())

	patient := testPatient()
	patient.Email = ""
	outcome := d.SendReminder(context.Background(), testAppointment(), patient)

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Empty(t, sender.calls)
}

func TestSendReminder_FailurePropagates(t *testing.T) {
	sendErr := errors.New("throttled")
	sender := &mockEmailSender{
		sendFunc: func(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, sendErr
		},
	}
	d := NewDispatcher(Config{FromEmail: "clinic@example.com"}, sender, logger.NewNoOpLogger())

	outcome := d.SendReminder(context.Background(), testAppointment(), testPatient())

	assert.Equal(t, StatusFailed, outcome.Status)
	require.Error(t, outcome.Err)
	assert.ErrorIs(t, outcome.Err, sendErr)
	// Exactly one attempt, no retry.
	assert.Len(t, sender.calls, 1)
}

func TestSendWelcome_Success(t *testing.T) {
	sender := &mockEmailSender{}
	d := NewDispatcher(Config{FromEmail: "clinic@example.com"}, sender, logger.NewNoOpLogger())

	outcome := d.SendWelcome(context.Background(), testPatient())

	assert.Equal(t, StatusSent, outcome.Status)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "Welcome to Our Medical Practice", *sender.calls[0].Message.Subject.Data)
	// FromName empty: source is the bare address.
	assert.Equal(t, "clinic@example.com", *sender.calls[0].Source)
}

func TestSendWelcome_SkipsWithoutEmail(t *testing.T) {
	sender := &mockEmailSender{}
	d := NewDispatcher(Config{FromEmail: "clinic@example.com"}, sender, logger.NewNoOpLogger())

	outcome := d.SendWelcome(context.Background(), models.Patient{ID: "pat-9", Name: "No Email"})

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Empty(t, sender.calls)
}
